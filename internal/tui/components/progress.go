package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

// ProgressBar renders a plain bar with a percentage, used while loading.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := int(pct * float64(width))

	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	return barStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		pctStyle.Render(fmt.Sprintf(" %.0f%%", pct*100))
}

// BudgetBar renders a category's projected month-end spend against its
// limit. Rows without a limit show the projected total only.
func BudgetBar(row model.BudgetOutlookRow, labelW, barWidth int, money func(float64) string) string {
	t := theme.Active
	color := t.Status(row.Status)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	label := row.CategoryName
	if len(label) > labelW {
		label = label[:labelW-1] + "…"
	}
	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + space

	if row.Limit == nil || *row.Limit <= 0 {
		return out + dimStyle.Render(fmt.Sprintf("%-*s", barWidth, "no budget")) + space +
			valueStyle.Render(money(row.ProjectedTotal))
	}

	pct := row.ProjectedTotal / *row.Limit
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	return out + bar.ViewAs(clamp01(pct)) + space +
		valueStyle.Render(fmt.Sprintf("%3.0f%%", pct*100)) + space +
		dimStyle.Render(money(row.ProjectedTotal)+" / "+money(*row.Limit))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
