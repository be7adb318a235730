package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

func (a App) renderPatternsTab(cw int) string {
	t := theme.Active
	full := a.full
	patterns := model.SortedPatterns(full.Patterns)
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)


	compact := a.isCompactLayout()
	const classW, avgW, rateW, seenW = 8, 11, 8, 5
	catW, daysW := 0, 0
	if !compact {
		catW, daysW = 16, 14
	}
	fixed := classW + avgW + rateW + seenW + 4
	if !compact {
		fixed += catW + daysW + 2
	}
	nameW := max(innerW-fixed, 12)

	var body strings.Builder
	if compact {
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %*s %*s %*s",
			nameW, "Name", classW, "Class", avgW, "Avg", rateW, "Rate", seenW, "Seen")))
	} else {
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %*s %*s %-*s %*s",
			nameW, "Name", catW, "Category", classW, "Class", avgW, "Avg", rateW, "Rate", daysW, "Days", seenW, "Seen")))
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	for _, p := range patterns {
		nameStyle := rowStyle
		if p.TailOnly {
			nameStyle = dimStyle
		}
		amountStyle := lipgloss.NewStyle().Foreground(t.Flow(float64(p.Direction))).Background(t.Surface)

		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(p.TransactionName, nameW))))
		if !compact {
			body.WriteString(mutedStyle.Render(fmt.Sprintf(" %-*s", catW, truncStr(p.CategoryName, catW))))
		}
		body.WriteString(lipgloss.NewStyle().Foreground(t.Pattern(p.PatternType)).Background(t.Surface).Render(fmt.Sprintf(" %-*s", classW, p.PatternType)))
		body.WriteString(amountStyle.Render(fmt.Sprintf(" %*s", avgW, cli.FormatMoney(p.AvgAmount))))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", rateW, cli.FormatRate(p.AvgOccurrencesPerMonth))))
		if !compact {
			body.WriteString(mutedStyle.Render(fmt.Sprintf(" %-*s", daysW, truncStr(cli.FormatPatternDays(p), daysW))))
		}
		body.WriteString(mutedStyle.Render(fmt.Sprintf(" %*d", seenW, p.Occurrences)))
		body.WriteString("\n")
	}
	if len(patterns) == 0 {
		body.WriteString(dimStyle.Render("No recurring patterns in the analyzed history."))
	}

	info := full.AnalysisInfo
	title := fmt.Sprintf("Patterns (%d, %d tail-only)", info.PatternsFound, info.TailOnlyPatterns)
	out := components.ContentCard(title, strings.TrimRight(body.String(), "\n"), cw)

	if len(full.Skipped) > 0 {
		var sk strings.Builder
		for _, s := range full.Skipped {
			sk.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(s.Name, nameW))))
			sk.WriteString(mutedStyle.Render(fmt.Sprintf(" %-26s %*d", strings.ReplaceAll(s.Reason, "_", " "), seenW, s.Occurrences)))
			sk.WriteString("\n")
		}
		out += "\n" + components.ContentCard("Excluded", strings.TrimRight(sk.String(), "\n"), cw)
	}
	return out
}
