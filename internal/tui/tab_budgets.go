package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

func (a App) renderBudgetsTab(cw int) string {
	t := theme.Active
	full := a.full
	bs := full.BudgetSummary
	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Exceeded", Value: fmt.Sprintf("%d", bs.Exceeded), Color: t.Exceeded},
		{Label: "At Risk", Value: fmt.Sprintf("%d", bs.AtRisk), Color: t.AtRisk},
		{Label: "On Track", Value: fmt.Sprintf("%d", bs.OnTrack), Color: t.OnTrack},
		{Label: "Projected Overrun", Value: cli.FormatMoney(bs.TotalProjectedOverrun), Color: t.Flow(-bs.TotalProjectedOverrun)},
	}, cw))
	b.WriteString("\n")

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.AtRisk).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	const labelW = 20
	// label, bar, percent, amounts and next date share the row
	barW := max(innerW-labelW-38, 10)

	var budgeted, other strings.Builder
	for _, row := range full.BudgetOutlook {
		line := components.BudgetBar(row, labelW, barW, cli.FormatMoneyShort)
		if row.NextLikelyHitDate != nil {
			line += mutedStyle.Render("  next " + row.NextLikelyHitDate.Format("02 Jan"))
		}
		if row.Budgeted {
			budgeted.WriteString(line + "\n")
		} else {
			other.WriteString(line + "\n")
		}
	}

	month := full.StartDate.Format("January 2006")
	switch {
	case budgeted.Len() > 0:
		b.WriteString(components.ContentCard("Budgets · "+month, strings.TrimRight(budgeted.String(), "\n"), cw))
	case bs.Warning != "":
		b.WriteString(components.ContentCard("Budgets · "+month, warnStyle.Render(bs.Warning), cw))
	default:
		b.WriteString(components.ContentCard("Budgets · "+month,
			mutedStyle.Render("No budgets set. Add one with `cashcast budgets set <category> <limit>`."), cw))
	}

	if other.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Unbudgeted Spend", strings.TrimRight(other.String(), "\n"), cw))
	}
	return b.String()
}
