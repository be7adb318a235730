package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

const upcomingDays = 7

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	full := a.full
	tot := full.Totals
	var b strings.Builder

	// Row 1: window totals
	netSub := ""
	if p10, p90 := full.Scenarios[forecast.ScenarioP10], full.Scenarios[forecast.ScenarioP90]; p10 != nil && p90 != nil {
		netSub = fmt.Sprintf("P10 %s · P90 %s", cli.FormatMoneyShort(p10.Totals.Net), cli.FormatMoneyShort(p90.Totals.Net))
	}
	days := max(len(full.Days), 1)
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Income", Value: cli.FormatMoney(tot.Income), Sub: cli.FormatMoneyShort(tot.Income/float64(days)) + "/day", Color: t.Income},
		{Label: "Expenses", Value: cli.FormatMoney(tot.Expenses), Sub: cli.FormatMoneyShort(tot.Expenses/float64(days)) + "/day", Color: t.Expense},
		{Label: "Investments", Value: cli.FormatMoney(tot.Investments), Color: t.Investment},
		{Label: "Net", Value: cli.FormatSignedMoney(tot.Net), Sub: netSub, Color: t.Flow(tot.Net)},
	}, cw))
	b.WriteString("\n")

	// Row 2: daily net chart
	if len(full.Days) > 0 {
		vals := make([]float64, len(full.Days))
		for i, d := range full.Days {
			vals[i] = d.NetCashFlow
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			"Expected Daily Net",
			components.NetChart(vals, dayLabels(full.Days), components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: upcoming days + budget summary
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Next 7 Days", a.upcomingBody(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Budgets", a.budgetSummaryBody(components.CardInnerWidth(cw)), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Next 7 Days", a.upcomingBody(components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard("Budgets", a.budgetSummaryBody(components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}
	return b.String()
}

func (a App) upcomingBody(innerW int) string {
	t := theme.Active
	dateStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	amountW := 12
	nameW := max(innerW-10-amountW-2, 8)

	var b strings.Builder
	shown := 0
	for _, d := range a.full.Days {
		if shown == upcomingDays {
			break
		}
		shown++
		names := make([]string, 0, len(d.TopPredictions))
		for _, p := range d.TopPredictions {
			names = append(names, p.Name)
		}
		label := strings.Join(names, ", ")
		style := nameStyle
		if label == "" {
			label = "quiet day"
			style = dimStyle
		}
		amt := lipgloss.NewStyle().Foreground(t.Flow(d.NetCashFlow)).Background(t.Surface)

		b.WriteString(dateStyle.Render(fmt.Sprintf("%-10s", d.Date.Format("Mon 02 Jan"))))
		b.WriteString(style.Render(fmt.Sprintf(" %-*s ", nameW, truncStr(label, nameW))))
		b.WriteString(amt.Render(fmt.Sprintf("%*s", amountW, cli.FormatSignedMoney(d.NetCashFlow))))
		b.WriteString("\n")
	}
	if shown == 0 {
		return dimStyle.Render("Forecast window is empty.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a App) budgetSummaryBody(innerW int) string {
	t := theme.Active
	bs := a.full.BudgetSummary
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if !bs.HasBudgetData {
		msg := "No budgets set. Add one with `cashcast budgets set`."
		if bs.Warning != "" {
			msg = bs.Warning
		}
		return muted.Render(msg)
	}

	count := func(n int, label string, c lipgloss.Color) string {
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface).Bold(true).Render(fmt.Sprintf("%d", n)) +
			muted.Render(" "+label)
	}

	var b strings.Builder
	b.WriteString(count(bs.Exceeded, "exceeded  ", t.Exceeded))
	b.WriteString(count(bs.AtRisk, "at risk  ", t.AtRisk))
	b.WriteString(count(bs.OnTrack, "on track", t.OnTrack))
	b.WriteString("\n")
	if bs.TotalProjectedOverrun > 0 {
		b.WriteString(muted.Render("Projected overrun "))
		b.WriteString(lipgloss.NewStyle().Foreground(t.Exceeded).Background(t.Surface).Render(cli.FormatMoney(bs.TotalProjectedOverrun)))
		b.WriteString("\n")
	}

	// Worst rows first; the outlook is already ordered by status then risk.
	labelW := 14
	barW := max(innerW-labelW-2-5-24, 8)
	shown := 0
	for _, row := range a.full.BudgetOutlook {
		if !row.Budgeted || shown == upcomingDays {
			continue
		}
		b.WriteString("\n")
		b.WriteString(components.BudgetBar(row, labelW, barW, cli.FormatMoneyShort))
		shown++
	}
	return b.String()
}
