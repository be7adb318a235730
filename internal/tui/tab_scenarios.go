package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

var scenarioOrder = []struct {
	key   string
	label string
}{
	{forecast.ScenarioP10, "Worst (P10)"},
	{forecast.ScenarioP50, "Median (P50)"},
	{forecast.ScenarioBase, "Expected"},
	{forecast.ScenarioP90, "Best (P90)"},
}

func (a App) renderScenariosTab(cw int) string {
	t := theme.Active
	full := a.full
	mc := full.MonteCarlo
	var b strings.Builder

	metrics := make([]components.Metric, 0, len(scenarioOrder))
	for _, s := range scenarioOrder {
		sc := full.Scenarios[s.key]
		if sc == nil {
			continue
		}
		metrics = append(metrics, components.Metric{
			Label: s.label,
			Value: cli.FormatSignedMoney(sc.Totals.Net),
			Sub:   "out " + cli.FormatMoneyShort(sc.Totals.Expenses+sc.Totals.Investments),
			Color: t.Flow(sc.Totals.Net),
		})
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if mc.NumSimulations == 0 {
		b.WriteString(components.ContentCard("Monte Carlo",
			mutedStyle.Render("Simulation disabled; only the expected scenario is shown."), cw))
		b.WriteString("\n")
	}

	// Running balance per scenario.
	innerW := components.CardInnerWidth(cw)
	labelW := 14
	sparkW := max(innerW-labelW-13, 10)
	var rb strings.Builder
	for _, s := range scenarioOrder {
		sc := full.Scenarios[s.key]
		if sc == nil || len(sc.Days) == 0 {
			continue
		}
		series := resample(cumulative(sc), sparkW)
		rb.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", labelW, s.label)))
		rb.WriteString(components.Sparkline(series, t.Flow(sc.Totals.Net)))
		rb.WriteString(mutedStyle.Render(fmt.Sprintf(" %12s", cli.FormatMoney(sc.Days[len(sc.Days)-1].Cumulative))))
		rb.WriteString("\n")
	}
	if rb.Len() > 0 {
		b.WriteString(components.ContentCard("Running Balance", strings.TrimRight(rb.String(), "\n"), cw))
		b.WriteString("\n")
	}

	if len(mc.AllScenarios) > 0 {
		nets := make([]float64, len(mc.AllScenarios))
		for i, s := range mc.AllScenarios {
			nets[i] = s.Net
		}
		sort.Float64s(nets)
		body := components.Sparkline(resample(nets, sparkW+labelW), t.Accent) + "\n" +
			mutedStyle.Render(fmt.Sprintf("%s worst run · %s best run · %s runs",
				cli.FormatMoney(nets[0]), cli.FormatMoney(nets[len(nets)-1]),
				cli.FormatNumber(int64(mc.NumSimulations))))
		b.WriteString(components.ContentCard("Net Outcome Distribution (sorted runs)", body, cw))
	}
	return b.String()
}

func cumulative(sc *model.ScenarioResult) []float64 {
	out := make([]float64, len(sc.Days))
	for i, d := range sc.Days {
		out[i] = d.Cumulative
	}
	return out
}

// resample picks n evenly spaced points so long series fit a sparkline.
func resample(values []float64, n int) []float64 {
	if n < 2 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}
