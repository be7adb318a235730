package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/tui/components"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

func (a App) renderDailyTab(cw int) string {
	t := theme.Active
	full := a.full
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	incomeStyle := lipgloss.NewStyle().Foreground(t.Income).Background(t.Surface)
	expenseStyle := lipgloss.NewStyle().Foreground(t.Expense).Background(t.Surface)

	running := make([]float64, len(full.Days))
	if base := full.Scenarios[forecast.ScenarioBase]; base != nil && len(base.Days) == len(full.Days) {
		for i, d := range base.Days {
			running[i] = d.Cumulative
		}
	}

	const dateW, moneyW = 10, 11
	compact := a.isCompactLayout()
	fixed := dateW + 3*moneyW + 3
	if !compact {
		fixed += 2 * (moneyW + 1)
	}
	nameW := max(innerW-fixed-1, 10)

	var body strings.Builder
	if compact {
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %*s %*s %*s",
			dateW, "Date", nameW, "Likely", moneyW, "Income", moneyW, "Expenses", moneyW, "Net")))
	} else {
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %*s %*s %*s %*s %*s",
			dateW, "Date", nameW, "Likely", moneyW, "Income", moneyW, "Expenses", moneyW, "Invest", moneyW, "Net", moneyW, "Running")))
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	for i, d := range full.Days {
		likely := predictionNames(d.TopPredictions)
		nameStyle := rowStyle
		if likely == "" {
			likely = "·"
			nameStyle = dimStyle
		}
		netStyle := lipgloss.NewStyle().Foreground(t.Flow(d.NetCashFlow)).Background(t.Surface)

		body.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", dateW, cli.FormatDate(d.Date))))
		body.WriteString(nameStyle.Render(fmt.Sprintf(" %-*s", nameW, truncStr(likely, nameW))))
		body.WriteString(incomeStyle.Render(fmt.Sprintf(" %*s", moneyW, moneyOrDot(d.ExpectedIncome))))
		body.WriteString(expenseStyle.Render(fmt.Sprintf(" %*s", moneyW, moneyOrDot(d.ExpectedExpenses))))
		if !compact {
			body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", moneyW, moneyOrDot(d.ExpectedInvestments))))
		}
		body.WriteString(netStyle.Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(d.NetCashFlow))))
		if !compact {
			body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(running[i]))))
		}
		body.WriteString("\n")
	}

	tot := full.Totals
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s", dateW, "Total", nameW, "")))
	body.WriteString(incomeStyle.Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(tot.Income))))
	body.WriteString(expenseStyle.Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(tot.Expenses))))
	if !compact {
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(tot.Investments))))
	}
	body.WriteString(lipgloss.NewStyle().Foreground(t.Flow(tot.Net)).Background(t.Surface).Bold(true).
		Render(fmt.Sprintf(" %*s", moneyW, cli.FormatMoney(tot.Net))))

	title := fmt.Sprintf("Daily Forecast (%d days)", len(full.Days))
	return components.ContentCard(title, body.String(), cw)
}

// predictionNames joins the day's top predictions, starring occurrences the
// monthly resolver placed on this day.
func predictionNames(preds []model.Prediction) string {
	names := make([]string, 0, len(preds))
	for _, p := range preds {
		name := p.Name
		if p.IsChosenOccurrence {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func moneyOrDot(v float64) string {
	if v == 0 {
		return "·"
	}
	return cli.FormatMoney(v)
}
