package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

var flagShowAll bool

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Daily cash-flow forecast table",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().BoolVarP(&flagShowAll, "all", "a", false, "Include days with no expected activity")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	full, err := loadForecast(cmd)
	if err != nil || full == nil {
		return err
	}
	if len(full.Days) == 0 {
		fmt.Println("\n  Forecast window is empty.")
		return nil
	}

	cumulative := make(map[string]float64, len(full.Days))
	if base := full.Scenarios[forecast.ScenarioBase]; base != nil {
		for _, d := range base.Days {
			cumulative[d.Date.Format(model.DateLayout)] = d.Cumulative
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(windowTitle("DAILY FORECAST", full.StartDate, full.EndDate)))
	fmt.Println()

	rows := make([][]string, 0, len(full.Days))
	for _, d := range full.Days {
		if !flagShowAll && len(d.TopPredictions) == 0 {
			continue
		}
		rows = append(rows, []string{
			cli.FormatDate(d.Date),
			topNames(d.TopPredictions, 3),
			cli.FormatMoney(d.ExpectedIncome),
			cli.FormatMoney(d.ExpectedExpenses),
			cli.FormatMoney(d.ExpectedInvestments),
			cli.RenderMoney(d.NetCashFlow),
			cli.FormatMoney(cumulative[d.Date.Format(model.DateLayout)]),
		})
	}

	t := full.Totals
	rows = append(rows, []string{"---"}, []string{
		"Total", "",
		cli.FormatMoney(t.Income),
		cli.FormatMoney(t.Expenses),
		cli.FormatMoney(t.Investments),
		cli.RenderMoney(t.Net),
		"",
	})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Date", "Likely", "Income", "Expenses", "Invest", "Net", "Running"},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

// topNames lists the highest-weighted predictions of a day, marking chosen
// monthly occurrences with an asterisk.
func topNames(preds []model.Prediction, n int) string {
	if len(preds) > n {
		preds = preds[:n]
	}
	names := make([]string, 0, len(preds))
	for _, p := range preds {
		name := p.Name
		if len(name) > 18 {
			name = name[:17] + "…"
		}
		if p.IsChosenOccurrence {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
