package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Forecast totals, scenarios and budget summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// loadForecast is the shared forecast path used by most commands. It returns
// a nil forecast when there is no history to analyze.
func loadForecast(cmd *cobra.Command) (*model.FullForecast, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	defer a.Close()

	progressf("  Forecasting...\n")
	full, err := a.engine.GetForecast(cmd.Context(), forecastOptions(cmd))
	if errors.Is(err, forecast.ErrNoTransactions) {
		noData()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return full, nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	full, err := loadForecast(cmd)
	if err != nil || full == nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(windowTitle("CASH FLOW FORECAST", full.StartDate, full.EndDate)))
	fmt.Println()

	t := full.Totals
	rows := [][]string{
		{"Expected income", cli.RenderMoney(t.Income)},
		{"Expected expenses", cli.RenderMoney(-t.Expenses)},
		{"Expected investments", cli.RenderMoney(-t.Investments)},
		{"Expected net", cli.RenderMoney(t.Net)},
		{"---"},
	}

	if mc := full.MonteCarlo; mc.Worst != nil {
		rows = append(rows,
			[]string{"Net P10 (worst)", cli.RenderMoney(mc.Worst.Totals.Net)},
			[]string{"Net P50 (median)", cli.RenderMoney(mc.Median.Totals.Net)},
			[]string{"Net P90 (best)", cli.RenderMoney(mc.Best.Totals.Net)},
			[]string{"Simulations", cli.FormatNumber(int64(mc.NumSimulations))},
			[]string{"---"},
		)
	}

	bs := full.BudgetSummary
	if bs.HasBudgetData || bs.Exceeded+bs.AtRisk > 0 {
		rows = append(rows,
			[]string{"Budgets exceeded", fmt.Sprintf("%d", bs.Exceeded)},
			[]string{"Budgets at risk", fmt.Sprintf("%d", bs.AtRisk)},
			[]string{"Budgets on track", fmt.Sprintf("%d", bs.OnTrack)},
			[]string{"Projected overrun", cli.FormatMoney(bs.TotalProjectedOverrun)},
			[]string{"---"},
		)
	}

	info := full.AnalysisInfo
	history := "all"
	if info.HistorySince != nil {
		history = "since " + info.HistorySince.Format(model.DateLayout)
	}
	rows = append(rows,
		[]string{"Patterns", fmt.Sprintf("%d (%d tail-only, %d skipped)", info.PatternsFound, info.TailOnlyPatterns, info.SkippedPatterns)},
		[]string{"Transactions analyzed", cli.FormatNumber(int64(info.TransactionsAnalyzed))},
		[]string{"History", history},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if info.UsedFullHistoryFallback {
		fmt.Fprintln(os.Stderr, cli.Warn("  No transactions in the history window; used all history."))
	}
	if bs.Warning != "" {
		fmt.Fprintln(os.Stderr, cli.Warn("  Budget data unavailable: "+bs.Warning))
	}
	return nil
}
