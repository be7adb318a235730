package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Monte Carlo worst, median and best cash-flow envelopes",
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

var scenarioOrder = []struct {
	key   string
	label string
}{
	{forecast.ScenarioP10, "Worst (P10)"},
	{forecast.ScenarioP50, "Median (P50)"},
	{forecast.ScenarioBase, "Expected"},
	{forecast.ScenarioP90, "Best (P90)"},
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	full, err := loadForecast(cmd)
	if err != nil || full == nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(windowTitle("SCENARIOS", full.StartDate, full.EndDate)))
	fmt.Println()

	if full.MonteCarlo.NumSimulations == 0 {
		fmt.Println(cli.Muted("  Simulation disabled (--runs 0); showing the expected scenario only."))
		fmt.Println()
	}

	rows := make([][]string, 0, len(scenarioOrder))
	for _, s := range scenarioOrder {
		sc := full.Scenarios[s.key]
		if sc == nil {
			continue
		}
		rows = append(rows, []string{
			s.label,
			cli.FormatMoney(sc.Totals.Income),
			cli.FormatMoney(sc.Totals.Expenses),
			cli.FormatMoney(sc.Totals.Investments),
			cli.RenderMoney(sc.Totals.Net),
			cli.RenderSparkline(cumulativeSeries(sc)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Scenario", "Income", "Expenses", "Invest", "Net", "Running balance"},
		Rows:    rows,
	}))

	if n := full.MonteCarlo.NumSimulations; n > 0 {
		fmt.Printf("  %s simulated runs", cli.FormatNumber(int64(n)))
		if flagSeed != 0 {
			fmt.Printf(", seed %d", flagSeed)
		}
		fmt.Println()
	}
	return nil
}

func cumulativeSeries(sc *model.ScenarioResult) []float64 {
	out := make([]float64, len(sc.Days))
	for i, d := range sc.Days {
		out[i] = d.Cumulative
	}
	return out
}
