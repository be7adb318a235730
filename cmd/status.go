package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/pipeline"
)

var flagStatusCategory string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Month-to-date spend and linear burn projection",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&flagStatusCategory, "category", "c", "", "Filter to category (substring match)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	today := model.DateOf(time.Now())
	month := model.MonthStart(today)

	txns, err := a.store.MonthTransactions(ctx, month)
	if err != nil {
		return err
	}
	txns = pipeline.FilterByCategory(txns, flagStatusCategory)

	budgets, err := a.store.ActiveBudgets(ctx, month)
	if err != nil {
		a.log.WithError(err).Warn("loading budgets failed")
	}
	var limit *float64
	total := 0.0
	for _, b := range budgets {
		if flagStatusCategory != "" && !strings.Contains(strings.ToLower(b.CategoryName), strings.ToLower(flagStatusCategory)) {
			continue
		}
		total += b.Limit
		limit = &total
	}

	stats := pipeline.ComputeBudgetProjection(txns, limit, today)

	fmt.Println()
	fmt.Println(cli.RenderTitle("MONTH TO DATE  " + today.Format("January 2006")))
	fmt.Println()

	rows := [][]string{
		{"Spent so far", cli.FormatMoney(stats.CurrentSpend)},
		{"Daily burn", cli.FormatMoney(stats.DailyBurnRate) + "/day"},
		{"Projected month", cli.FormatMoney(stats.ProjectedMonthly)},
		{"Days elapsed", fmt.Sprintf("%d", stats.DaysElapsed)},
		{"Days remaining", fmt.Sprintf("%d", stats.DaysRemaining)},
	}
	if stats.MonthlyLimit != nil {
		rows = append(rows,
			[]string{"---"},
			[]string{"Budgeted", cli.FormatMoney(*stats.MonthlyLimit)},
			[]string{"Used", cli.RenderUsageBar(stats.CurrentSpend, *stats.MonthlyLimit, 20, a.cfg.Forecast.AtRiskThreshold)},
			[]string{"Projected vs budget", cli.FormatDelta(stats.ProjectedMonthly, *stats.MonthlyLimit)},
		)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	if len(budgets) > 0 && flagStatusCategory == "" {
		fmt.Println(cli.Muted("  Linear projection; see `cashcast budgets` for the pattern-based outlook."))
	}
	return nil
}
