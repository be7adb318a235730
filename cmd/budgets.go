package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/store"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Month-end budget outlook per category",
	RunE:  runBudgets,
}

var budgetsSetCmd = &cobra.Command{
	Use:   "set <category> <limit>",
	Short: "Set a monthly budget for a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetsSet,
}

var budgetsRmCmd = &cobra.Command{
	Use:     "rm <category>",
	Aliases: []string{"remove", "delete"},
	Short:   "Deactivate a category's budget",
	Args:    cobra.ExactArgs(1),
	RunE:    runBudgetsRm,
}

func init() {
	budgetsCmd.AddCommand(budgetsSetCmd)
	budgetsCmd.AddCommand(budgetsRmCmd)
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgets(cmd *cobra.Command, _ []string) error {
	full, err := loadForecast(cmd)
	if err != nil || full == nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET OUTLOOK  " + full.StartDate.Format("January 2006")))
	fmt.Println()

	if len(full.BudgetOutlook) == 0 {
		fmt.Println("  No expense categories expected this month.")
		fmt.Println("  Set a budget with: cashcast budgets set <category> <limit>")
		return nil
	}

	rows := make([][]string, 0, len(full.BudgetOutlook))
	for _, r := range full.BudgetOutlook {
		limit, bar := cli.Muted("none"), ""
		if r.Limit != nil {
			limit = cli.FormatMoney(*r.Limit)
			bar = cli.RenderUsageBar(r.ProjectedTotal, *r.Limit, 12, 0.8)
		}
		hit := ""
		if r.NextLikelyHitDate != nil {
			hit = cli.FormatDate(*r.NextLikelyHitDate)
		}
		overrun := ""
		if r.ProjectedOverrun > 0 {
			overrun = cli.FormatMoney(r.ProjectedOverrun)
		}
		rows = append(rows, []string{
			r.CategoryName,
			limit,
			cli.FormatMoney(r.Spent),
			cli.FormatMoney(r.ProjectedTotal),
			overrun,
			hit,
			cli.RenderStatus(r.Status),
			bar,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Limit", "Spent", "Projected", "Overrun", "Hits limit", "Status", "Usage"},
		Rows:    rows,
	}))

	s := full.BudgetSummary
	fmt.Printf("  %d exceeded, %d at risk, %d on track", s.Exceeded, s.AtRisk, s.OnTrack)
	if s.TotalProjectedOverrun > 0 {
		fmt.Printf(", projected overrun %s", cli.FormatMoney(s.TotalProjectedOverrun))
	}
	fmt.Println()
	if s.Warning != "" {
		fmt.Println(cli.Warn("  Budget data unavailable: " + s.Warning))
	}
	return nil
}

func runBudgetsSet(cmd *cobra.Command, args []string) error {
	limit, err := strconv.ParseFloat(args[1], 64)
	if err != nil || limit <= 0 {
		return fmt.Errorf("invalid budget limit %q: must be a positive number", args[1])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetBudget(cmd.Context(), args[0], limit); err != nil {
		if errors.Is(err, store.ErrUnknownCategory) {
			return fmt.Errorf("no category named %q; run `cashcast history --categories` to list them", args[0])
		}
		return err
	}
	a.log.WithField("category", args[0]).Infof("budget set to %.2f", limit)
	fmt.Printf("  Budget for %s set to %s per month\n", args[0], cli.FormatMoney(limit))
	return nil
}

func runBudgetsRm(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteBudget(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, store.ErrUnknownCategory) {
			return fmt.Errorf("no category named %q", args[0])
		}
		return err
	}
	fmt.Printf("  Budget for %s removed\n", args[0])
	return nil
}
