package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/model"
	"github.com/theirongolddev/cashcast/internal/pipeline"
)

var (
	flagHistoryMonth    string
	flagHistoryCategory string
	flagListCategories  bool
	flagRestore         bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Realized monthly cash flow and category spend",
	RunE:  runHistory,
}

var excludeCmd = &cobra.Command{
	Use:   "exclude <identifier>",
	Short: "Exclude a transaction from forecasting (or restore it with --restore)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExclude,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryMonth, "month", "", "Show category spend for a month (YYYY-MM)")
	historyCmd.Flags().StringVarP(&flagHistoryCategory, "category", "c", "", "Filter to category (substring match)")
	historyCmd.Flags().BoolVar(&flagListCategories, "categories", false, "List category definitions")
	excludeCmd.Flags().BoolVar(&flagRestore, "restore", false, "Include the transaction again")
	historyCmd.AddCommand(excludeCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if flagListCategories {
		cats, err := a.store.Categories(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(cats))
		for _, c := range cats {
			rows = append(rows, []string{c.Name, c.Type.String(), c.Icon})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Categories",
			Headers:  []string{"Name", "Type", "Icon"},
			Rows:     rows,
			LeftCols: 3,
		}))
		return nil
	}

	var since *time.Time
	if flagHistory > 0 {
		s := model.MonthStart(time.Now()).AddDate(0, -flagHistory, 0)
		since = &s
	}
	txns, err := a.store.Transactions(ctx, since)
	if err != nil {
		return err
	}
	txns = pipeline.FilterByCategory(txns, flagHistoryCategory)
	if len(txns) == 0 {
		noData()
		return nil
	}

	if flagHistoryMonth != "" {
		if _, err := time.Parse(model.MonthLayout, flagHistoryMonth); err != nil {
			return fmt.Errorf("invalid --month %q: want YYYY-MM", flagHistoryMonth)
		}
		return renderCategoryMonth(txns, flagHistoryMonth)
	}

	months := pipeline.AggregateMonths(txns)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HISTORY  %d months", len(months))))
	fmt.Println()

	nets := make([]float64, len(months))
	rows := make([][]string, 0, len(months))
	for i, m := range months {
		nets[len(months)-1-i] = m.Net
		rows = append(rows, []string{
			m.Month,
			cli.FormatMoney(m.Income),
			cli.FormatMoney(m.Expenses),
			cli.FormatMoney(m.Investments),
			cli.RenderMoney(m.Net),
			cli.FormatNumber(int64(m.Transactions)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Income", "Expenses", "Invest", "Net", "Txns"},
		Rows:    rows,
	}))
	fmt.Printf("  Net trend  %s\n", cli.RenderSparkline(nets))
	return nil
}

func renderCategoryMonth(txns []model.Transaction, month string) error {
	cats := pipeline.AggregateCategories(txns, month)
	if len(cats) == 0 {
		fmt.Printf("\n  No transactions in %s.\n", month)
		return nil
	}

	maxTotal := 0.0
	for _, c := range cats {
		maxTotal = max(maxTotal, c.Total)
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			c.CategoryName,
			c.CategoryType.String(),
			cli.FormatMoney(c.Total),
			fmt.Sprintf("%.1f%%", c.SharePercent),
			fmt.Sprintf("%d", c.Count),
			cli.RenderHorizontalBar(c.Total, maxTotal, 20),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CATEGORIES  " + month))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Category", "Kind", "Total", "Share", "Txns", ""},
		Rows:     rows,
		LeftCols: 2,
	}))
	return nil
}

func runExclude(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.SetExcluded(cmd.Context(), args[0], !flagRestore); err != nil {
		return err
	}
	if flagRestore {
		fmt.Printf("  Restored %s\n", args[0])
	} else {
		fmt.Printf("  Excluded %s from forecasting\n", args[0])
	}
	return nil
}
