package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/model"
)

var (
	flagPatternType  string
	flagPatternLimit int
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Recurring transaction patterns found in history",
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().StringVarP(&flagPatternType, "type", "t", "", "Only show one class: daily, weekly, monthly or sporadic")
	patternsCmd.Flags().IntVar(&flagPatternLimit, "limit", 0, "Show at most this many patterns")
	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	var only *model.PatternType
	if flagPatternType != "" {
		var pt model.PatternType
		if err := pt.UnmarshalText([]byte(strings.ToLower(flagPatternType))); err != nil {
			return err
		}
		only = &pt
	}

	full, err := loadForecast(cmd)
	if err != nil || full == nil {
		return err
	}

	patterns := model.SortedPatterns(full.Patterns)
	if only != nil {
		n := 0
		for _, p := range patterns {
			if p.PatternType == *only {
				patterns[n] = p
				n++
			}
		}
		patterns = patterns[:n]
	}
	if flagPatternLimit > 0 && len(patterns) > flagPatternLimit {
		patterns = patterns[:flagPatternLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PATTERNS  %d found", len(full.Patterns))))
	fmt.Println()

	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		flags := ""
		if p.TailOnly {
			flags = "tail"
		}
		rows = append(rows, []string{
			p.TransactionName,
			p.CategoryName,
			p.CategoryType.String(),
			p.PatternType.String(),
			cli.FormatMoney(p.AvgAmount),
			cli.FormatRate(p.AvgOccurrencesPerMonth),
			cli.FormatPatternDays(p),
			fmt.Sprintf("%d", p.Occurrences),
			flags,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Name", "Category", "Kind", "Class", "Avg", "Rate", "Days", "Seen", ""},
		Rows:     rows,
		LeftCols: 4,
	}))

	if len(full.Skipped) > 0 {
		skipped := make([][]string, 0, len(full.Skipped))
		for _, s := range full.Skipped {
			skipped = append(skipped, []string{s.Name, strings.ReplaceAll(s.Reason, "_", " "), fmt.Sprintf("%d", s.Occurrences)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Excluded",
			Headers:  []string{"Name", "Reason", "Seen"},
			Rows:     skipped,
			LeftCols: 2,
		}))
	}
	return nil
}
