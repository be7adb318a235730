package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/pipeline"
)

var (
	flagForceImport bool
	flagWorkers     int
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import CSV/JSONL bank exports from a directory",
	Long: "Scan a directory for *.csv and *.jsonl exports and load them into the database.\n" +
		"Unchanged files are skipped and files that disappeared are removed with their rows.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&flagForceImport, "force", "f", false, "Re-import files even when unchanged")
	importCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "Parser workers (default: GOMAXPROCS)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	progressf("  Scanning %s...\n", args[0])
	start := time.Now()

	res, err := pipeline.Import(cmd.Context(), args[0], a.store, pipeline.ImportOptions{
		Force:   flagForceImport,
		Workers: flagWorkers,
		Progress: func(current, total int) {
			if current%20 == 0 || current == total {
				progressf("\r  Parsing [%d/%d]", current, total)
			}
		},
	})
	if res != nil && res.Imported > 0 {
		progressf("\n")
	}
	if err != nil {
		return err
	}

	a.log.WithField("dir", args[0]).Infof("imported %d files (%d transactions) in %s",
		res.Imported, res.Transactions, time.Since(start).Round(time.Millisecond))

	if res.TotalFiles == 0 && res.Removed == 0 {
		fmt.Printf("\n  No *.csv or *.jsonl exports found in %s\n", args[0])
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Import",
		Headers: []string{"", "Count"},
		Rows: [][]string{
			{"Files found", cli.FormatNumber(int64(res.TotalFiles))},
			{"Accounts", cli.FormatNumber(int64(res.Accounts))},
			{"Imported", cli.FormatNumber(int64(res.Imported))},
			{"Unchanged", cli.FormatNumber(int64(res.Unchanged))},
			{"Removed", cli.FormatNumber(int64(res.Removed))},
			{"---"},
			{"Transactions", cli.FormatNumber(int64(res.Transactions))},
			{"Bad rows", cli.FormatNumber(int64(res.ParseErrors))},
		},
	}))

	if res.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be read\n", res.FileErrors)
		for _, f := range res.Failed {
			fmt.Fprintf(os.Stderr, "    %s\n", f)
		}
	}
	return nil
}
