// Package cmd implements the cashcast CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/logging"
	"github.com/theirongolddev/cashcast/internal/store"
)

var (
	flagDB      string
	flagDriver  string
	flagDSN     string
	flagNoCache bool
	flagQuiet   bool
	flagVerbose bool

	flagDays         int
	flagMonths       int
	flagIncludeToday bool
	flagHistory      int
	flagRuns         int
	flagSeed         int64
)

var rootCmd = &cobra.Command{
	Use:   "cashcast",
	Short: "Cash-flow forecasting CLI",
	Long:  "Forecast daily cash flow from your transaction history: recurring patterns, Monte Carlo scenarios and budget outlook.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "SQLite database path (default: XDG data dir)")
	pf.StringVar(&flagDriver, "driver", "", "Storage driver: sqlite or postgres")
	pf.StringVar(&flagDSN, "dsn", "", "Postgres connection string")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Bypass the forecast result cache")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	pf.IntVarP(&flagDays, "days", "n", 0, "Forecast window in days (overrides --months)")
	pf.IntVar(&flagMonths, "months", 0, "Forecast window in calendar months")
	pf.BoolVar(&flagIncludeToday, "include-today", true, "Start the window today instead of tomorrow")
	pf.IntVar(&flagHistory, "history", 0, "History lookback in months (0 = all)")
	pf.IntVar(&flagRuns, "runs", 0, "Monte Carlo runs (0 disables simulation)")
	pf.Int64Var(&flagSeed, "seed", 0, "Random seed for reproducible scenarios")
}

// app bundles the collaborators every command needs.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	store  *store.Store
	engine *forecast.Forecaster
}

// loadConfig reads the config file and applies the shared CLI flags.
func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if flagDriver != "" {
		cfg.Storage.Driver = flagDriver
	}
	if flagDB != "" {
		cfg.Storage.Path = flagDB
	}
	if flagDSN != "" {
		cfg.Storage.DSN = flagDSN
		if flagDriver == "" {
			cfg.Storage.Driver = "postgres"
		}
	}
	switch {
	case flagVerbose:
		cfg.Log.Level = "debug"
	case flagQuiet:
		cfg.Log.Level = "error"
	}
	if cfg.Appearance.Currency != "" {
		cli.Currency = cfg.Appearance.Currency
	}
	return cfg, logging.New(cfg.Log, os.Stderr), nil
}

// openApp loads config, opens the store and builds the forecaster.
func openApp() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.OpenConfig(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debugf("storage driver %q", cfg.Storage.Driver)
	return &app{
		cfg:    cfg,
		log:    logger,
		store:  st,
		engine: forecast.New(st, forecast.ConfigFrom(cfg, logger)),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("closing store")
	}
}

// forecastOptions maps the window flags onto request options. Flags left at
// their defaults defer to the config.
func forecastOptions(cmd *cobra.Command) forecast.Options {
	o := forecast.Options{Seed: flagSeed, NoCache: flagNoCache}
	flags := cmd.Flags()
	if flags.Changed("days") {
		o.ForecastDays = forecast.Ptr(flagDays)
	}
	if flagMonths > 0 {
		o.ForecastMonths = flagMonths
	}
	if flags.Changed("include-today") {
		o.IncludeToday = forecast.Ptr(flagIncludeToday)
	}
	if flags.Changed("history") {
		o.HistoryMonths = forecast.Ptr(flagHistory)
	}
	if flags.Changed("runs") {
		o.MonteCarloRuns = forecast.Ptr(flagRuns)
	}
	return o
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// noData prints the empty-history hint shared by forecast commands.
func noData() {
	fmt.Println("\n  No transactions found.")
	fmt.Println("  Import bank exports first: cashcast import <dir>")
}

func windowTitle(prefix string, start, end time.Time) string {
	if end.Before(start) {
		return strings.ToUpper(prefix) + "  (empty window)"
	}
	return strings.ToUpper(prefix) + "  " + start.Format("02 Jan") + " - " + end.Format("02 Jan 2006")
}
