package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	history := "all"
	if cfg.General.HistoryMonths > 0 {
		history = fmt.Sprintf("%d months", cfg.General.HistoryMonths)
	}
	fmt.Printf("    History:          %s\n", history)
	fmt.Printf("    Forecast window:  %d month(s)\n", cfg.General.ForecastMonths)
	fmt.Printf("    Include today:    %v\n", cfg.General.IncludeToday)
	fmt.Printf("    Monte Carlo runs: %d\n", cfg.General.MonteCarloRuns)
	if cfg.General.Seed != 0 {
		fmt.Printf("    Seed:             %d\n", cfg.General.Seed)
	}
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Driver: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == "postgres" {
		fmt.Printf("    DSN:    %s\n", maskDSN(cfg.Storage.DSN))
	} else {
		fmt.Printf("    Path:   %s\n", storageLabel(cfg.Storage))
	}
	fmt.Println()

	fmt.Println("  [Forecast]")
	if overrides := tuningOverrides(cfg.Forecast); len(overrides) > 0 {
		for _, line := range overrides {
			fmt.Printf("    %s\n", line)
		}
	} else {
		fmt.Println("    stock tuning")
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    TTL: %ds\n", cfg.Cache.TTLSeconds)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Schedule: %s\n", cfg.Daemon.RefreshCron)
	fmt.Println()

	fmt.Println("  [Notify]")
	n := cfg.Notify
	if n.Enabled() {
		fmt.Printf("    SMTP:       %s:%d\n", n.SMTPHost, n.SMTPPort)
		fmt.Printf("    From:       %s\n", n.From)
		fmt.Printf("    Recipients: %s\n", strings.Join(n.Recipients, ", "))
		if n.Username != "" {
			fmt.Printf("    Username:   %s\n", n.Username)
		}
		if n.Password != "" {
			fmt.Printf("    Password:   %s\n", maskSecret(n.Password))
		}
	} else {
		fmt.Println("    Budget alerts: not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:    %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Currency: %s\n", cfg.Appearance.Currency)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  Run `cashcast setup` to reconfigure.")
	return nil
}

// tuningOverrides lists the [forecast] keys whose values differ from the
// stock tuning, as TOML lines.
func tuningOverrides(t config.Tuning) []string {
	var got, stock bytes.Buffer
	if err := toml.NewEncoder(&got).Encode(t); err != nil {
		return nil
	}
	if err := toml.NewEncoder(&stock).Encode(config.DefaultTuning()); err != nil {
		return nil
	}
	defaults := make(map[string]bool)
	for _, line := range strings.Split(stock.String(), "\n") {
		defaults[line] = true
	}
	var out []string
	for _, line := range strings.Split(got.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" && !defaults[line] {
			out = append(out, line)
		}
	}
	return out
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:2] + strings.Repeat("*", 6) + s[len(s)-2:]
	}
	return "****"
}

// maskDSN hides the password in a postgres URL or key=value DSN.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "not set"
	}
	if i := strings.Index(dsn, "://"); i >= 0 {
		rest := dsn[i+3:]
		if at := strings.Index(rest, "@"); at >= 0 {
			if colon := strings.Index(rest[:at], ":"); colon >= 0 {
				return dsn[:i+3] + rest[:colon] + ":****" + rest[at:]
			}
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
