package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

// SetupValues holds the answers collected by the first-run form.
type SetupValues struct {
	Theme          string
	Currency       string
	HistoryMonths  int
	ForecastMonths int
	MonteCarloRuns int
	DBPath         string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	return SetupValues{
		Theme:          cfg.Appearance.Theme,
		Currency:       cfg.Appearance.Currency,
		HistoryMonths:  cfg.General.HistoryMonths,
		ForecastMonths: cfg.General.ForecastMonths,
		MonteCarloRuns: cfg.General.MonteCarloRuns,
		DBPath:         dbPath,
	}
}

// Apply copies the answers onto cfg. The database path only applies to the
// sqlite driver.
func (v SetupValues) Apply(cfg *config.Config) {
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	if c := strings.TrimSpace(v.Currency); c != "" {
		cfg.Appearance.Currency = c
	}
	cfg.General.HistoryMonths = v.HistoryMonths
	if v.ForecastMonths > 0 {
		cfg.General.ForecastMonths = v.ForecastMonths
	}
	cfg.General.MonteCarloRuns = v.MonteCarloRuns
	if p := strings.TrimSpace(v.DBPath); p != "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.Path = p
	}
}

// ApplyDisplay activates the chosen theme and currency for this process.
func (v SetupValues) ApplyDisplay() {
	theme.SetActive(v.Theme)
	if c := strings.TrimSpace(v.Currency); c != "" {
		cli.Currency = c
	}
}

// NewSetupForm builds the first-run wizard. txnCount is shown in the intro
// note; pass -1 when the store could not be read.
func NewSetupForm(txnCount int, vals *SetupValues) *huh.Form {
	intro := "No transactions imported yet. Run `cashcast import <dir>` after setup."
	switch {
	case txnCount < 0:
		intro = "The transaction store could not be read; check the database path below."
	case txnCount > 0:
		intro = fmt.Sprintf("Found %s transactions.", cli.FormatNumber(int64(txnCount)))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cashcast").
				Description(intro+"\nA few settings and you are ready to forecast."),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewInput().
				Title("Currency symbol").
				Placeholder("$").
				Value(&vals.Currency).
				Validate(validateCurrency),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("History used for patterns").
				Options(
					huh.NewOption("3 months", 3),
					huh.NewOption("6 months", 6),
					huh.NewOption("12 months", 12),
					huh.NewOption("24 months", 24),
					huh.NewOption("All history", 0),
				).
				Value(&vals.HistoryMonths),
			huh.NewSelect[int]().
				Title("Default forecast window").
				Options(
					huh.NewOption("1 month", 1),
					huh.NewOption("2 months", 2),
					huh.NewOption("3 months", 3),
					huh.NewOption("6 months", 6),
				).
				Value(&vals.ForecastMonths),
			huh.NewSelect[int]().
				Title("Monte Carlo runs").
				Description("More runs give smoother percentiles at the cost of speed.").
				Options(
					huh.NewOption("Off", 0),
					huh.NewOption("200", 200),
					huh.NewOption("500", 500),
					huh.NewOption("1000", 1000),
				).
				Value(&vals.MonteCarloRuns),
			huh.NewInput().
				Title("SQLite database").
				Value(&vals.DBPath),
		),
	).WithShowHelp(true)
}

func validateCurrency(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("currency symbol is required")
	}
	if len([]rune(s)) > 4 {
		return errors.New("use at most 4 characters")
	}
	return nil
}
