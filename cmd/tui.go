package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/tui"
	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Log lines on stderr would draw over the alt screen.
	logPath := filepath.Join(config.DataDir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err == nil {
		//nolint:gosec // log path is under the user's data dir
		if f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600); err == nil {
			defer func() { _ = f.Close() }()
			a.log.SetOutput(f)
		} else {
			a.log.SetOutput(io.Discard)
		}
	} else {
		a.log.SetOutput(io.Discard)
	}

	theme.SetActive(a.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	count, err := a.store.TransactionCount(cmd.Context())
	if err != nil {
		a.log.WithError(err).Warn("counting transactions")
		count = -1
	}

	app := tui.NewApp(a.engine, tui.Options{
		Config:    a.cfg,
		Forecast:  forecastOptions(cmd),
		NeedSetup: !config.Exists(),
		TxnCount:  count,
		Logger:    a.log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
