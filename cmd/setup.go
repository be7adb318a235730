package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/store"
	"github.com/theirongolddev/cashcast/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	count := -1
	if st, err := store.OpenConfig(cfg.Storage); err == nil {
		if n, err := st.TransactionCount(cmd.Context()); err == nil {
			count = n
		}
		if err := st.Close(); err != nil {
			logger.WithError(err).Warn("closing store")
		}
	} else {
		logger.WithError(err).Debug("store not readable during setup")
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(count, &vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	vals.Apply(&cfg)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `cashcast setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
