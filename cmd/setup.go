package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	path := configPath()
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  Welcome to tripgate!")
	fmt.Println()

	cfg, err = tui.RunSetup(cfg)
	if errors.Is(err, tui.ErrSetupAborted) {
		fmt.Println("  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.SaveFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `tripgate setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
