package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/client"
	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/tui"
	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

var (
	flagWatchTier     string
	flagWatchInterval time.Duration
	flagWatchNoAuto   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of one user's usage and quota",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&flagWatchTier, "tier", "t", config.CallerFree, "Caller tier used for quota display")
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 10*time.Second, "Refresh interval")
	watchCmd.Flags().BoolVar(&flagWatchNoAuto, "no-auto-refresh", false, "Only refresh on demand")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	profile := termenv.NewOutput(cmd.OutOrStdout()).Profile
	theme.Active = theme.ForProfile(cfg.Appearance.Theme, profile)
	lipgloss.SetColorProfile(profile)

	days := flagDays
	if !cmd.Flags().Changed("days") {
		days = 7
	}
	opts := tui.Options{
		UserID:          flagUser,
		CallerTier:      flagWatchTier,
		Days:            days,
		RefreshInterval: flagWatchInterval,
		AutoRefresh:     !flagWatchNoAuto,
	}

	var src tui.Source
	if flagRemote != "" {
		src = client.New(flagRemote)
		opts.SourceName = flagRemote
	} else {
		// The dashboard only peeks, so it never needs Redis.
		cfg.Quota.Strict = false
		flagQuiet = true
		rt, err := openRuntime(context.Background(), cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = rt.Close(ctx)
		}()
		src = rt
		opts.SourceName = cfg.LedgerPath()
	}

	p := tea.NewProgram(tui.NewApp(src, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
