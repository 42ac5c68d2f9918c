package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
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
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("  %s\n", cli.RenderWarning(err.Error()))
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Printf("    Read timeout:  %s\n", cfg.Server.ReadTimeout.Duration)
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Ledger: %s\n", cfg.LedgerPath())
	fmt.Printf("    Spool:  %s\n", cfg.SpoolPath())
	fmt.Printf("    Queue:  %d (workers %d, attempts %d)\n",
		cfg.Recorder.QueueSize, cfg.Recorder.Workers, cfg.Recorder.MaxAttempts)
	fmt.Printf("    Replay: %s\n", cfg.Recorder.ReplaySchedule)
	fmt.Println()

	fmt.Println("  [Quota]")
	fmt.Printf("    Day timezone: %s\n", cfg.Quota.DayTimezone)
	fmt.Printf("    Strict mode:  %v\n", cfg.Quota.Strict)
	tiers := make([]string, 0, len(cfg.Quota.Tiers))
	for name := range cfg.Quota.Tiers {
		tiers = append(tiers, name)
	}
	sort.Strings(tiers)
	for _, name := range tiers {
		l := cfg.Quota.Tiers[name]
		fmt.Printf("    %-8s %d/min  %d/hour  %s tokens/day  cooldown %s\n",
			name+":", l.RequestsPerMinute, l.RequestsPerHour,
			cli.FormatTokens(l.TokensPerDay), l.Cooldown.Duration)
	}
	fmt.Println()

	fmt.Println("  [Redis]")
	if cfg.Redis.Addr != "" {
		fmt.Printf("    Address:  %s (db %d)\n", cfg.Redis.Addr, cfg.Redis.DB)
		if cfg.Redis.Password != "" {
			fmt.Printf("    Password: %s\n", maskSecret(cfg.Redis.Password))
		}
		fmt.Printf("    Prefix:   %s\n", cfg.Redis.Prefix)
	} else {
		fmt.Println("    Not configured")
	}
	fmt.Println()

	fmt.Println("  [Routing]")
	fmt.Printf("    Output/input ratio: %.2f\n", cfg.Routing.OutputTokenRatio)
	ids := make([]string, 0, len(cfg.Catalog))
	for _, e := range cfg.Catalog {
		ids = append(ids, e.ID+" ("+e.Tier+")")
	}
	fmt.Printf("    Catalog: %s\n", strings.Join(ids, ", "))
	fmt.Printf("    Actions: %d mapped\n", len(cfg.Actions))
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `tripgate setup` to reconfigure.")
	return nil
}

func maskSecret(s string) string {
	if len(s) > 16 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "****"
}
