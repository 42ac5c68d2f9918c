// Package cmd implements the tripgate CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/client"
	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
)

var (
	flagConfig   string
	flagLedger   string
	flagDays     int
	flagUser     string
	flagRemote   string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:          "tripgate",
	Short:        "AI request router and quota enforcer",
	Long:         "Route trip-planning AI requests to the cheapest capable model and enforce per-user quotas.",
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLedger, "ledger", "", "Ledger database path")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 30, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID")
	rootCmd.PersistentFlags().StringVar(&flagRemote, "remote", "", "Query a running daemon at this address instead of the local ledger")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if flagLedger != "" {
		cfg.Ledger.Path = flagLedger
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger. Quiet one-shot commands only log
// warnings and above.
func newLogger(cfg config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if flagQuiet && flagLogLevel == "" {
		level = "warn"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Writer: os.Stderr,
	})
}

// openRuntime opens the local ledger-backed runtime.
func openRuntime(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*gateway.Runtime, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Opening ledger %s...\n", cfg.LedgerPath())
	}
	return gateway.Open(ctx, cfg, logger)
}

// backend answers the read-side queries shared by the local runtime and
// the daemon client.
type backend interface {
	UserStats(ctx context.Context, userID string, days int) (model.UserStats, error)
	TripStats(ctx context.Context, tripID string) (model.TripStats, error)
	PeekQuota(ctx context.Context, userID, callerTier string) (quota.Decision, error)
}

// withBackend runs fn against the daemon when --remote is set and against
// the local ledger otherwise.
func withBackend(fn func(ctx context.Context, b backend) error) error {
	if flagRemote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return fn(ctx, client.New(flagRemote))
	}
	return withRuntime(func(ctx context.Context, rt *gateway.Runtime) error {
		return fn(ctx, rt)
	})
}

// withRuntime runs fn against the local ledger.
func withRuntime(fn func(ctx context.Context, rt *gateway.Runtime) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// One-shot reads never reserve Redis slots.
	cfg.Quota.Strict = false
	rt, err := openRuntime(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = rt.Close(closeCtx)
	}()
	return fn(ctx, rt)
}

// errLocalOnly is returned by reports the daemon API does not serve.
var errLocalOnly = errors.New("this report reads the local ledger and does not support --remote")

func requireUser() error {
	if flagUser == "" {
		return errors.New("--user is required")
	}
	return nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}
