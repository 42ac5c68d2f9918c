package tui

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// setupValues holds the form bindings; they are copied into a Config once
// the form completes.
type setupValues struct {
	addr      string
	timezone  string
	strict    bool
	redisAddr string
	logLevel  string
	theme     string
}

func valuesFrom(cfg config.Config) *setupValues {
	return &setupValues{
		addr:      cfg.Server.Addr,
		timezone:  cfg.Quota.DayTimezone,
		strict:    cfg.Quota.Strict,
		redisAddr: cfg.Redis.Addr,
		logLevel:  cfg.Log.Level,
		theme:     cfg.Appearance.Theme,
	}
}

func (v *setupValues) apply(cfg config.Config) config.Config {
	cfg.Server.Addr = strings.TrimSpace(v.addr)
	cfg.Quota.DayTimezone = strings.TrimSpace(v.timezone)
	cfg.Quota.Strict = v.strict
	cfg.Redis.Addr = strings.TrimSpace(v.redisAddr)
	cfg.Log.Level = v.logLevel
	cfg.Appearance.Theme = v.theme
	return cfg
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("expected host:port")
	}
	return nil
}

func validateTimezone(s string) error {
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown time zone")
	}
	return nil
}

func newSetupForm(v *setupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tripgate").
				Description("Routes AI requests to the right model and enforces per-user quotas.\nThese settings are saved to "+config.ConfigPath()+"."),
			huh.NewInput().
				Title("Daemon listen address").
				Value(&v.addr).
				Validate(validateAddr),
			huh.NewInput().
				Title("Quota day time zone").
				Description("Daily token limits reset at midnight in this zone.").
				Value(&v.timezone).
				Validate(validateTimezone),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable strict quota mode?").
				Description("Reserves request slots in Redis so concurrent instances cannot overshoot.").
				Value(&v.strict),
			huh.NewInput().
				Title("Redis address").
				Placeholder("127.0.0.1:6379").
				Value(&v.redisAddr).
				Validate(func(s string) error {
					if !v.strict && strings.TrimSpace(s) == "" {
						return nil
					}
					return validateAddr(s)
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&v.logLevel),
			huh.NewSelect[string]().
				Title("Dashboard theme").
				Options(themes...).
				Value(&v.theme),
		),
	)
}

// ErrSetupAborted is returned when the user cancels the setup form.
var ErrSetupAborted = errors.New("setup aborted")

// RunSetup walks the user through the main settings, starting from cfg,
// and returns the edited config. Nothing is saved.
func RunSetup(cfg config.Config) (config.Config, error) {
	v := valuesFrom(cfg)
	if err := newSetupForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, ErrSetupAborted
		}
		return cfg, fmt.Errorf("setup form: %w", err)
	}
	return v.apply(cfg), nil
}
