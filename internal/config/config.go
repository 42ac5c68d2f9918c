// Package config loads and saves tripgate's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // quota day boundaries need zone data on minimal hosts

	"github.com/BurntSushi/toml"
)

// Config holds all tripgate configuration.
type Config struct {
	Server     ServerConfig      `toml:"server"`
	Ledger     LedgerConfig      `toml:"ledger"`
	Recorder   RecorderConfig    `toml:"recorder"`
	Quota      QuotaConfig       `toml:"quota"`
	Routing    RoutingConfig     `toml:"routing"`
	Redis      RedisConfig       `toml:"redis"`
	Log        LogConfig         `toml:"log"`
	Appearance AppearanceConfig  `toml:"appearance"`
	Catalog    []CatalogEntry    `toml:"catalog,omitempty"`
	Actions    map[string]string `toml:"actions,omitempty"`
}

// ServerConfig holds the HTTP daemon settings.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	EventsBuffer int      `toml:"events_buffer"`
	ReadTimeout  Duration `toml:"read_timeout"`
}

// LedgerConfig locates the usage ledger database.
type LedgerConfig struct {
	Path string `toml:"path,omitempty"`
}

// RecorderConfig controls the asynchronous usage writer.
type RecorderConfig struct {
	QueueSize      int      `toml:"queue_size"`
	Workers        int      `toml:"workers"`
	MaxAttempts    int      `toml:"max_attempts"`
	RetryBase      Duration `toml:"retry_base"`
	RetriesPerSec  float64  `toml:"retries_per_sec"`
	SpoolPath      string   `toml:"spool_path,omitempty"`
	ReplaySchedule string   `toml:"replay_schedule"`
}

// QuotaConfig holds rate limits per caller tier.
type QuotaConfig struct {
	DayTimezone string               `toml:"day_timezone"`
	Strict      bool                 `toml:"strict"`
	Tiers       map[string]RateLimit `toml:"tiers"`
}

// RoutingConfig tunes cost estimation.
type RoutingConfig struct {
	OutputTokenRatio float64 `toml:"output_token_ratio"`
}

// RedisConfig holds the optional Redis connection used by strict quota mode.
type RedisConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Duration is a time.Duration that reads and writes as "90s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
			ReadTimeout:  Duration{10 * time.Second},
		},
		Recorder: RecorderConfig{
			QueueSize:      1024,
			Workers:        2,
			MaxAttempts:    5,
			RetryBase:      Duration{200 * time.Millisecond},
			RetriesPerSec:  20,
			ReplaySchedule: "@every 1m",
		},
		Quota: QuotaConfig{
			DayTimezone: "UTC",
			Tiers:       DefaultLimits(),
		},
		Routing: RoutingConfig{
			OutputTokenRatio: 1.0,
		},
		Redis: RedisConfig{
			Prefix: "tripgate:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Catalog: DefaultCatalog(),
		Actions: DefaultActions(),
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripgate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tripgate")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for the ledger and spool.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripgate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tripgate")
}

// Load reads the config file at ConfigPath, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config file at path, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided config location
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else {
		// A file that declares its own catalog or actions replaces the defaults
		// rather than merging into them.
		var probe struct {
			Catalog []CatalogEntry    `toml:"catalog"`
			Actions map[string]string `toml:"actions"`
		}
		if err := toml.Unmarshal(data, &probe); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
		if len(probe.Catalog) > 0 {
			cfg.Catalog = nil
		}
		if len(probe.Actions) > 0 {
			cfg.Actions = nil
		}
		defaultTiers := maps.Clone(cfg.Quota.Tiers)
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
		mergeTiers(&cfg.Quota, defaultTiers, md)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// mergeTiers fills the keys a file leaves out of a known tier from that
// tier's defaults. Tiers the file does not mention keep their defaults.
func mergeTiers(q *QuotaConfig, defaults map[string]RateLimit, md toml.MetaData) {
	if q.Tiers == nil {
		q.Tiers = make(map[string]RateLimit, len(defaults))
	}
	for name, base := range defaults {
		l, ok := q.Tiers[name]
		if !ok {
			q.Tiers[name] = base
			continue
		}
		set := func(key string) bool { return md.IsDefined("quota", "tiers", name, key) }
		if !set("requests_per_minute") {
			l.RequestsPerMinute = base.RequestsPerMinute
		}
		if !set("requests_per_hour") {
			l.RequestsPerHour = base.RequestsPerHour
		}
		if !set("tokens_per_day") {
			l.TokensPerDay = base.TokensPerDay
		}
		if !set("cooldown") {
			l.Cooldown = base.Cooldown
		}
		q.Tiers[name] = l
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIPGATE_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("TRIPGATE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TRIPGATE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TRIPGATE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes the config to ConfigPath.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is user-provided config location
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// LedgerPath returns the configured ledger path or the default under DataDir.
func (c Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(DataDir(), "ledger.db")
}

// SpoolPath returns the configured spool path or the default under DataDir.
func (c Config) SpoolPath() string {
	if c.Recorder.SpoolPath != "" {
		return c.Recorder.SpoolPath
	}
	return filepath.Join(DataDir(), "spool.jsonl")
}

// Location resolves the quota day timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Quota.DayTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Quota.DayTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Quota.DayTimezone, err)
	}
	return loc, nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks limits, catalog and action references.
func (c Config) Validate() error {
	if len(c.Catalog) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Catalog))
	for _, e := range c.Catalog {
		if e.ID == "" {
			return fmt.Errorf("%w: catalog entry without id", ErrInvalid)
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate catalog id %q", ErrInvalid, e.ID)
		}
		seen[e.ID] = true
		if !IsModelTier(e.Tier) {
			return fmt.Errorf("%w: model %q has unknown tier %q", ErrInvalid, e.ID, e.Tier)
		}
		if e.CostPer1KMicros < 0 {
			return fmt.Errorf("%w: model %q has negative price", ErrInvalid, e.ID)
		}
	}
	for action, tier := range c.Actions {
		if !IsModelTier(tier) {
			return fmt.Errorf("%w: action %q maps to unknown tier %q", ErrInvalid, action, tier)
		}
	}
	if _, ok := c.Quota.Tiers[FallbackCallerTier]; !ok {
		return fmt.Errorf("%w: quota tier %q must be defined", ErrInvalid, FallbackCallerTier)
	}
	for name, l := range c.Quota.Tiers {
		if err := l.validate(); err != nil {
			return fmt.Errorf("%w: quota tier %q: %v", ErrInvalid, name, err)
		}
	}
	if c.Routing.OutputTokenRatio < 0 {
		return fmt.Errorf("%w: output_token_ratio must not be negative", ErrInvalid)
	}
	if c.Quota.Strict && c.Redis.Addr == "" {
		return fmt.Errorf("%w: strict quota mode needs redis.addr", ErrInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
