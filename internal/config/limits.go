package config

import (
	"errors"
	"time"
)

// Caller tiers known out of the box.
const (
	CallerFree    = "free"
	CallerPremium = "premium"

	// FallbackCallerTier supplies limits for callers whose tier is unknown.
	FallbackCallerTier = CallerFree
)

// RateLimit holds the per-window limits for one caller tier.
type RateLimit struct {
	RequestsPerMinute int      `toml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int      `toml:"requests_per_hour" json:"requests_per_hour"`
	TokensPerDay      int64    `toml:"tokens_per_day" json:"tokens_per_day"`
	Cooldown          Duration `toml:"cooldown" json:"cooldown"`
}

// DefaultLimits returns the stock limits for free and premium callers.
func DefaultLimits() map[string]RateLimit {
	return map[string]RateLimit{
		CallerFree: {
			RequestsPerMinute: 5,
			RequestsPerHour:   30,
			TokensPerDay:      50_000,
			Cooldown:          Duration{60 * time.Second},
		},
		CallerPremium: {
			RequestsPerMinute: 20,
			RequestsPerHour:   200,
			TokensPerDay:      500_000,
			Cooldown:          Duration{30 * time.Second},
		},
	}
}

// LimitFor returns the limits for a caller tier and whether the tier was known.
// Unknown tiers get the FallbackCallerTier limits.
func (q QuotaConfig) LimitFor(tier string) (RateLimit, bool) {
	if l, ok := q.Tiers[tier]; ok {
		return l, true
	}
	if l, ok := q.Tiers[FallbackCallerTier]; ok {
		return l, false
	}
	return DefaultLimits()[FallbackCallerTier], false
}

func (l RateLimit) validate() error {
	switch {
	case l.RequestsPerMinute <= 0:
		return errors.New("requests_per_minute must be positive")
	case l.RequestsPerHour <= 0:
		return errors.New("requests_per_hour must be positive")
	case l.TokensPerDay <= 0:
		return errors.New("tokens_per_day must be positive")
	case l.Cooldown.Duration < 0:
		return errors.New("cooldown must not be negative")
	}
	return nil
}
