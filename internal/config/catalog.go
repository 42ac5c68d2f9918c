package config

import "strings"

// Model tiers, cheapest first.
const (
	TierFast     = "fast"
	TierStandard = "standard"
	TierPowerful = "powerful"
)

// IsModelTier reports whether s names a model tier.
func IsModelTier(s string) bool {
	switch s {
	case TierFast, TierStandard, TierPowerful:
		return true
	}
	return false
}

// CatalogEntry describes one model offered to the router.
type CatalogEntry struct {
	ID               string   `toml:"id"`
	Name             string   `toml:"name"`
	Tier             string   `toml:"tier"`
	CostPer1KMicros  int64    `toml:"cost_per_1k_micros"`
	MaxContextTokens int      `toml:"max_context_tokens"`
	Streaming        bool     `toml:"streaming"`
	BestFor          []string `toml:"best_for,omitempty"`
}

// DefaultCatalog returns the stock model catalog. Order matters: the first
// entry of a tier is the one the router selects.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Tier: TierFast,
			CostPer1KMicros: 3_000, MaxContextTokens: 200_000, Streaming: true,
			BestFor: []string{"quick facts", "opening hours", "weather", "prices"},
		},
		{
			ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Tier: TierStandard,
			CostPer1KMicros: 9_000, MaxContextTokens: 200_000, Streaming: true,
			BestFor: []string{"activity suggestions", "swaps", "day edits"},
		},
		{
			ID: "claude-opus-4-1", Name: "Claude Opus 4.1", Tier: TierPowerful,
			CostPer1KMicros: 45_000, MaxContextTokens: 200_000, Streaming: true,
			BestFor: []string{"full itinerary redesign", "multi-day replanning"},
		},
	}
}

// DefaultActions maps known client actions to the tier that serves them.
func DefaultActions() map[string]string {
	return map[string]string{
		"answer_question":    TierFast,
		"lookup_place":       TierFast,
		"check_weather":      TierFast,
		"suggest_activity":   TierStandard,
		"swap_activity":      TierStandard,
		"add_activity":       TierStandard,
		"remove_activity":    TierStandard,
		"optimize_day":       TierStandard,
		"full_redesign":      TierPowerful,
		"generate_itinerary": TierPowerful,
		"replan_trip":        TierPowerful,
	}
}

// NormalizeModelName strips a date suffix from a model identifier when the
// undated name is in known.
// e.g., "claude-sonnet-4-5-20250929" -> "claude-sonnet-4-5"
func NormalizeModelName(raw string, known func(string) bool) string {
	if known(raw) {
		return raw
	}

	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if known(candidate) {
				return candidate
			}
		}
	}

	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
