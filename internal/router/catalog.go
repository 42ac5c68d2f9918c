package router

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/metrics"
	"github.com/theirongolddev/tripgate/internal/money"
)

// ErrEmptyCatalog is returned when a catalog would hold no models.
var ErrEmptyCatalog = errors.New("model catalog is empty")

// Catalog is an immutable, ordered set of models.
type Catalog struct {
	models []ModelConfig
	byID   map[string]int
	logger zerolog.Logger
}

// NewCatalog builds a catalog from configuration entries, preserving order.
func NewCatalog(entries []config.CatalogEntry, logger zerolog.Logger) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		models: make([]ModelConfig, 0, len(entries)),
		byID:   make(map[string]int, len(entries)),
		logger: logging.Component(logger, "catalog"),
	}
	for _, e := range entries {
		tier := Tier(e.Tier)
		if !tier.Valid() {
			return nil, fmt.Errorf("model %q: unknown tier %q", e.ID, e.Tier)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("model %q: duplicate id", e.ID)
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		c.byID[e.ID] = len(c.models)
		c.models = append(c.models, ModelConfig{
			ID:               e.ID,
			Name:             name,
			Tier:             tier,
			CostPer1K:        money.FromMicros(e.CostPer1KMicros),
			MaxContextTokens: e.MaxContextTokens,
			Streaming:        e.Streaming,
			BestFor:          append([]string(nil), e.BestFor...),
		})
	}
	return c, nil
}

// Models returns a copy of the catalog in order.
func (c *Catalog) Models() []ModelConfig {
	return append([]ModelConfig(nil), c.models...)
}

// ByTier returns the models of one tier in catalog order.
func (c *Catalog) ByTier(t Tier) []ModelConfig {
	var out []ModelConfig
	for _, m := range c.models {
		if m.Tier == t {
			out = append(out, m)
		}
	}
	return out
}

// Lookup finds a model by ID, accepting dated aliases such as
// "claude-sonnet-4-5-20250929".
func (c *Catalog) Lookup(id string) (ModelConfig, bool) {
	id = config.NormalizeModelName(id, func(s string) bool {
		_, ok := c.byID[s]
		return ok
	})
	i, ok := c.byID[id]
	if !ok {
		return ModelConfig{}, false
	}
	return c.models[i], true
}

// Select returns the first model of tier t. When the tier has no model it
// falls back to the first standard model (then the first model overall) and
// reports fallback=true.
func (c *Catalog) Select(t Tier) (m ModelConfig, fallback bool) {
	for _, m := range c.models {
		if m.Tier == t {
			return m, false
		}
	}

	m = c.models[0]
	for _, candidate := range c.models {
		if candidate.Tier == TierStandard {
			m = candidate
			break
		}
	}
	metrics.CatalogFallbacks.WithLabelValues(string(t)).Inc()
	c.logger.Warn().
		Str("requested_tier", string(t)).
		Str("model", m.ID).
		Str("model_tier", string(m.Tier)).
		Msg("no model for tier, falling back")
	return m, true
}
