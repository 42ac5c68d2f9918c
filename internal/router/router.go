package router

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/metrics"
)

// Router resolves requests to a tier and a concrete model. All of its state
// is fixed at construction, so it is safe for concurrent use.
type Router struct {
	classifier  *Classifier
	catalog     *Catalog
	actions     ActionMap
	outputRatio float64
	logger      zerolog.Logger
}

// New builds a Router from configuration.
func New(cfg config.Config, logger zerolog.Logger) (*Router, error) {
	catalog, err := NewCatalog(cfg.Catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	actions, err := NewActionMap(cfg.Actions)
	if err != nil {
		return nil, fmt.Errorf("building action map: %w", err)
	}
	return &Router{
		classifier:  NewClassifier(),
		catalog:     catalog,
		actions:     actions,
		outputRatio: cfg.Routing.OutputTokenRatio,
		logger:      logging.Component(logger, "router"),
	}, nil
}

// Catalog returns the router's model catalog.
func (r *Router) Catalog() *Catalog { return r.catalog }

// Actions returns the router's action table.
func (r *Router) Actions() ActionMap { return r.actions }

// Classify classifies a message.
func (r *Router) Classify(message string, contextTokens int64) Classification {
	return r.classifier.Classify(message, contextTokens)
}

// ResolveTier picks the tier for a request. A recognized action wins over
// any classification; otherwise the classification's recommendation is used,
// and with neither the standard tier.
func (r *Router) ResolveTier(action string, c *Classification) Tier {
	if t, ok := r.actions.Lookup(action); ok {
		return t
	}
	if c != nil && c.RecommendedTier.Valid() {
		return c.RecommendedTier
	}
	return TierStandard
}

// SelectModel returns the model serving tier t and whether a fallback was used.
func (r *Router) SelectModel(t Tier) (ModelConfig, bool) {
	return r.catalog.Select(t)
}

// Route classifies, resolves and prices one request.
func (r *Router) Route(req Request) Decision {
	c := r.classifier.Classify(req.Message, req.ContextTokens)
	tier := r.ResolveTier(req.Action, &c)
	_, override := r.actions.Lookup(req.Action)
	m, fallback := r.catalog.Select(tier)

	in := c.EstimatedTokens
	out := outputEstimate(in, r.outputRatio)

	d := Decision{
		Classification: c,
		Tier:           tier,
		Model:          m,
		ActionOverride: override,
		Fallback:       fallback,
		InputTokens:    in,
		OutputTokens:   out,
		EstimatedCost:  EstimateCost(m, in, out),
	}

	source := "classifier"
	switch {
	case override:
		source = "action"
		d.Reason = fmt.Sprintf("action %q requires %s tier", req.Action, tier)
	default:
		d.Reason = fmt.Sprintf("classified %s by %s rule", c.Complexity, c.Rule)
	}
	if fallback {
		d.Reason += fmt.Sprintf("; no %s model, using %s", tier, m.ID)
	}

	metrics.RouteDecisions.WithLabelValues(string(tier), source).Inc()
	r.logger.Debug().
		Str("tier", string(tier)).
		Str("model", m.ID).
		Str("source", source).
		Str("complexity", string(c.Complexity)).
		Int64("estimated_tokens", in).
		Stringer("estimated_cost", d.EstimatedCost).
		Msg("routed request")
	return d
}
