// Package gateway is the single entry point for routing, quota checks and
// usage accounting.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/money"
	"github.com/theirongolddev/tripgate/internal/pipeline"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/recorder"
	"github.com/theirongolddev/tripgate/internal/router"
)

var (
	// ErrMissingUser is returned when a request has no user ID.
	ErrMissingUser = errors.New("user id is required")
	// ErrMissingTrip is returned when trip stats are requested without an ID.
	ErrMissingTrip = errors.New("trip id is required")
	// ErrInvalidUsage is returned for malformed usage entries.
	ErrInvalidUsage = errors.New("invalid usage entry")
)

// UsageEntry is a completed AI call as reported by the caller.
type UsageEntry struct {
	UserID       string       `json:"user_id"`
	TripID       string       `json:"trip_id,omitempty"`
	ModelID      string       `json:"model_id"`
	Action       string       `json:"action,omitempty"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	Cost         money.Amount `json:"cost,omitempty"`
}

// AdmitRequest asks for a route and a quota decision in one call.
type AdmitRequest struct {
	UserID        string `json:"user_id"`
	CallerTier    string `json:"tier"`
	Message       string `json:"message"`
	ContextTokens int64  `json:"context_tokens"`
	Action        string `json:"action,omitempty"`
}

// Admission is the combined answer to an AdmitRequest.
type Admission struct {
	Route router.Decision `json:"route"`
	Quota quota.Decision  `json:"quota"`
}

// Gateway composes the router, quota enforcer, usage recorder and ledger.
type Gateway struct {
	router   *router.Router
	enforcer *quota.Enforcer
	recorder *recorder.Recorder
	reader   ledger.Reader
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// Deps are the collaborators a Gateway needs.
type Deps struct {
	Router   *router.Router
	Enforcer *quota.Enforcer
	Recorder *recorder.Recorder
	Reader   ledger.Reader
	Location *time.Location
	Now      func() time.Time
	Logger   zerolog.Logger
}

// New builds a Gateway.
func New(d Deps) *Gateway {
	g := &Gateway{
		router:   d.Router,
		enforcer: d.Enforcer,
		recorder: d.Recorder,
		reader:   d.Reader,
		loc:      d.Location,
		now:      d.Now,
		logger:   logging.Component(d.Logger, "gateway"),
	}
	if g.loc == nil {
		g.loc = time.UTC
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Router exposes the underlying router for catalog listings.
func (g *Gateway) Router() *router.Router { return g.router }

// Strict reports whether quota checks also reserve a slot in Redis.
func (g *Gateway) Strict() bool { return g.enforcer.Strict() }

// Classify classifies a message.
func (g *Gateway) Classify(message string, contextTokens int64) router.Classification {
	return g.router.Classify(message, contextTokens)
}

// ResolveTier returns the tier serving a request.
func (g *Gateway) ResolveTier(action string, c *router.Classification) router.Tier {
	return g.router.ResolveTier(action, c)
}

// SelectModel returns the model for a tier, falling back when the tier is empty.
func (g *Gateway) SelectModel(t router.Tier) router.ModelConfig {
	m, _ := g.router.SelectModel(t)
	return m
}

// EstimateCost prices a call on m.
func (g *Gateway) EstimateCost(m router.ModelConfig, inputTokens, outputTokens int64) money.Amount {
	return router.EstimateCost(m, inputTokens, outputTokens)
}

// Route classifies, resolves and prices a request.
func (g *Gateway) Route(req router.Request) router.Decision {
	return g.router.Route(req)
}

// CheckQuota evaluates the user's limits. It fails closed.
func (g *Gateway) CheckQuota(ctx context.Context, userID, callerTier string) (quota.Decision, error) {
	if userID == "" {
		return quota.Decision{Reason: ErrMissingUser.Error()}, ErrMissingUser
	}
	return g.enforcer.Check(ctx, userID, callerTier)
}

// PeekQuota reports the user's quota state without reserving a slot.
func (g *Gateway) PeekQuota(ctx context.Context, userID, callerTier string) (quota.Decision, error) {
	if userID == "" {
		return quota.Decision{Reason: ErrMissingUser.Error()}, ErrMissingUser
	}
	return g.enforcer.Peek(ctx, userID, callerTier)
}

// Admit routes the request and checks the user's quota.
func (g *Gateway) Admit(ctx context.Context, req AdmitRequest) (Admission, error) {
	route := g.Route(router.Request{Message: req.Message, ContextTokens: req.ContextTokens, Action: req.Action})
	q, err := g.CheckQuota(ctx, req.UserID, req.CallerTier)
	return Admission{Route: route, Quota: q}, err
}

// RecordUsage queues a completed call for the ledger. When the entry carries
// no cost and names a catalog model, the cost is computed from the catalog.
// Ledger failures never surface here; they are retried and spooled.
func (g *Gateway) RecordUsage(e UsageEntry) (model.UsageRecord, error) {
	if e.UserID == "" {
		return model.UsageRecord{}, ErrMissingUser
	}
	if e.ModelID == "" {
		return model.UsageRecord{}, fmt.Errorf("%w: model id is required", ErrInvalidUsage)
	}
	if e.InputTokens < 0 || e.OutputTokens < 0 || e.Cost < 0 {
		return model.UsageRecord{}, fmt.Errorf("%w: negative tokens or cost", ErrInvalidUsage)
	}

	rec := model.UsageRecord{
		UserID:       e.UserID,
		TripID:       e.TripID,
		ModelID:      e.ModelID,
		Action:       e.Action,
		InputTokens:  e.InputTokens,
		OutputTokens: e.OutputTokens,
		Cost:         e.Cost,
	}
	if m, ok := g.router.Catalog().Lookup(e.ModelID); ok {
		rec.ModelID = m.ID
		if rec.Cost == 0 {
			rec.Cost = router.EstimateCost(m, e.InputTokens, e.OutputTokens)
		}
	} else if rec.Cost == 0 {
		g.logger.Warn().Str("model", e.ModelID).Msg("usage for unknown model recorded without cost")
	}

	return g.recorder.Record(rec)
}

// UserStats summarizes a user's usage over the trailing days.
func (g *Gateway) UserStats(ctx context.Context, userID string, days int) (model.UserStats, error) {
	if userID == "" {
		return model.UserStats{}, ErrMissingUser
	}
	return pipeline.UserStats(ctx, g.reader, userID, days, g.now(), g.loc)
}

// TripStats summarizes all usage attributed to a trip.
func (g *Gateway) TripStats(ctx context.Context, tripID string) (model.TripStats, error) {
	if tripID == "" {
		return model.TripStats{}, ErrMissingTrip
	}
	return pipeline.TripStats(ctx, g.reader, tripID)
}

// TierSpend breaks a user's spend over the trailing days down by model tier.
func (g *Gateway) TierSpend(ctx context.Context, userID string, days int) ([]model.TierStats, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	records, err := g.reader.Records(ctx, ledger.Filter{UserID: userID, Since: g.now().AddDate(0, 0, -max(days, 1))})
	if err != nil {
		return nil, fmt.Errorf("loading usage for user %s: %w", userID, err)
	}
	return pipeline.AggregateTiers(records, func(id string) (string, bool) {
		m, ok := g.router.Catalog().Lookup(id)
		return string(m.Tier), ok
	}), nil
}
