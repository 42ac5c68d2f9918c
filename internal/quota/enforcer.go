// Package quota decides whether a user may issue another AI request.
//
// Every check re-reads the ledger; no counts are kept in process memory, so
// any number of instances sharing a ledger agree. Reads that fail deny the
// request.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/metrics"
	"github.com/theirongolddev/tripgate/internal/model"
)

// Window names the limit that blocked a request.
type Window string

const (
	WindowNone   Window = ""
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
	// WindowUnknown marks a denial because usage could not be read.
	WindowUnknown Window = "unverified"
)

// ReasonUnverified is returned when the ledger cannot be read.
const ReasonUnverified = "Usage limits could not be verified. Please try again shortly."

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed    bool             `json:"allowed"`
	Reason     string           `json:"reason,omitempty"`
	Window     Window           `json:"window,omitempty"`
	CallerTier string           `json:"caller_tier"`
	Limit      config.RateLimit `json:"limit"`
	Stats      model.UsageStats `json:"stats"`
}

// Reserver atomically claims request slots in the minute and hour windows.
// It returns the window that is already full, or WindowNone once a slot has
// been claimed.
type Reserver interface {
	Reserve(ctx context.Context, userID string, limit config.RateLimit, now time.Time) (Window, error)
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) { e.now = now }
}

// WithReserver enables strict mode with the given reserver.
func WithReserver(r Reserver) Option {
	return func(e *Enforcer) { e.reserver = r }
}

// Enforcer checks users against per-tier rate limits.
type Enforcer struct {
	reader   ledger.Reader
	limits   config.QuotaConfig
	loc      *time.Location
	now      func() time.Time
	reserver Reserver
	logger   zerolog.Logger
}

// NewEnforcer builds an Enforcer reading from r.
func NewEnforcer(r ledger.Reader, cfg config.QuotaConfig, loc *time.Location, logger zerolog.Logger, opts ...Option) *Enforcer {
	if loc == nil {
		loc = time.UTC
	}
	e := &Enforcer{
		reader: r,
		limits: cfg,
		loc:    loc,
		now:    time.Now,
		logger: logging.Component(logger, "quota"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strict reports whether atomic reservations are enabled.
func (e *Enforcer) Strict() bool { return e.reserver != nil }

// Limit returns the limits applied to callerTier.
func (e *Enforcer) Limit(callerTier string) config.RateLimit {
	l, _ := e.limits.LimitFor(callerTier)
	return l
}

// StartOfDay returns the start of the quota day containing t.
func (e *Enforcer) StartOfDay(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// Check evaluates the minute, hour and day windows in that order and reports
// the first one that is exhausted. A non-nil error always comes with a
// denied decision.
func (e *Enforcer) Check(ctx context.Context, userID, callerTier string) (Decision, error) {
	return e.check(ctx, userID, callerTier, true)
}

// Peek is Check without claiming a strict-mode slot, for dashboards.
func (e *Enforcer) Peek(ctx context.Context, userID, callerTier string) (Decision, error) {
	return e.check(ctx, userID, callerTier, false)
}

func (e *Enforcer) check(ctx context.Context, userID, callerTier string, reserve bool) (Decision, error) {
	limit, known := e.limits.LimitFor(callerTier)
	if !known {
		e.logger.Warn().Str("user", userID).Str("tier", callerTier).
			Str("fallback", config.FallbackCallerTier).Msg("unknown caller tier")
		callerTier = config.FallbackCallerTier
	}

	now := e.now()
	dayStart := e.StartOfDay(now)
	nextMidnight := dayStart.AddDate(0, 0, 1)

	d := Decision{
		CallerTier: callerTier,
		Limit:      limit,
		Stats:      model.UsageStats{ResetsAt: nextMidnight},
	}

	minute, err := e.reader.Totals(ctx, ledger.Filter{UserID: userID, Since: now.Add(-time.Minute)})
	if err != nil {
		return e.failClosed(d, userID, fmt.Errorf("reading minute usage: %w", err))
	}
	hour, err := e.reader.Totals(ctx, ledger.Filter{UserID: userID, Since: now.Add(-time.Hour)})
	if err != nil {
		return e.failClosed(d, userID, fmt.Errorf("reading hour usage: %w", err))
	}
	day, err := e.reader.Totals(ctx, ledger.Filter{UserID: userID, Since: dayStart})
	if err != nil {
		return e.failClosed(d, userID, fmt.Errorf("reading day usage: %w", err))
	}

	d.Stats.RequestsLastMinute = minute.Requests
	d.Stats.RequestsLastHour = hour.Requests
	d.Stats.TokensToday = day.Tokens()
	d.Stats.CostToday = day.Cost
	d.Stats.RemainingRequests = max(0, min(limit.RequestsPerMinute-minute.Requests, limit.RequestsPerHour-hour.Requests))
	d.Stats.RemainingTokens = max(0, limit.TokensPerDay-day.Tokens())

	switch {
	case minute.Requests >= limit.RequestsPerMinute:
		d.Window = WindowMinute
		d.Stats.RetryAfter = limit.Cooldown.Duration
		d.Reason = fmt.Sprintf("Too many requests in the last minute. Please wait %s before trying again.",
			limit.Cooldown.Duration)
	case hour.Requests >= limit.RequestsPerHour:
		d.Window = WindowHour
		retry, err := e.hourRetry(ctx, userID, now)
		if err != nil {
			return e.failClosed(d, userID, err)
		}
		d.Stats.RetryAfter = retry
		d.Reason = fmt.Sprintf("Hourly limit of %d requests reached. Please try again later.", limit.RequestsPerHour)
	case day.Tokens() >= limit.TokensPerDay:
		d.Window = WindowDay
		d.Stats.RetryAfter = nextMidnight.Sub(now)
		d.Reason = fmt.Sprintf("Daily limit of %d tokens reached. Your quota resets at midnight.", limit.TokensPerDay)
	}

	if d.Window == WindowNone && reserve && e.reserver != nil {
		w, err := e.reserver.Reserve(ctx, userID, limit, now)
		if err != nil {
			return e.failClosed(d, userID, fmt.Errorf("reserving request slot: %w", err))
		}
		if w != WindowNone {
			d.Window = w
			if w == WindowMinute {
				d.Stats.RetryAfter = limit.Cooldown.Duration
				d.Reason = fmt.Sprintf("Too many requests in the last minute. Please wait %s before trying again.",
					limit.Cooldown.Duration)
			} else {
				d.Stats.RetryAfter = time.Minute
				d.Reason = fmt.Sprintf("Hourly limit of %d requests reached. Please try again later.", limit.RequestsPerHour)
			}
		}
	}

	if d.Window != WindowNone {
		d.Stats.Blocked = true
		d.Stats.RemainingRequests = 0
		metrics.QuotaChecks.WithLabelValues("blocked", string(d.Window)).Inc()
		e.logger.Info().Str("user", userID).Str("tier", callerTier).
			Str("window", string(d.Window)).Msg("request blocked")
		return d, nil
	}

	d.Allowed = true
	metrics.QuotaChecks.WithLabelValues("allowed", "").Inc()
	return d, nil
}

// hourRetry estimates when the oldest request in the trailing hour ages out.
func (e *Enforcer) hourRetry(ctx context.Context, userID string, now time.Time) (time.Duration, error) {
	oldest, err := e.reader.Records(ctx, ledger.Filter{UserID: userID, Since: now.Add(-time.Hour), Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("reading hour usage: %w", err)
	}
	if len(oldest) == 0 {
		return time.Minute, nil
	}
	return max(oldest[0].CreatedAt.Add(time.Hour).Sub(now), time.Second), nil
}

func (e *Enforcer) failClosed(d Decision, userID string, err error) (Decision, error) {
	d.Allowed = false
	d.Window = WindowUnknown
	d.Reason = ReasonUnverified
	d.Stats.Blocked = true
	d.Stats.RemainingRequests = 0
	d.Stats.RemainingTokens = 0
	metrics.QuotaChecks.WithLabelValues("error", string(WindowUnknown)).Inc()
	e.logger.Error().Err(err).Str("user", userID).Msg("quota check failed, denying request")
	return d, err
}
