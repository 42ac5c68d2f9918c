// Package daemon serves the tripgate HTTP API and its live event stream.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/recorder"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
	ReadTimeout  time.Duration
	LedgerPath   string
}

// Snapshot is a compact view of ledger and recorder state.
type Snapshot struct {
	At           time.Time `json:"at"`
	Records      int       `json:"records"`
	Written      int64     `json:"written"`
	Spooled      int64     `json:"spooled"`
	SpoolPending int       `json:"spool_pending"`
	QueueDepth   int       `json:"queue_depth"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Records      int   `json:"records"`
	Written      int64 `json:"written"`
	Spooled      int64 `json:"spooled"`
	SpoolPending int   `json:"spool_pending"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 &&
		d.Written == 0 &&
		d.Spooled == 0 &&
		d.SpoolPending == 0
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventStatsDelta    = "stats_delta"
	EventUsageRecorded = "usage_recorded"
	EventQuotaBlocked  = "quota_blocked"
)

// QuotaEvent describes a blocked request.
type QuotaEvent struct {
	UserID string       `json:"user_id"`
	Tier   string       `json:"tier"`
	Window quota.Window `json:"window"`
	Reason string       `json:"reason"`
}

// Event is published to /v1/events and /v1/stream.
type Event struct {
	ID        int64              `json:"id"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Snapshot  *Snapshot          `json:"snapshot,omitempty"`
	Delta     *Delta             `json:"delta,omitempty"`
	Usage     *model.UsageRecord `json:"usage,omitempty"`
	Quota     *QuotaEvent        `json:"quota,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time      `json:"started_at"`
	LastPollAt      time.Time      `json:"last_poll_at"`
	PollIntervalSec int            `json:"poll_interval_sec"`
	PollCount       int64          `json:"poll_count"`
	Addr            string         `json:"addr"`
	LedgerPath      string         `json:"ledger_path"`
	StrictQuota     bool           `json:"strict_quota"`
	Summary         Snapshot       `json:"summary"`
	Recorder        recorder.Stats `json:"recorder"`
	Blocked         int64          `json:"blocked"`
	LastError       string         `json:"last_error,omitempty"`
	EventCount      int            `json:"event_count"`
	SubscriberCount int            `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	logger zerolog.Logger
	rt     *gateway.Runtime

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	blocked     int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, logger zerolog.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}

	return &Service{
		cfg:       cfg,
		logger:    logging.Component(logger, "daemon"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// UsageHook returns a recorder callback that publishes written records.
func (s *Service) UsageHook() recorder.Option {
	return recorder.OnWritten(func(r model.UsageRecord) {
		s.publish(Event{Type: EventUsageRecorded, Usage: &r})
	})
}

// Handler binds the service to rt and returns its HTTP routes.
func (s *Service) Handler(rt *gateway.Runtime) http.Handler {
	s.mu.Lock()
	s.rt = rt
	s.mu.Unlock()

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(name, h))
	}
	route("GET /healthz", "healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	route("GET /v1/status", "status", s.handleStatus)
	route("GET /v1/events", "events", s.handleEvents)
	route("GET /v1/stream", "stream", s.handleStream)
	route("GET /v1/catalog", "catalog", s.handleCatalog)
	route("POST /v1/classify", "classify", s.handleClassify)
	route("POST /v1/route", "route", s.handleRoute)
	route("POST /v1/quota/check", "quota_check", s.handleQuotaCheck)
	route("POST /v1/admit", "admit", s.handleAdmit)
	route("POST /v1/usage", "usage", s.handleUsage)
	route("GET /v1/users/{id}/stats", "user_stats", s.handleUserStats)
	route("GET /v1/trips/{id}/stats", "trip_stats", s.handleTripStats)
	return mux
}

// Run serves the API and polls ledger state until ctx is canceled.
func (s *Service) Run(ctx context.Context, rt *gateway.Runtime) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(rt),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info().Str("addr", s.cfg.Addr).Str("ledger", s.cfg.LedgerPath).Bool("strict", rt.Strict()).Msg("daemon listening")

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.logger.Info().Msg("daemon shutting down")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	snap, err := s.takeSnapshot(ctx)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("daemon poll failed")
		return
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		ev = Event{Type: EventSnapshot, Snapshot: &snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		ev = Event{Type: EventStatsDelta, Snapshot: &snap, Delta: &delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publish(ev)
	}
}

func (s *Service) takeSnapshot(ctx context.Context) (Snapshot, error) {
	n, err := s.rt.Ledger.Count(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("counting ledger records: %w", err)
	}
	pending, err := s.rt.Spool.Len()
	if err != nil {
		return Snapshot{}, err
	}
	rs := s.rt.Recorder.Stats()
	return Snapshot{
		At:           time.Now(),
		Records:      n,
		Written:      rs.Written,
		Spooled:      rs.Spooled,
		SpoolPending: pending,
		QueueDepth:   rs.QueueDepth,
	}, nil
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:      curr.Records - prev.Records,
		Written:      curr.Written - prev.Written,
		Spooled:      curr.Spooled - prev.Spooled,
		SpoolPending: curr.SpoolPending - prev.SpoolPending,
	}
}

// publish stamps ev with the next ID and fans it out to subscribers.
func (s *Service) publish(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Type == EventQuotaBlocked {
		s.blocked++
	}
	s.mu.Unlock()
	s.publishEvent(ev)
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Addr:            s.cfg.Addr,
		LedgerPath:      s.cfg.LedgerPath,
		Summary:         s.snapshot,
		Blocked:         s.blocked,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.rt != nil {
		st.StrictQuota = s.rt.Strict()
		st.Recorder = s.rt.Recorder.Stats()
	}
	return st
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
