// Package recorder writes usage records to the ledger off the request path.
//
// Record stamps and enqueues; worker goroutines insert with bounded retries.
// Records that cannot be written, or that arrive while the queue is full,
// go to the spool, and a cron job replays the spool into the ledger.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/logging"
	"github.com/theirongolddev/tripgate/internal/metrics"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/spool"
)

const (
	maxBackoff     = 30 * time.Second
	attemptTimeout = 5 * time.Second
)

// Config controls queueing and retries.
type Config struct {
	QueueSize      int
	Workers        int
	MaxAttempts    int
	RetryBase      time.Duration
	RetriesPerSec  float64
	ReplaySchedule string
}

// Stats is a point-in-time view of recorder activity.
type Stats struct {
	Accepted   int64  `json:"accepted"`
	Written    int64  `json:"written"`
	Retries    int64  `json:"retries"`
	Spooled    int64  `json:"spooled"`
	Replayed   int64  `json:"replayed"`
	QueueDepth int    `json:"queue_depth"`
	LastError  string `json:"last_error,omitempty"`
}

// ReplayResult summarizes one spool replay.
type ReplayResult struct {
	Replayed    int `json:"replayed"`
	Pending     int `json:"pending"`
	ParseErrors int `json:"parse_errors"`
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// OnWritten registers a callback run after each successful ledger insert.
func OnWritten(fn func(model.UsageRecord)) Option {
	return func(r *Recorder) { r.onWritten = fn }
}

// Recorder is the asynchronous usage writer.
type Recorder struct {
	cfg     Config
	writer  ledger.Writer
	spool   *spool.Spool
	queue   chan model.UsageRecord
	limiter *rate.Limiter
	sched   *cron.Cron
	logger  zerolog.Logger

	now       func() time.Time
	onWritten func(model.UsageRecord)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool

	accepted atomic.Int64
	written  atomic.Int64
	retries  atomic.Int64
	spooled  atomic.Int64
	replayed atomic.Int64
	lastErr  atomic.Value // string
}

// ErrClosed is returned by Record after Close when the record could not be
// spooled either.
var ErrClosed = errors.New("recorder closed")

// New builds a Recorder. Call Start to launch workers and the replay job.
func New(cfg Config, w ledger.Writer, sp *spool.Spool, logger zerolog.Logger, opts ...Option) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	limit := rate.Inf
	if cfg.RetriesPerSec > 0 {
		limit = rate.Limit(cfg.RetriesPerSec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Recorder{
		cfg:     cfg,
		writer:  w,
		spool:   sp,
		queue:   make(chan model.UsageRecord, cfg.QueueSize),
		limiter: rate.NewLimiter(limit, max(1, cfg.Workers)),
		sched:   cron.New(),
		logger:  logging.Component(logger, "recorder"),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the workers and, when configured, the replay schedule.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if r.cfg.ReplaySchedule != "" {
		_, err := r.sched.AddFunc(r.cfg.ReplaySchedule, func() {
			if _, err := r.Replay(r.ctx); err != nil {
				r.logger.Error().Err(err).Msg("spool replay failed")
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling spool replay %q: %w", r.cfg.ReplaySchedule, err)
		}
		r.sched.Start()
	}
	for range r.cfg.Workers {
		r.wg.Add(1)
		go r.work()
	}
	r.started = true
	return nil
}

// Record stamps the entry with an ID (when missing) and its creation time
// (when zero), then queues it. It never waits on the ledger. The stamped
// record is returned.
func (r *Recorder) Record(rec model.UsageRecord) (model.UsageRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	r.accepted.Add(1)
	if r.closed {
		if err := r.toSpool(rec, "recorder closed"); err != nil {
			return rec, errors.Join(ErrClosed, err)
		}
		return rec, nil
	}

	select {
	case r.queue <- rec:
		metrics.RecorderQueueDepth.Set(float64(len(r.queue)))
		return rec, nil
	default:
		return rec, r.toSpool(rec, "queue full")
	}
}

func (r *Recorder) work() {
	defer r.wg.Done()
	for rec := range r.queue {
		metrics.RecorderQueueDepth.Set(float64(len(r.queue)))
		r.write(rec)
	}
}

func (r *Recorder) write(rec model.UsageRecord) {
	var err error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			r.retries.Add(1)
			if werr := r.backoff(attempt); werr != nil {
				break
			}
		}
		ctx, cancel := context.WithTimeout(r.ctx, attemptTimeout)
		err = r.writer.Insert(ctx, rec)
		cancel()
		if err == nil {
			r.written.Add(1)
			metrics.UsageRecords.WithLabelValues("written").Inc()
			if r.onWritten != nil {
				r.onWritten(rec)
			}
			return
		}
		r.setLastError(err)
		r.logger.Warn().Err(err).Str("record", rec.ID).Int("attempt", attempt).Msg("ledger insert failed")
	}
	_ = r.toSpool(rec, "retries exhausted")
}

func (r *Recorder) backoff(attempt int) error {
	d := r.cfg.RetryBase << (attempt - 2)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
	return r.limiter.Wait(r.ctx)
}

func (r *Recorder) toSpool(rec model.UsageRecord, why string) error {
	if err := r.spool.Append(rec); err != nil {
		r.setLastError(err)
		metrics.UsageRecords.WithLabelValues("lost").Inc()
		r.logger.Error().Err(err).Str("record", rec.ID).Str("user", rec.UserID).
			Str("cause", why).Msg("usage record lost: spool write failed")
		return fmt.Errorf("spooling usage record: %w", err)
	}
	r.spooled.Add(1)
	metrics.UsageRecords.WithLabelValues("spooled").Inc()
	r.logger.Error().Str("record", rec.ID).Str("user", rec.UserID).
		Str("cause", why).Str("spool", r.spool.Path()).Msg("usage record spooled")
	return nil
}

// Replay inserts spooled records into the ledger and keeps the ones that
// still fail. Inserts are idempotent, so records already in the ledger are
// dropped from the spool.
func (r *Recorder) Replay(ctx context.Context) (ReplayResult, error) {
	var out ReplayResult
	res, err := r.spool.Drain(func(records []model.UsageRecord) []model.UsageRecord {
		var pending []model.UsageRecord
		for i, rec := range records {
			if ctx.Err() != nil {
				return append(pending, records[i:]...)
			}
			if err := r.writer.Insert(ctx, rec); err != nil {
				r.setLastError(err)
				pending = append(pending, rec)
				continue
			}
			out.Replayed++
			if r.onWritten != nil {
				r.onWritten(rec)
			}
		}
		return pending
	})
	out.ParseErrors = res.ParseErrors
	out.Pending = len(res.Records) - out.Replayed
	r.replayed.Add(int64(out.Replayed))
	if out.Replayed > 0 {
		metrics.UsageRecords.WithLabelValues("replayed").Add(float64(out.Replayed))
		r.logger.Info().Int("replayed", out.Replayed).Int("pending", out.Pending).Msg("spool replayed")
	}
	if err != nil {
		return out, fmt.Errorf("replaying spool: %w", err)
	}
	return out, nil
}

// Close stops intake and waits for queued records to be written. If ctx
// expires first, in-flight retries are abandoned and their records spooled.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	close(r.queue)
	r.mu.Unlock()

	if !started {
		// Nothing is draining the queue; keep what was accepted.
		for rec := range r.queue {
			_ = r.toSpool(rec, "recorder never started")
		}
		r.cancel()
		return nil
	}

	stopped := r.sched.Stop()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.cancel()
		<-done
	}
	<-stopped.Done()
	r.cancel()
	return nil
}

// Stats returns activity counters.
func (r *Recorder) Stats() Stats {
	s := Stats{
		Accepted:   r.accepted.Load(),
		Written:    r.written.Load(),
		Retries:    r.retries.Load(),
		Spooled:    r.spooled.Load(),
		Replayed:   r.replayed.Load(),
		QueueDepth: len(r.queue),
	}
	if v, ok := r.lastErr.Load().(string); ok {
		s.LastError = v
	}
	return s
}

func (r *Recorder) setLastError(err error) {
	r.lastErr.Store(err.Error())
}
