package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/money"
	"github.com/theirongolddev/tripgate/internal/spool"
)

// flakyWriter fails the first failures inserts, then stores records.
type flakyWriter struct {
	mu       sync.Mutex
	failures int
	calls    int
	records  map[string]model.UsageRecord
}

func newFlakyWriter(failures int) *flakyWriter {
	return &flakyWriter{failures: failures, records: map[string]model.UsageRecord{}}
}

func (w *flakyWriter) Insert(_ context.Context, r model.UsageRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures != 0 {
		if w.failures > 0 {
			w.failures--
		}
		return errors.New("ledger unavailable")
	}
	w.records[r.ID] = r
	return nil
}

func (w *flakyWriter) heal() {
	w.mu.Lock()
	w.failures = 0
	w.mu.Unlock()
}

func (w *flakyWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

func testConfig() Config {
	return Config{QueueSize: 16, Workers: 2, MaxAttempts: 3, RetryBase: time.Millisecond}
}

func newTestRecorder(t *testing.T, cfg Config, w ledger.Writer, opts ...Option) (*Recorder, *spool.Spool) {
	t.Helper()
	sp := spool.New(filepath.Join(t.TempDir(), "spool.jsonl"))
	return New(cfg, w, sp, zerolog.Nop(), opts...), sp
}

func closeRecorder(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRecordStampsAndWrites(t *testing.T) {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	w := newFlakyWriter(0)
	var mu sync.Mutex
	var seen []string
	r, _ := newTestRecorder(t, testConfig(), w,
		WithClock(func() time.Time { return at }),
		OnWritten(func(rec model.UsageRecord) {
			mu.Lock()
			seen = append(seen, rec.ID)
			mu.Unlock()
		}))
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}

	got, err := r.Record(model.UsageRecord{UserID: "u1", ModelID: "m", InputTokens: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Fatal("record was not given an id")
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}

	closeRecorder(t, r)

	if w.count() != 1 {
		t.Fatalf("ledger has %d records, want 1", w.count())
	}
	if len(seen) != 1 || seen[0] != got.ID {
		t.Fatalf("OnWritten saw %v", seen)
	}
	if s := r.Stats(); s.Accepted != 1 || s.Written != 1 || s.Spooled != 0 {
		t.Fatalf("Stats = %+v", s)
	}
}

func TestRetriesThenSucceeds(t *testing.T) {
	w := newFlakyWriter(2)
	r, sp := newTestRecorder(t, testConfig(), w)
	_ = r.Start()

	_, _ = r.Record(model.UsageRecord{UserID: "u1", ModelID: "m"})
	closeRecorder(t, r)

	if w.count() != 1 {
		t.Fatalf("ledger has %d records, want 1", w.count())
	}
	if s := r.Stats(); s.Retries != 2 || s.LastError == "" {
		t.Fatalf("Stats = %+v, want 2 retries and a last error", s)
	}
	if n, _ := sp.Len(); n != 0 {
		t.Fatalf("spool has %d records, want 0", n)
	}
}

func TestExhaustedRetriesSpoolThenReplay(t *testing.T) {
	w := newFlakyWriter(-1)
	r, sp := newTestRecorder(t, testConfig(), w)
	_ = r.Start()

	rec, _ := r.Record(model.UsageRecord{UserID: "u1", ModelID: "m", Cost: money.Cent})
	closeRecorder(t, r)

	if w.count() != 0 {
		t.Fatal("record reached a failing ledger")
	}
	if n, _ := sp.Len(); n != 1 {
		t.Fatalf("spool has %d records, want 1", n)
	}

	// Replay while still failing keeps the record.
	res, err := r.Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Replayed != 0 || res.Pending != 1 {
		t.Fatalf("Replay = %+v", res)
	}

	w.heal()
	res, err = r.Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Replayed != 1 || res.Pending != 0 {
		t.Fatalf("Replay = %+v", res)
	}
	if got := w.records[rec.ID]; got.Cost != money.Cent || got.UserID != "u1" {
		t.Fatalf("replayed record = %+v", got)
	}
	if n, _ := sp.Len(); n != 0 {
		t.Fatalf("spool has %d records after replay, want 0", n)
	}
}

func TestQueueFullSpools(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	w := newFlakyWriter(0)
	r, sp := newTestRecorder(t, cfg, w)

	// Not started: the first record fills the queue, the second overflows.
	_, _ = r.Record(model.UsageRecord{UserID: "u1", ModelID: "m"})
	if _, err := r.Record(model.UsageRecord{UserID: "u1", ModelID: "m"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := sp.Len(); n != 1 {
		t.Fatalf("spool has %d records, want 1", n)
	}

	closeRecorder(t, r)
	if n, _ := sp.Len(); n != 2 {
		t.Fatalf("spool has %d records after close, want 2", n)
	}
}

func TestRecordAfterCloseSpools(t *testing.T) {
	r, sp := newTestRecorder(t, testConfig(), newFlakyWriter(0))
	_ = r.Start()
	closeRecorder(t, r)

	if _, err := r.Record(model.UsageRecord{UserID: "late", ModelID: "m"}); err != nil {
		t.Fatal(err)
	}
	res, _ := sp.Load()
	if len(res.Records) != 1 || res.Records[0].UserID != "late" {
		t.Fatalf("spool = %+v", res.Records)
	}
}

func TestRecordedTotalsAreExact(t *testing.T) {
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r, _ := newTestRecorder(t, testConfig(), store)
	_ = r.Start()

	const k = 40
	price := money.FromMicros(9_000)
	var want model.Totals
	for i := range k {
		rec := model.UsageRecord{
			UserID: "u1", TripID: "t1", ModelID: "claude-sonnet-4-5",
			InputTokens: int64(100 + i), OutputTokens: int64(3 * i),
		}
		rec.Cost = money.PerThousand(rec.TotalTokens(), price)
		if _, err := r.Record(rec); err != nil {
			t.Fatal(err)
		}
		want.Add(rec)
	}
	closeRecorder(t, r)

	got, err := store.Totals(context.Background(), ledger.Filter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("Totals = %+v, want %+v", got, want)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.ReplaySchedule = "every now and then"
	r, _ := newTestRecorder(t, cfg, newFlakyWriter(0))
	if err := r.Start(); err == nil {
		t.Fatal("Start accepted an invalid schedule")
	}
	closeRecorder(t, r)
}
