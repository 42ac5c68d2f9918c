package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/router"
)

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Records: 10, Written: 10, Spooled: 1, SpoolPending: 1}
	curr := Snapshot{Records: 14, Written: 15, Spooled: 1, SpoolPending: 0}

	delta := diffSnapshots(prev, curr)
	if delta.Records != 4 {
		t.Fatalf("Records delta = %d, want 4", delta.Records)
	}
	if delta.Written != 5 {
		t.Fatalf("Written delta = %d, want 5", delta.Written)
	}
	if delta.SpoolPending != -1 {
		t.Fatalf("SpoolPending delta = %d, want -1", delta.SpoolPending)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	}, zerolog.Nop())

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func newTestServer(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Ledger.Path = filepath.Join(dir, "ledger.db")
	cfg.Recorder.SpoolPath = filepath.Join(dir, "spool.jsonl")
	cfg.Recorder.ReplaySchedule = ""

	svc := New(Config{EventsBuffer: 100}, zerolog.Nop())
	rt, err := gateway.Open(context.Background(), cfg, zerolog.Nop(), svc.UsageHook())
	if err != nil {
		t.Fatalf("gateway.Open: %v", err)
	}
	srv := httptest.NewServer(svc.Handler(rt))
	t.Cleanup(func() {
		srv.Close()
		_ = rt.Close(context.Background())
	})
	return svc, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func (s *Service) countEvents(typ string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ev := range s.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func waitForEvents(t *testing.T, s *Service, typ string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.countEvents(typ) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s events = %d, want %d", typ, s.countEvents(typ), want)
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestClassifyAndRoute(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/classify", ClassifyRequest{Message: "Redesign the whole trip around the festival dates"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("classify status = %d, want 200", resp.StatusCode)
	}
	var c router.Classification
	decode(t, resp, &c)
	if c.Complexity != router.Complex {
		t.Fatalf("complexity = %s, want complex", c.Complexity)
	}

	resp = postJSON(t, srv.URL+"/v1/route", router.Request{Message: "What time is it in Lisbon?"})
	var d router.Decision
	decode(t, resp, &d)
	if d.Tier != router.TierFast {
		t.Fatalf("route tier = %s, want fast", d.Tier)
	}
}

func TestUsageThenQuotaBlocked(t *testing.T) {
	svc, srv := newTestServer(t)
	limit := config.DefaultLimits()[config.CallerFree].RequestsPerMinute

	for i := int64(0); i < limit; i++ {
		resp := postJSON(t, srv.URL+"/v1/usage", gateway.UsageEntry{
			UserID: "u1", TripID: "t1", ModelID: "claude-haiku-4-5",
			InputTokens: 100, OutputTokens: 50,
		})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("usage status = %d, want 202", resp.StatusCode)
		}
		var acc UsageAccepted
		decode(t, resp, &acc)
		if acc.ID == "" {
			t.Fatal("accepted usage has no id")
		}
	}
	waitForEvents(t, svc, EventUsageRecorded, int(limit))

	resp := postJSON(t, srv.URL+"/v1/quota/check", QuotaCheckRequest{UserID: "u1", Tier: config.CallerFree})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quota status = %d, want 200", resp.StatusCode)
	}
	var d quota.Decision
	decode(t, resp, &d)
	if d.Allowed {
		t.Fatal("quota allowed after reaching the minute limit")
	}
	if d.Window != quota.WindowMinute {
		t.Fatalf("window = %q, want minute", d.Window)
	}
	if n := svc.countEvents(EventQuotaBlocked); n != 1 {
		t.Fatalf("quota_blocked events = %d, want 1", n)
	}
	if st := svc.snapshotStatus(); st.Blocked != 1 {
		t.Fatalf("status blocked = %d, want 1", st.Blocked)
	}

	stats, err := http.Get(srv.URL + "/v1/trips/t1/stats")
	if err != nil {
		t.Fatalf("GET trip stats: %v", err)
	}
	defer stats.Body.Close()
	var ts model.TripStats
	decode(t, stats, &ts)
	if ts.Totals.Requests != int(limit) {
		t.Fatalf("trip requests = %d, want %d", ts.Totals.Requests, limit)
	}
}

func TestBadRequests(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/quota/check", QuotaCheckRequest{Tier: config.CallerFree})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing user status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/v1/usage", gateway.UsageEntry{UserID: "u1", ModelID: "claude-haiku-4-5", InputTokens: -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative tokens status = %d, want 400", resp.StatusCode)
	}

	get, err := http.Get(srv.URL + "/v1/users/u1/stats?days=0")
	if err != nil {
		t.Fatalf("GET user stats: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusBadRequest {
		t.Fatalf("days=0 status = %d, want 400", get.StatusCode)
	}
}

func TestStreamSendsSnapshotFirst(t *testing.T) {
	_, srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /v1/stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if strings.TrimSpace(line) != "event: snapshot" {
		t.Fatalf("first line = %q, want event: snapshot", line)
	}
}
