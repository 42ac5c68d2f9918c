package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/recorder"
	"github.com/theirongolddev/tripgate/internal/router"
)

type testRuntime struct {
	*Runtime
	written chan model.UsageRecord
}

func openTestRuntime(t *testing.T, mutate func(*config.Config)) *testRuntime {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Ledger.Path = filepath.Join(dir, "ledger.db")
	cfg.Recorder.SpoolPath = filepath.Join(dir, "spool.jsonl")
	cfg.Recorder.ReplaySchedule = ""
	cfg.Recorder.RetryBase = config.Duration{Duration: time.Millisecond}
	if mutate != nil {
		mutate(&cfg)
	}

	written := make(chan model.UsageRecord, 64)
	rt, err := Open(context.Background(), cfg, zerolog.Nop(),
		recorder.OnWritten(func(r model.UsageRecord) { written <- r }))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return &testRuntime{Runtime: rt, written: written}
}

func (tr *testRuntime) record(t *testing.T, e UsageEntry) model.UsageRecord {
	t.Helper()
	rec, err := tr.RecordUsage(e)
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	select {
	case got := <-tr.written:
		if got.ID != rec.ID {
			t.Fatalf("written %s, want %s", got.ID, rec.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("usage record was not written")
	}
	return rec
}

func TestOverrideScenario(t *testing.T) {
	tr := openTestRuntime(t, nil)

	msg := "Swap the afternoon tour for a cooking class"
	c := tr.Classify(msg, 0)
	if c.Complexity != router.Medium {
		t.Fatalf("precondition: %s, want medium", c.Complexity)
	}
	if got := tr.ResolveTier("full_redesign", &c); got != router.TierPowerful {
		t.Fatalf("ResolveTier = %s, want powerful", got)
	}
	if m := tr.SelectModel(router.TierPowerful); m.Tier != router.TierPowerful {
		t.Fatalf("SelectModel = %+v", m)
	}
}

func TestAdmitAndRecordMinuteLimit(t *testing.T) {
	tr := openTestRuntime(t, nil)
	ctx := context.Background()

	req := AdmitRequest{UserID: "u1", CallerTier: config.CallerFree, Message: "What time does the Colosseum open?"}
	for i := range 5 {
		adm, err := tr.Admit(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		if !adm.Quota.Allowed {
			t.Fatalf("call %d blocked: %s", i+1, adm.Quota.Reason)
		}
		if adm.Route.Tier != router.TierFast {
			t.Fatalf("Route.Tier = %s, want fast", adm.Route.Tier)
		}
		tr.record(t, UsageEntry{UserID: "u1", ModelID: adm.Route.Model.ID, Action: "answer_question",
			InputTokens: 40, OutputTokens: 60})
	}

	adm, err := tr.Admit(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if adm.Quota.Allowed || adm.Quota.Window != quota.WindowMinute {
		t.Fatalf("6th call: %+v", adm.Quota)
	}
}

func TestDailyOverrunScenario(t *testing.T) {
	tr := openTestRuntime(t, nil)
	ctx := context.Background()
	daily := config.DefaultLimits()[config.CallerFree].TokensPerDay

	tr.record(t, UsageEntry{UserID: "u2", ModelID: "claude-haiku-4-5", InputTokens: daily - 1})

	d, err := tr.CheckQuota(ctx, "u2", config.CallerFree)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatalf("check with one token left blocked: %s", d.Reason)
	}

	tr.record(t, UsageEntry{UserID: "u2", ModelID: "claude-haiku-4-5", InputTokens: 20, OutputTokens: 30})

	d, err = tr.CheckQuota(ctx, "u2", config.CallerFree)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Window != quota.WindowDay {
		t.Fatalf("after overrun: %+v", d)
	}
}

func TestRecordUsageComputesCost(t *testing.T) {
	tr := openTestRuntime(t, nil)

	rec := tr.record(t, UsageEntry{UserID: "u3", TripID: "trip-1", ModelID: "claude-sonnet-4-5-20250929",
		Action: "swap_activity", InputTokens: 1200, OutputTokens: 800})
	if rec.ModelID != "claude-sonnet-4-5" {
		t.Fatalf("ModelID = %q, want normalized", rec.ModelID)
	}
	m, _ := tr.Router().Catalog().Lookup("claude-sonnet-4-5")
	if want := router.EstimateCost(m, 1200, 800); rec.Cost != want {
		t.Fatalf("Cost = %s, want %s", rec.Cost, want)
	}

	ts, err := tr.TripStats(context.Background(), "trip-1")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Totals.Requests != 1 || ts.Totals.Cost != rec.Cost {
		t.Fatalf("TripStats = %+v", ts)
	}

	us, err := tr.UserStats(context.Background(), "u3", 7)
	if err != nil {
		t.Fatal(err)
	}
	if us.Totals.Tokens() != 2000 || len(us.Daily) != 7 || len(us.ByModel) != 1 {
		t.Fatalf("UserStats = %+v", us)
	}

	spend, err := tr.TierSpend(context.Background(), "u3", 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(spend) != 1 || spend[0].Tier != "standard" {
		t.Fatalf("TierSpend = %+v", spend)
	}
}

func TestValidation(t *testing.T) {
	tr := openTestRuntime(t, nil)
	ctx := context.Background()

	if _, err := tr.RecordUsage(UsageEntry{ModelID: "m"}); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("missing user: %v", err)
	}
	if _, err := tr.RecordUsage(UsageEntry{UserID: "u", ModelID: "m", InputTokens: -1}); !errors.Is(err, ErrInvalidUsage) {
		t.Fatalf("negative tokens: %v", err)
	}
	if _, err := tr.RecordUsage(UsageEntry{UserID: "u"}); !errors.Is(err, ErrInvalidUsage) {
		t.Fatalf("missing model: %v", err)
	}
	if d, err := tr.CheckQuota(ctx, "", config.CallerFree); !errors.Is(err, ErrMissingUser) || d.Allowed {
		t.Fatalf("missing user check: %+v %v", d, err)
	}
	if _, err := tr.TripStats(ctx, ""); !errors.Is(err, ErrMissingTrip) {
		t.Fatalf("missing trip: %v", err)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog = nil
	if _, err := Open(context.Background(), cfg, zerolog.Nop()); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Open = %v, want ErrInvalid", err)
	}
}
