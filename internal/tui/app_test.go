package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/tui/components"
)

type fakeSource struct {
	stats model.UserStats
	quota quota.Decision
	err   error
	days  int
}

func (f *fakeSource) UserStats(_ context.Context, _ string, days int) (model.UserStats, error) {
	f.days = days
	return f.stats, f.err
}

func (f *fakeSource) PeekQuota(context.Context, string, string) (quota.Decision, error) {
	return f.quota, f.err
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := len(tab.Name) + 2
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Fatalf("x past last tab -> %d, want -1", got)
		}
	}
}

func TestLoadDataCmd(t *testing.T) {
	src := &fakeSource{
		stats: model.UserStats{UserID: "u1", Totals: model.Totals{Requests: 3}},
		quota: quota.Decision{Allowed: true, CallerTier: config.CallerFree},
	}
	msg := loadDataCmd(src, Options{UserID: "u1", Days: 14})()
	loaded, ok := msg.(DataLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T, want DataLoadedMsg", msg)
	}
	if loaded.Err != nil || loaded.Stats.Totals.Requests != 3 || !loaded.Quota.Allowed {
		t.Fatalf("loaded = %+v", loaded)
	}
	if src.days != 14 {
		t.Fatalf("days = %d, want 14", src.days)
	}
}

func TestUpdateKeepsDataOnError(t *testing.T) {
	a := NewApp(&fakeSource{}, Options{UserID: "u1"})
	m, _ := a.Update(DataLoadedMsg{Stats: model.UserStats{Totals: model.Totals{Requests: 7}}})
	a = m.(App)

	boom := errors.New("daemon down")
	m, _ = a.Update(DataLoadedMsg{Err: boom})
	a = m.(App)
	if a.stats.Totals.Requests != 7 {
		t.Fatalf("stats replaced on error: %+v", a.stats)
	}
	if !errors.Is(a.err, boom) {
		t.Fatalf("err = %v, want %v", a.err, boom)
	}
}

func TestKeysSwitchTabsAndRange(t *testing.T) {
	a := NewApp(&fakeSource{}, Options{UserID: "u1", Days: 8})
	m, _ := a.Update(DataLoadedMsg{})
	a = m.(App)

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	a = m.(App)
	if a.activeTab != 3 {
		t.Fatalf("activeTab = %d, want 3 (Daily)", a.activeTab)
	}

	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	a = m.(App)
	if a.opts.Days != 4 || cmd == nil || !a.refreshing {
		t.Fatalf("days=%d refreshing=%v cmd=%v, want 4 with a reload", a.opts.Days, a.refreshing, cmd != nil)
	}
}

func TestViewRendersEachTab(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	a := NewApp(src, Options{UserID: "u1", Days: 2})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 130, Height: 40})
	a = m.(App)
	m, _ = a.Update(DataLoadedMsg{
		Stats: model.UserStats{
			Days:    2,
			Totals:  model.Totals{Requests: 2, InputTokens: 100, OutputTokens: 100},
			ByModel: []model.ModelStats{{Model: "claude-haiku-4-5", SharePercent: 100, Totals: model.Totals{Requests: 2}}},
			Daily: []model.DailyStats{
				{Date: now, Totals: model.Totals{Requests: 2}},
				{Date: now.AddDate(0, 0, -1)},
			},
		},
		Quota: quota.Decision{Allowed: true, CallerTier: config.CallerFree, Limit: config.DefaultLimits()[config.CallerFree]},
	})
	a = m.(App)

	for i := range components.Tabs {
		a.activeTab = i
		if a.View() == "" {
			t.Fatalf("tab %d rendered empty", i)
		}
	}
}

func TestChartDateLabels(t *testing.T) {
	d := func(m time.Month, day int) model.DailyStats {
		return model.DailyStats{Date: time.Date(2026, m, day, 0, 0, 0, 0, time.UTC)}
	}
	// newest first
	labels := chartDateLabels([]model.DailyStats{d(2, 2), d(2, 1), d(1, 31), d(1, 30)})
	want := []string{"Jan", "31", "Feb", "2"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
}

func TestSetupValuesRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	v := valuesFrom(cfg)
	v.timezone = "America/Denver"
	v.strict = true
	v.redisAddr = " 10.0.0.5:6379 "

	got := v.apply(cfg)
	if got.Quota.DayTimezone != "America/Denver" || !got.Quota.Strict || got.Redis.Addr != "10.0.0.5:6379" {
		t.Fatalf("applied config = %+v", got)
	}
	if err := validateTimezone("Mars/Olympus"); err == nil {
		t.Fatal("bogus time zone accepted")
	}
	if err := validateAddr("localhost"); err == nil {
		t.Fatal("address without port accepted")
	}
}
