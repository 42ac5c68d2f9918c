package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/money"
)

func openTestLedger(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rec(id, user, trip string, at time.Time, in, out int64, cost money.Amount) model.UsageRecord {
	return model.UsageRecord{
		ID: id, UserID: user, TripID: trip, ModelID: "claude-haiku-4-5", Action: "answer_question",
		InputTokens: in, OutputTokens: out, Cost: cost, CreatedAt: at,
	}
}

func TestInsertAndTotals(t *testing.T) {
	ctx := context.Background()
	s := openTestLedger(t)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, r := range []model.UsageRecord{
		rec("a", "u1", "t1", base, 100, 50, 450*money.Micro),
		rec("b", "u1", "t1", base.Add(30*time.Second), 10, 5, 45*money.Micro),
		rec("c", "u1", "", base.Add(2*time.Hour), 1, 1, 6*money.Micro),
		rec("d", "u2", "t1", base, 7, 7, 42*money.Micro),
	} {
		if err := s.Insert(ctx, r); err != nil {
			t.Fatalf("Insert #%d: %v", i, err)
		}
	}

	got, err := s.Totals(ctx, Filter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Requests != 3 || got.Tokens() != 167 || got.Cost != 501*money.Micro {
		t.Fatalf("u1 totals = %+v", got)
	}

	got, err = s.Totals(ctx, Filter{UserID: "u1", Since: base, Until: base.Add(time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Requests != 2 {
		t.Fatalf("u1 first-minute requests = %d, want 2", got.Requests)
	}

	got, err = s.Totals(ctx, Filter{TripID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Requests != 3 {
		t.Fatalf("trip t1 requests = %d, want 3", got.Requests)
	}

	got, err = s.Totals(ctx, Filter{UserID: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if got != (model.Totals{}) {
		t.Fatalf("empty totals = %+v", got)
	}
}

func TestInsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestLedger(t)
	r := rec("dup", "u1", "", time.Now(), 10, 10, money.Micro)

	for range 3 {
		if err := s.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	if err := s.Insert(ctx, model.UsageRecord{UserID: "u1"}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("Insert without id = %v, want ErrMissingID", err)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestLedger(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 678, time.UTC)
	want := rec("r1", "u1", "trip-9", at, 1234, 567, 12_345_678)

	if err := s.InsertBatch(ctx, []model.UsageRecord{want, rec("r2", "u1", "", at.Add(time.Second), 1, 1, 1)}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Records(ctx, Filter{UserID: "u1", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Records len = %d, want 1", len(got))
	}
	if !got[0].CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", got[0].CreatedAt, want.CreatedAt)
	}
	got[0].CreatedAt, want.CreatedAt = time.Time{}, time.Time{}
	if got[0] != want {
		t.Fatalf("Records[0] = %+v, want %+v", got[0], want)
	}

	all, err := s.Records(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[1].TripID != "" {
		t.Fatalf("all records = %+v", all)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := openTestLedger(t)
	now := time.Now().UTC()
	_ = s.Insert(ctx, rec("1", "cheap", "", now, 1, 1, money.Micro))
	_ = s.Insert(ctx, rec("2", "spender", "", now, 1, 1, money.Dollar))
	_ = s.Insert(ctx, rec("3", "spender", "", now, 1, 1, money.Dollar))
	_ = s.Insert(ctx, rec("4", "old", "", now.Add(-48*time.Hour), 1, 1, 5*money.Dollar))

	users, err := s.Users(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("Users len = %d, want 2", len(users))
	}
	if users[0].UserID != "spender" || users[0].Requests != 2 || users[0].Cost != 2*money.Dollar {
		t.Fatalf("top user = %+v", users[0])
	}
}
