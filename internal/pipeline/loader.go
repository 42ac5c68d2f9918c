package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/model"
)

// UserStats loads a user's records for the trailing days (today included)
// and aggregates them. Day boundaries are taken in loc.
func UserStats(ctx context.Context, r ledger.Reader, userID string, days int, now time.Time, loc *time.Location) (model.UserStats, error) {
	if days <= 0 {
		days = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	until := startOfDay(now.In(loc)).AddDate(0, 0, 1)
	since := until.AddDate(0, 0, -days)

	records, err := r.Records(ctx, ledger.Filter{UserID: userID, Since: since, Until: until})
	if err != nil {
		return model.UserStats{}, fmt.Errorf("loading usage for user %s: %w", userID, err)
	}

	return model.UserStats{
		UserID:   userID,
		Days:     days,
		Since:    since,
		Totals:   Aggregate(records, time.Time{}, time.Time{}),
		ByModel:  AggregateModels(records),
		ByAction: AggregateActions(records),
		Daily:    AggregateDays(records, since, until, loc),
	}, nil
}

// TripStats loads every record attributed to a trip and aggregates them.
func TripStats(ctx context.Context, r ledger.Reader, tripID string) (model.TripStats, error) {
	records, err := r.Records(ctx, ledger.Filter{TripID: tripID})
	if err != nil {
		return model.TripStats{}, fmt.Errorf("loading usage for trip %s: %w", tripID, err)
	}

	ts := model.TripStats{
		TripID:   tripID,
		Totals:   Aggregate(records, time.Time{}, time.Time{}),
		ByAction: AggregateActions(records),
	}
	if len(records) > 0 {
		ts.FirstSeen = records[0].CreatedAt
		ts.LastSeen = records[len(records)-1].CreatedAt
	}
	return ts, nil
}
