// Package ledger persists immutable usage records and answers the window
// queries the quota enforcer and reporting need.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/theirongolddev/tripgate/internal/model"
)

// ErrMissingID is returned when inserting a record without an ID.
var ErrMissingID = errors.New("usage record has no id")

// Filter selects records. Zero fields do not constrain. Since is inclusive,
// Until is exclusive.
type Filter struct {
	UserID string
	TripID string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// Writer appends usage records. Insert is idempotent on record ID.
type Writer interface {
	Insert(ctx context.Context, r model.UsageRecord) error
}

// Reader answers aggregate and row queries over the ledger.
type Reader interface {
	Totals(ctx context.Context, f Filter) (model.Totals, error)
	Records(ctx context.Context, f Filter) ([]model.UsageRecord, error)
}

// Store is a full ledger.
type Store interface {
	Writer
	Reader
	Close() error
}

// UserTotals pairs a user with their totals.
type UserTotals struct {
	UserID string `json:"user_id"`
	model.Totals
	LastSeen time.Time `json:"last_seen"`
}
