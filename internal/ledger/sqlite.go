package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/money"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLite is a Store backed by a local SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	// One connection serializes writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the ledger database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Insert appends a record. A record whose ID is already present is ignored.
func (s *SQLite) Insert(ctx context.Context, r model.UsageRecord) error {
	if r.ID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO usage_records
		(id, user_id, trip_id, model_id, action, input_tokens, output_tokens,
		 cost_nanos, created_at_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, nullString(r.TripID), r.ModelID, nullString(r.Action),
		r.InputTokens, r.OutputTokens, int64(r.Cost), r.CreatedAt.UnixNano(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting usage record: %w", err)
	}
	return nil
}

// InsertBatch appends records in one transaction.
func (s *SQLite) InsertBatch(ctx context.Context, records []model.UsageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO usage_records
		(id, user_id, trip_id, model_id, action, input_tokens, output_tokens,
		 cost_nanos, created_at_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if r.ID == "" {
			return ErrMissingID
		}
		_, err = stmt.ExecContext(ctx,
			r.ID, r.UserID, nullString(r.TripID), r.ModelID, nullString(r.Action),
			r.InputTokens, r.OutputTokens, int64(r.Cost), r.CreatedAt.UnixNano(), now,
		)
		if err != nil {
			return fmt.Errorf("inserting usage record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Totals counts and sums the records matching f.
func (s *SQLite) Totals(ctx context.Context, f Filter) (model.Totals, error) {
	where, args := f.where()
	var t model.Totals
	var cost int64
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
		COALESCE(SUM(cost_nanos), 0)
		FROM usage_records`+where, args...).
		Scan(&t.Requests, &t.InputTokens, &t.OutputTokens, &cost)
	if err != nil {
		return model.Totals{}, fmt.Errorf("querying usage totals: %w", err)
	}
	t.Cost = money.Amount(cost)
	return t, nil
}

// Records returns the records matching f, oldest first.
func (s *SQLite) Records(ctx context.Context, f Filter) ([]model.UsageRecord, error) {
	where, args := f.where()
	query := `SELECT id, user_id, trip_id, model_id, action, input_tokens, output_tokens,
		cost_nanos, created_at_ns FROM usage_records` + where + ` ORDER BY created_at_ns, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying usage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.UsageRecord
	for rows.Next() {
		var r model.UsageRecord
		var tripID, action sql.NullString
		var cost, createdNs int64
		if err := rows.Scan(&r.ID, &r.UserID, &tripID, &r.ModelID, &action,
			&r.InputTokens, &r.OutputTokens, &cost, &createdNs); err != nil {
			return nil, err
		}
		r.TripID = tripID.String
		r.Action = action.String
		r.Cost = money.Amount(cost)
		r.CreatedAt = time.Unix(0, createdNs).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Users returns per-user totals for records since the given time, heaviest
// spenders first.
func (s *SQLite) Users(ctx context.Context, since time.Time) ([]UserTotals, error) {
	where, args := Filter{Since: since}.where()
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, COUNT(*),
		COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
		COALESCE(SUM(cost_nanos), 0), MAX(created_at_ns)
		FROM usage_records`+where+`
		GROUP BY user_id ORDER BY SUM(cost_nanos) DESC, user_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []UserTotals
	for rows.Next() {
		var u UserTotals
		var cost, last int64
		if err := rows.Scan(&u.UserID, &u.Requests, &u.InputTokens, &u.OutputTokens, &cost, &last); err != nil {
			return nil, err
		}
		u.Cost = money.Amount(cost)
		u.LastSeen = time.Unix(0, last).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of records in the ledger.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usage_records").Scan(&count)
	return count, err
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TripID != "" {
		conds = append(conds, "trip_id = ?")
		args = append(args, f.TripID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at_ns >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at_ns < ?")
		args = append(args, f.Until.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
