package model

import (
	"time"

	"github.com/theirongolddev/tripgate/internal/money"
)

// Totals is the sum over a set of usage records.
type Totals struct {
	Requests     int          `json:"requests"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	Cost         money.Amount `json:"cost"`
}

// Tokens returns input plus output tokens.
func (t Totals) Tokens() int64 {
	return t.InputTokens + t.OutputTokens
}

// Add folds one record into the totals.
func (t *Totals) Add(r UsageRecord) {
	t.Requests++
	t.InputTokens += r.InputTokens
	t.OutputTokens += r.OutputTokens
	t.Cost += r.Cost
}

// DailyStats holds usage for a single calendar day.
type DailyStats struct {
	Date time.Time `json:"date"`
	Totals
}

// ModelStats holds aggregated usage for a single model.
type ModelStats struct {
	Model        string  `json:"model"`
	SharePercent float64 `json:"share_percent"`
	Totals
}

// ActionStats holds aggregated usage for a single action type.
type ActionStats struct {
	Action       string  `json:"action"`
	SharePercent float64 `json:"share_percent"`
	Totals
}

// UserStats summarizes one user's usage over a trailing window of days.
type UserStats struct {
	UserID   string        `json:"user_id"`
	Days     int           `json:"days"`
	Since    time.Time     `json:"since"`
	Totals   Totals        `json:"totals"`
	ByModel  []ModelStats  `json:"by_model"`
	ByAction []ActionStats `json:"by_action"`
	Daily    []DailyStats  `json:"daily"`
}

// TripStats summarizes all usage attributed to one trip.
type TripStats struct {
	TripID    string        `json:"trip_id"`
	Totals    Totals        `json:"totals"`
	ByAction  []ActionStats `json:"by_action"`
	FirstSeen time.Time     `json:"first_seen,omitzero"`
	LastSeen  time.Time     `json:"last_seen,omitzero"`
}

// HourlyStats holds request and token counts for one hour of the day.
type HourlyStats struct {
	Hour     int   `json:"hour"`
	Requests int   `json:"requests"`
	Tokens   int64 `json:"tokens"`
}

// TierStats holds aggregated usage for one model tier.
type TierStats struct {
	Tier         string  `json:"tier"`
	SharePercent float64 `json:"share_percent"`
	Totals
}
