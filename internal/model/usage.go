// Package model defines domain types for tripgate usage and quota accounting.
package model

import (
	"time"

	"github.com/theirongolddev/tripgate/internal/money"
)

// UsageRecord is one immutable ledger entry for a completed AI call.
type UsageRecord struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	TripID       string       `json:"trip_id,omitempty"`
	ModelID      string       `json:"model_id"`
	Action       string       `json:"action,omitempty"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	Cost         money.Amount `json:"cost"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TotalTokens returns input plus output tokens.
func (r UsageRecord) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens
}

// UsageStats is the per-check view of a user's consumption against limits.
// It is derived from the ledger on every check and never cached.
type UsageStats struct {
	RequestsLastMinute int           `json:"requests_last_minute"`
	RequestsLastHour   int           `json:"requests_last_hour"`
	TokensToday        int64         `json:"tokens_today"`
	CostToday          money.Amount  `json:"cost_today"`
	Blocked            bool          `json:"blocked"`
	RemainingRequests  int           `json:"remaining_requests"`
	RemainingTokens    int64         `json:"remaining_tokens"`
	RetryAfter         time.Duration `json:"retry_after,omitempty"`
	ResetsAt           time.Time     `json:"resets_at"`
}
