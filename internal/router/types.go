// Package router picks the model tier and concrete model for a request.
//
// A request is classified from its message text unless the caller names a
// known action, in which case the action's tier always wins. The tier is then
// resolved against the model catalog and a cost estimate is attached.
package router

import (
	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/money"
)

// Tier is a model cost class.
type Tier string

const (
	TierFast     Tier = config.TierFast
	TierStandard Tier = config.TierStandard
	TierPowerful Tier = config.TierPowerful
)

// Tiers lists every tier, cheapest first.
var Tiers = []Tier{TierFast, TierStandard, TierPowerful}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return config.IsModelTier(string(t))
}

// Complexity is the classifier's estimate of task difficulty.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Classification is the result of classifying one message.
type Classification struct {
	Complexity      Complexity `json:"complexity"`
	RecommendedTier Tier       `json:"recommended_tier"`
	EstimatedTokens int64      `json:"estimated_tokens"`
	RequiresContext bool       `json:"requires_context"`
	Rule            string     `json:"rule"`
}

// ModelConfig describes one catalog model.
type ModelConfig struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Tier             Tier         `json:"tier"`
	CostPer1K        money.Amount `json:"cost_per_1k"`
	MaxContextTokens int          `json:"max_context_tokens"`
	Streaming        bool         `json:"streaming"`
	BestFor          []string     `json:"best_for,omitempty"`
}

// Request is the routing input.
type Request struct {
	Message       string `json:"message"`
	ContextTokens int64  `json:"context_tokens"`
	Action        string `json:"action,omitempty"`
}

// Decision is the full routing outcome for one request.
type Decision struct {
	Classification Classification `json:"classification"`
	Tier           Tier           `json:"tier"`
	Model          ModelConfig    `json:"model"`
	ActionOverride bool           `json:"action_override"`
	Fallback       bool           `json:"fallback"`
	InputTokens    int64          `json:"estimated_input_tokens"`
	OutputTokens   int64          `json:"estimated_output_tokens"`
	EstimatedCost  money.Amount   `json:"estimated_cost"`
	Reason         string         `json:"reason"`
}
