package router

import (
	"math"

	"github.com/theirongolddev/tripgate/internal/money"
)

// EstimateCost prices a call on m. Input and output tokens are billed at the
// same per-1K rate, so the result is linear in both arguments and exact.
// Negative counts are treated as zero.
func EstimateCost(m ModelConfig, inputTokens, outputTokens int64) money.Amount {
	return money.PerThousand(max(inputTokens, 0)+max(outputTokens, 0), m.CostPer1K)
}

// outputEstimate projects output tokens from an input estimate.
func outputEstimate(input int64, ratio float64) int64 {
	if ratio <= 0 || input <= 0 {
		return 0
	}
	return int64(math.Round(float64(input) * ratio))
}
