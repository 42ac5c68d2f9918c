package pipeline

import (
	"sort"

	"github.com/theirongolddev/tripgate/internal/model"
)

// UnknownTier labels records whose model is not in the catalog.
const UnknownTier = "unknown"

// TierLookup resolves a model ID to its tier.
type TierLookup func(modelID string) (tier string, ok bool)

// AggregateTiers computes spend per model tier, most expensive first. The
// share is of total cost.
func AggregateTiers(records []model.UsageRecord, lookup TierLookup) []model.TierStats {
	tierMap := make(map[string]*model.TierStats)
	var total model.Totals
	for _, r := range records {
		tier, ok := lookup(r.ModelID)
		if !ok {
			tier = UnknownTier
		}
		ts, found := tierMap[tier]
		if !found {
			ts = &model.TierStats{Tier: tier}
			tierMap[tier] = ts
		}
		ts.Add(r)
		total.Add(r)
	}

	tiers := make([]model.TierStats, 0, len(tierMap))
	for _, ts := range tierMap {
		if total.Cost > 0 {
			ts.SharePercent = float64(ts.Cost) / float64(total.Cost) * 100
		}
		tiers = append(tiers, *ts)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].Cost != tiers[j].Cost {
			return tiers[i].Cost > tiers[j].Cost
		}
		return tiers[i].Tier < tiers[j].Tier
	})
	return tiers
}
