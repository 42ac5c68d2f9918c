// Package pipeline turns ledger records into the report shapes served to
// clients: per-user and per-trip summaries, daily series and breakdowns.
package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/tripgate/internal/model"
)

const dayKeyLayout = "2006-01-02"

// Aggregate sums records within [since, until).
func Aggregate(records []model.UsageRecord, since, until time.Time) model.Totals {
	var t model.Totals
	for _, r := range FilterByTime(records, since, until) {
		t.Add(r)
	}
	return t
}

// AggregateDays computes per-day totals in loc. Every day from since to until
// is present, zero-filled, most recent first.
func AggregateDays(records []model.UsageRecord, since, until time.Time, loc *time.Location) []model.DailyStats {
	if loc == nil {
		loc = time.UTC
	}
	filtered := FilterByTime(records, since, until)

	dayMap := make(map[string]*model.DailyStats)
	for _, r := range filtered {
		local := r.CreatedAt.In(loc)
		key := local.Format(dayKeyLayout)
		ds, ok := dayMap[key]
		if !ok {
			ds = &model.DailyStats{Date: startOfDay(local)}
			dayMap[key] = ds
		}
		ds.Add(r)
	}

	// Fill in every day in the range so the chart shows gaps as zeros
	if !since.IsZero() && !until.IsZero() {
		day := startOfDay(since.In(loc))
		end := until.In(loc)
		for day.Before(end) {
			key := day.Format(dayKeyLayout)
			if _, ok := dayMap[key]; !ok {
				dayMap[key] = &model.DailyStats{Date: day}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// AggregateModels computes per-model totals, most expensive first.
func AggregateModels(records []model.UsageRecord) []model.ModelStats {
	modelMap := make(map[string]*model.ModelStats)
	total := 0
	for _, r := range records {
		ms, ok := modelMap[r.ModelID]
		if !ok {
			ms = &model.ModelStats{Model: r.ModelID}
			modelMap[r.ModelID] = ms
		}
		ms.Add(r)
		total++
	}

	models := make([]model.ModelStats, 0, len(modelMap))
	for _, ms := range modelMap {
		ms.SharePercent = share(ms.Requests, total)
		models = append(models, *ms)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Cost != models[j].Cost {
			return models[i].Cost > models[j].Cost
		}
		return models[i].Model < models[j].Model
	})
	return models
}

// UnspecifiedAction labels records that carried no action.
const UnspecifiedAction = "(none)"

// AggregateActions computes per-action totals, most requested first.
func AggregateActions(records []model.UsageRecord) []model.ActionStats {
	actionMap := make(map[string]*model.ActionStats)
	for _, r := range records {
		name := r.Action
		if name == "" {
			name = UnspecifiedAction
		}
		as, ok := actionMap[name]
		if !ok {
			as = &model.ActionStats{Action: name}
			actionMap[name] = as
		}
		as.Add(r)
	}

	actions := make([]model.ActionStats, 0, len(actionMap))
	for _, as := range actionMap {
		as.SharePercent = share(as.Requests, len(records))
		actions = append(actions, *as)
	}
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Requests != actions[j].Requests {
			return actions[i].Requests > actions[j].Requests
		}
		return actions[i].Action < actions[j].Action
	})
	return actions
}

// AggregateHourly computes request counts by hour of day in loc.
func AggregateHourly(records []model.UsageRecord, loc *time.Location) []model.HourlyStats {
	if loc == nil {
		loc = time.UTC
	}
	hours := make([]model.HourlyStats, 24)
	for i := range hours {
		hours[i].Hour = i
	}
	for _, r := range records {
		h := r.CreatedAt.In(loc).Hour()
		hours[h].Requests++
		hours[h].Tokens += r.TotalTokens()
	}
	return hours
}

// FilterByTime returns records created within [since, until). Zero bounds
// do not constrain.
func FilterByTime(records []model.UsageRecord, since, until time.Time) []model.UsageRecord {
	if since.IsZero() && until.IsZero() {
		return records
	}
	var result []model.UsageRecord
	for _, r := range records {
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !r.CreatedAt.Before(until) {
			continue
		}
		result = append(result, r)
	}
	return result
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
