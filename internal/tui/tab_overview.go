package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/money"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/tui/components"
	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	var b strings.Builder

	// Row 1: quota windows
	b.WriteString(a.renderQuotaCard(cw))
	b.WriteString("\n")

	// Row 2: metric cards
	stats := a.stats
	tot := stats.Totals
	days := max(1, stats.Days)
	cards := []components.Metric{
		{Label: "Requests", Value: cli.FormatNumber(int64(tot.Requests)), Delta: fmt.Sprintf("%.1f/day", float64(tot.Requests)/float64(days))},
		{Label: "Tokens", Value: cli.FormatTokens(tot.Tokens()), Delta: cli.FormatTokens(tot.OutputTokens) + " out"},
		{Label: "Cost", Value: cli.FormatCost(tot.Cost), Delta: cli.FormatCost(tot.Cost/money.Amount(days)) + "/day"},
		{
			Label: "Today",
			Value: cli.FormatCost(a.quota.Stats.CostToday),
			Delta: cli.FormatTokens(a.quota.Stats.TokensToday) + " tokens",
			Tone:  theme.Active.QuotaColor(components.Utilization(a.quota.Stats.TokensToday, a.quota.Limit.TokensPerDay)),
		},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 3: daily cost chart
	if len(stats.Daily) > 0 {
		t := theme.Active
		vals := make([]float64, len(stats.Daily))
		for i, d := range stats.Daily {
			vals[len(stats.Daily)-1-i] = d.Cost.Float()
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 6
		}
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Spend (%dd)", a.opts.Days),
			components.BarChart(vals, chartDateLabels(stats.Daily), t.Green, components.CardInnerWidth(cw), chartH, components.DollarLabel),
			cw,
		))
	}

	return b.String()
}

func (a App) renderQuotaCard(cw int) string {
	t := theme.Active
	q := a.quota
	lim := q.Limit
	now := time.Now()

	innerW := components.CardInnerWidth(cw)
	labelW := 8
	barW := max(10, innerW-labelW-30)

	var minuteReset, hourReset time.Duration
	switch q.Window {
	case quota.WindowMinute:
		minuteReset = q.Stats.RetryAfter
	case quota.WindowHour:
		hourReset = q.Stats.RetryAfter
	}

	var body strings.Builder
	body.WriteString(components.QuotaBar("Minute", int64(q.Stats.RequestsLastMinute), lim.RequestsPerMinute, minuteReset, labelW, barW))
	body.WriteString("\n")
	body.WriteString(components.QuotaBar("Hour", int64(q.Stats.RequestsLastHour), lim.RequestsPerHour, hourReset, labelW, barW))
	body.WriteString("\n")
	var dayReset time.Duration
	if !q.Stats.ResetsAt.IsZero() {
		dayReset = q.Stats.ResetsAt.Sub(now)
	}
	body.WriteString(components.QuotaBar("Tokens", q.Stats.TokensToday, lim.TokensPerDay, dayReset, labelW, barW))
	body.WriteString("\n\n")

	okStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Bold(true)
	blockedStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if q.Allowed {
		body.WriteString(okStyle.Render("● allowed"))
		body.WriteString(mutedStyle.Render(fmt.Sprintf("  %d requests and %s tokens left",
			q.Stats.RemainingRequests, cli.FormatTokens(q.Stats.RemainingTokens))))
	} else {
		body.WriteString(blockedStyle.Render("● blocked"))
		body.WriteString(mutedStyle.Render("  " + q.Reason))
	}

	return components.ContentCard(fmt.Sprintf("Quota (%s)", q.CallerTier), body.String(), cw)
}
