package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/tui/components"
	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

func (a App) renderDailyTab(cw int) string {
	t := theme.Active
	days := a.stats.Daily

	var b strings.Builder

	if len(days) > 0 {
		vals := make([]float64, len(days))
		for i, d := range days {
			vals[len(days)-1-i] = float64(d.Tokens())
		}
		chart := components.Chart{
			Values: vals,
			Labels: chartDateLabels(days),
			Color:  t.Blue,
			Width:  components.CardInnerWidth(cw),
			Height: 8,
			Limit:  float64(a.quota.Limit.TokensPerDay),
		}
		title := "Daily Tokens"
		if chart.Limit > 0 {
			title += fmt.Sprintf(" (limit %s)", cli.FormatTokens(a.quota.Limit.TokensPerDay))
		}
		b.WriteString(components.ContentCard(title, chart.Render(), cw))
		b.WriteString("\n")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)

	var table strings.Builder
	table.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %8s %10s %10s %10s", "Date", "Calls", "Input", "Output", "Cost")))
	table.WriteString("\n")
	table.WriteString(mutedStyle.Render(strings.Repeat("─", 56)))
	table.WriteString("\n")
	for _, d := range days {
		label := d.Date.Format("Jan 02") + " " + cli.FormatDayOfWeek(int(d.Date.Weekday()))
		style := rowStyle
		if d.Requests == 0 {
			style = dimStyle
		}
		table.WriteString(style.Render(fmt.Sprintf("%-14s %8s %10s %10s",
			label,
			cli.FormatNumber(int64(d.Requests)),
			cli.FormatTokens(d.InputTokens),
			cli.FormatTokens(d.OutputTokens))))
		table.WriteString(costStyle.Render(fmt.Sprintf(" %10s", cli.FormatCost(d.Cost))))
		table.WriteString("\n")
	}
	b.WriteString(components.ContentCard("By Day", table.String(), cw))

	return b.String()
}
