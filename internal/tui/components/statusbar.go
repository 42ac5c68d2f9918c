package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Source      string
	DataAge     string
	MinutePct   float64
	Refreshing  bool
	AutoRefresh bool
	Err         error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	accent := style.Foreground(t.Accent)
	errStyle := style.Foreground(t.Red)

	left := style.Render(" [?]help  [r]efresh  [q]uit  ") + accent.Render(info.Source)

	var right []string
	switch {
	case info.Err != nil:
		right = append(right, errStyle.Render(info.Err.Error()))
	case info.Refreshing:
		right = append(right, accent.Render("refreshing"))
	}
	right = append(right, CompactRateBar("min", info.MinutePct, 16))
	if info.AutoRefresh {
		right = append(right, style.Render("auto"))
	}
	if info.DataAge != "" {
		right = append(right, style.Render(fmt.Sprintf("Data: %s ", info.DataAge)))
	}
	rightStr := strings.Join(right, style.Render("  "))

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(rightStr))
	return left + style.Render(strings.Repeat(" ", padding)) + rightStr
}
