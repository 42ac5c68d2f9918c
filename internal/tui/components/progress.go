package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// Utilization returns used/limit clamped to [0, 1]. A zero limit reads as
// fully used.
func Utilization(used, limit int64) float64 {
	if limit <= 0 {
		return 1
	}
	return min(1, max(0, float64(used)/float64(limit)))
}

// gauge is a solid progress bar colored by how full it is.
func gauge(pct float64, width int) string {
	t := theme.Active
	bar := progress.New(
		progress.WithSolidFill(string(t.QuotaColor(pct))),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(pct)
}

// joinOnSurface joins rendered segments with surface-colored spacers.
func joinOnSurface(spacer string, parts ...string) string {
	sp := lipgloss.NewStyle().Background(theme.Active.Surface).Render(spacer)
	return strings.Join(parts, sp)
}

// QuotaBar renders one quota window: label, bar, used/limit and the time
// until the window frees up.
func QuotaBar(label string, used, limit int64, resetsIn time.Duration, labelW, barWidth int) string {
	t := theme.Active
	pct := Utilization(used, limit)
	muted := lipgloss.NewStyle().Background(t.Surface)

	parts := []string{
		muted.Foreground(t.TextMuted).Render(fmt.Sprintf("%-*s", labelW, label)),
		gauge(pct, barWidth),
		muted.Foreground(t.QuotaColor(pct)).Bold(true).Render(fmt.Sprintf("%d/%d", used, limit)),
	}
	if resetsIn > 0 {
		parts = append(parts, muted.Foreground(t.TextDim).Render(" resets in "+formatCountdown(resetsIn)))
	}
	return joinOnSurface(" ", parts...)
}

// CompactRateBar is a status-bar-sized gauge with a percentage.
func CompactRateBar(label string, pct float64, width int) string {
	t := theme.Active
	pct = min(1, max(0, pct))
	style := lipgloss.NewStyle().Background(t.Surface)

	return joinOnSurface(" ",
		style.Foreground(t.TextMuted).Render(label),
		gauge(pct, max(4, width-lipgloss.Width(label)-6)),
		style.Foreground(t.QuotaColor(pct)).Bold(true).Render(fmt.Sprintf("%3.0f%%", pct*100)),
	)
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d/time.Hour), int(d/time.Minute)%60, int(d/time.Second)%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
