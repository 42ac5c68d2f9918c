// Package components provides reusable widgets for the watch dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// Metric is one card in a MetricCardRow. Tone colors the value and
// defaults to the primary text color.
type Metric struct {
	Label, Value, Delta string
	Tone                lipgloss.Color
}

// cardFrame is the bordered surface shared by every card. outerWidth
// includes the border.
func cardFrame(outerWidth int) lipgloss.Style {
	t := theme.Active
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1)
}

func (m Metric) render(outerWidth int) string {
	t := theme.Active
	tone := m.Tone
	if tone == "" {
		tone = t.TextPrimary
	}
	on := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface)
	}

	lines := []string{on(t.TextMuted).Render(m.Label), on(tone).Bold(true).Render(m.Value)}
	if m.Delta != "" {
		lines = append(lines, on(t.TextDim).Render(m.Delta))
	}
	return cardFrame(outerWidth).Render(strings.Join(lines, "\n"))
}

// MetricCardRow renders metric cards side by side, exactly totalWidth wide.
func MetricCardRow(cards []Metric, totalWidth int) string {
	if len(cards) == 0 {
		return ""
	}
	widths := LayoutRow(totalWidth, len(cards))
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = c.render(widths[i])
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered card with an optional title line.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active
	if title != "" {
		body = lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true).Render(title) + "\n" + body
	}
	return cardFrame(outerWidth).Render(body)
}

// CardRow joins pre-rendered card strings horizontally. Shorter cards are
// padded with background-filled lines so the row stays a solid block.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}

	tallest := 0
	for _, c := range cards {
		tallest = max(tallest, lipgloss.Height(c))
	}

	fill := lipgloss.NewStyle().Background(theme.Active.Background)
	padded := make([]string, len(cards))
	for i, c := range cards {
		w := lipgloss.Width(c)
		var b strings.Builder
		b.WriteString(c)
		for h := lipgloss.Height(c); h < tallest; h++ {
			b.WriteString("\n")
			b.WriteString(fill.Render(strings.Repeat(" ", w)))
		}
		padded[i] = b.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth is the text width inside a card of the given outer width.
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}
