package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// Tab is one dashboard view. KeyPos indexes the shortcut letter in Name,
// which is drawn underlined.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int
}

// Tabs lists the dashboard views in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Models", Key: 'm', KeyPos: 0},
	{Name: "Actions", Key: 'a', KeyPos: 0},
	{Name: "Daily", Key: 'd', KeyPos: 0},
}

const (
	tabPad = 1 // columns of padding each side of a name
	tabGap = 1 // columns between tabs
)

func (tab Tab) width() int { return lipgloss.Width(tab.Name) + 2*tabPad }

func (tab Tab) render(active bool) string {
	t := theme.Active
	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if active {
		base = base.Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	}
	pad := base.Render(strings.Repeat(" ", tabPad))

	name := []rune(tab.Name)
	if tab.KeyPos < 0 || tab.KeyPos >= len(name) {
		return pad + base.Render(tab.Name) + pad
	}
	return pad +
		base.Render(string(name[:tab.KeyPos])) +
		base.Underline(true).Render(string(name[tab.KeyPos])) +
		base.Render(string(name[tab.KeyPos+1:])) +
		pad
}

// RenderTabBar draws the tab row, filled to width.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	gap := lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", tabGap))

	var b strings.Builder
	for i, tab := range Tabs {
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(tab.render(i == activeIdx))
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(b.String())
}

// TabAt returns the index of the tab drawn at column x, or -1.
func TabAt(x int) int {
	pos := 0
	for i, tab := range Tabs {
		w := tab.width()
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + tabGap
	}
	return -1
}

// TabIdxByKey returns the tab for a shortcut key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
