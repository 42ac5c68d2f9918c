// Package theme defines color themes for the tripgate watch dashboard.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the colors the dashboard draws with.
type Theme struct {
	Name string

	// Surfaces
	Background   lipgloss.Color
	Surface      lipgloss.Color // cards and panels
	SurfaceHover lipgloss.Color // active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color

	// Text, lowest contrast first
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Green       lipgloss.Color
	GreenBright lipgloss.Color
	Yellow      lipgloss.Color
	Orange      lipgloss.Color
	Red         lipgloss.Color
	Blue        lipgloss.Color
	BlueBright  lipgloss.Color
	Magenta     lipgloss.Color
	Cyan        lipgloss.Color
}

// FlexokiDark is the default warm dark palette.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   "#100F0F",
	Surface:      "#1C1B1A",
	SurfaceHover: "#282726",
	Border:       "#403E3C",
	BorderAccent: "#3AA99F",
	TextDim:      "#575653",
	TextMuted:    "#878580",
	TextPrimary:  "#FFFCF0",
	Accent:       "#3AA99F",
	AccentBright: "#5BC8BE",
	Green:        "#879A39",
	GreenBright:  "#A3B859",
	Yellow:       "#D0A215",
	Orange:       "#DA702C",
	Red:          "#D14D41",
	Blue:         "#4385BE",
	BlueBright:   "#6BA3D6",
	Magenta:      "#CE5D97",
	Cyan:         "#24837B",
}

// Terminal sticks to the 16 ANSI colors so it renders on any terminal.
var Terminal = Theme{
	Name:         "terminal",
	Background:   "0",
	Surface:      "0",
	SurfaceHover: "8",
	Border:       "8",
	BorderAccent: "6",
	TextDim:      "8",
	TextMuted:    "7",
	TextPrimary:  "15",
	Accent:       "6",
	AccentBright: "14",
	Green:        "2",
	GreenBright:  "10",
	Yellow:       "3",
	Orange:       "3",
	Red:          "1",
	Blue:         "4",
	BlueBright:   "12",
	Magenta:      "5",
	Cyan:         "6",
}

// All lists the selectable themes, default first.
var All = []Theme{FlexokiDark, Terminal}

// Active is the theme the dashboard renders with.
var Active = FlexokiDark

// ByName returns the named theme, or FlexokiDark when there is none.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// ForProfile picks the named theme unless the terminal cannot render
// hex colors, in which case the ANSI palette is used.
func ForProfile(name string, p termenv.Profile) Theme {
	if p == termenv.ANSI || p == termenv.Ascii {
		return Terminal
	}
	return ByName(name)
}

// Names lists the available theme names.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// QuotaColor maps window utilization to green, yellow, orange or red.
func (t Theme) QuotaColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 1:
		return t.Red
	case pct >= 0.8:
		return t.Orange
	case pct >= 0.5:
		return t.Yellow
	default:
		return t.Green
	}
}
