package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.Active = theme.FlexokiDark

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("padding line %d has no ANSI codes", i)
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.Active = theme.FlexokiDark

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	widths := LayoutRow(101, 4)
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 101 || widths[0] != 26 || widths[3] != 25 {
		t.Fatalf("LayoutRow(101, 4) = %v", widths)
	}
}

func TestUtilization(t *testing.T) {
	if got := Utilization(3, 5); got != 0.6 {
		t.Fatalf("Utilization(3, 5) = %v, want 0.6", got)
	}
	if got := Utilization(9, 5); got != 1 {
		t.Fatalf("Utilization(9, 5) = %v, want 1", got)
	}
	if got := Utilization(0, 0); got != 1 {
		t.Fatalf("Utilization(0, 0) = %v, want 1", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 5*time.Minute, "3h 5m"},
	}
	for _, tt := range tests {
		if got := formatCountdown(tt.in); got != tt.want {
			t.Errorf("formatCountdown(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBarChartUsesLabelFunc(t *testing.T) {
	out := BarChart([]float64{0.5, 1.5, 3}, []string{"a", "b", "c"}, theme.Active.Blue, 40, 6, DollarLabel)
	if !strings.Contains(out, "$") {
		t.Fatalf("dollar ticks missing from chart:\n%s", out)
	}
}

func TestChartDrawsLimitLine(t *testing.T) {
	theme.Active = theme.FlexokiDark
	c := Chart{Values: []float64{10, 50}, Labels: []string{"Mon", "Tue"}, Color: theme.Active.Blue, Width: 40, Height: 8, Limit: 30}
	out := c.Render()
	if !strings.Contains(out, "┄") {
		t.Fatalf("limit line missing from chart:\n%s", out)
	}
	if !strings.Contains(BarChart(c.Values, c.Labels, c.Color, 40, 8, nil), "Tue") {
		t.Fatal("x-axis label missing")
	}
}

func TestTabAtSkipsGaps(t *testing.T) {
	first := len(Tabs[0].Name) + 2
	if got := TabAt(0); got != 0 {
		t.Fatalf("TabAt(0) = %d, want 0", got)
	}
	if got := TabAt(first); got != -1 {
		t.Fatalf("TabAt(gap) = %d, want -1", got)
	}
	if got := TabAt(first + 1); got != 1 {
		t.Fatalf("TabAt(%d) = %d, want 1", first+1, got)
	}
	if got := TabAt(-1); got != -1 {
		t.Fatalf("TabAt(-1) = %d, want -1", got)
	}
}

func TestQuotaBarShowsCounts(t *testing.T) {
	out := QuotaBar("minute", 3, 5, 30*time.Second, 6, 10)
	for _, want := range []string{"minute", "3/5", "resets in 30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("QuotaBar missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(QuotaBar("day", 0, 5, 0, 6, 10), "resets") {
		t.Fatal("idle window should not show a countdown")
	}
}
