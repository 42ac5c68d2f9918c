package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestRenderTableAlignsStyledCells(t *testing.T) {
	lipgloss.SetColorProfile(termenv.TrueColor)

	out := RenderTable(Table{
		Headers: []string{"Window", "Usage"},
		Rows: [][]string{
			{"Minute", RenderQuotaBar(2, 5, 10)},
			{"---"},
			{"Hour", "12/30"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("table has %d lines, want 7:\n%s", len(lines), out)
	}
	want := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != want {
			t.Errorf("line %d width = %d, want %d", i, w, want)
		}
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Fatalf("empty table = %q", got)
	}
}

func TestRenderSparklineScalesToPeak(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	if got := RenderSparkline([]float64{0, 4, 8}); got != "▁▄█" {
		t.Fatalf("RenderSparkline = %q, want ▁▄█", got)
	}
}
