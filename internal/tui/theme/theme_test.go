package theme

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestForProfileFallsBackToANSI(t *testing.T) {
	if got := ForProfile("flexoki-dark", termenv.ANSI).Name; got != "terminal" {
		t.Fatalf("ANSI profile theme = %q, want terminal", got)
	}
	if got := ForProfile("flexoki-dark", termenv.TrueColor).Name; got != "flexoki-dark" {
		t.Fatalf("TrueColor profile theme = %q, want flexoki-dark", got)
	}
	if got := ByName("missing").Name; got != "flexoki-dark" {
		t.Fatalf("ByName(missing) = %q, want flexoki-dark", got)
	}
}

func TestQuotaColor(t *testing.T) {
	th := FlexokiDark
	tests := []struct {
		pct  float64
		want string
	}{
		{0.1, string(th.Green)},
		{0.6, string(th.Yellow)},
		{0.85, string(th.Orange)},
		{1.0, string(th.Red)},
	}
	for _, tt := range tests {
		if got := string(th.QuotaColor(tt.pct)); got != tt.want {
			t.Errorf("QuotaColor(%.2f) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}
