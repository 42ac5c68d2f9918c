package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/tripgate/internal/money"
)

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   money.Amount
		want string
	}{
		{0, "$0.00"},
		{money.Micro * 50, "<$0.0001"},
		{money.Micro * 4200, "$0.0042"},
		{money.Cent * 123, "$1.23"},
		{money.Dollar*12 + money.Cent*34, "$12.3"},
		{money.Dollar * 250, "$250"},
		{money.Dollar * 12345, "$12,345"},
		{-money.Cent * 5, "-$0.05"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%d) = %q, want %q", int64(tt.in), got, tt.want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{999, "999"},
		{1234, "1.2K"},
		{1234567, "1.2M"},
		{1234567890, "1.2B"},
	}
	for _, tt := range tests {
		if got := FormatTokens(tt.in); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatWait(t *testing.T) {
	if got := FormatWait(0); got != "now" {
		t.Fatalf("FormatWait(0) = %q, want now", got)
	}
	if got := FormatWait(1500 * time.Millisecond); got != "2s" {
		t.Fatalf("FormatWait(1.5s) = %q, want 2s", got)
	}
	if got := FormatWait(125 * time.Second); got != "2m 5s" {
		t.Fatalf("FormatWait(125s) = %q, want 2m 5s", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q, want 1,234,567", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Fatalf("FormatNumber = %q, want -1,000", got)
	}
}

func TestRenderQuotaBar(t *testing.T) {
	if got := RenderQuotaBar(3, 0, 10); !strings.Contains(got, "unlimited") {
		t.Fatalf("zero limit rendered %q", got)
	}
	if got := RenderQuotaBar(7, 5, 10); !strings.HasSuffix(got, "7/5") {
		t.Fatalf("over-limit bar = %q, want suffix 7/5", got)
	}
}
