// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tripgate/internal/money"
)

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	ten      = decimal.NewFromInt(10)
	cent     = decimal.New(1, -2)
)

// FormatCost formats a USD amount. Sub-cent amounts keep four decimals since
// a single routed call usually costs a fraction of a cent.
func FormatCost(a money.Amount) string {
	if a < 0 {
		return "-" + FormatCost(-a)
	}
	d := a.Decimal()
	switch {
	case d.GreaterThanOrEqual(thousand):
		return "$" + FormatNumber(d.Round(0).IntPart())
	case d.GreaterThanOrEqual(hundred):
		return "$" + d.StringFixed(0)
	case d.GreaterThanOrEqual(ten):
		return "$" + d.StringFixed(1)
	case d.GreaterThanOrEqual(cent), d.IsZero():
		return "$" + d.StringFixed(2)
	case a < money.Micro*100:
		return "<$0.0001"
	default:
		return "$" + d.StringFixed(4)
	}
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m 5s", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		if s := secs % 60; s > 0 {
			return fmt.Sprintf("%dm %ds", mins, s)
		}
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatWait formats a retry-after duration, rounding up to whole seconds.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	return FormatDuration(int64((d + time.Second - 1) / time.Second))
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 share as a percentage string.
func FormatPercent(share float64) string {
	return fmt.Sprintf("%.1f%%", share)
}

// FormatDelta formats a cost delta with its sign.
func FormatDelta(current, previous money.Amount) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCost(delta)
	}
	return "-" + FormatCost(-delta)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
