package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

// LabelFunc formats a Y-axis tick value.
type LabelFunc func(float64) string

var (
	sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	barBlocks   = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := slicePeak(values)
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// Chart is a vertical bar chart, oldest value first.
type Chart struct {
	Values []float64
	Labels []string
	Color  lipgloss.Color
	Width  int
	Height int
	// YLabel formats ticks. Nil means compact counts.
	YLabel LabelFunc
	// Limit, when positive, is drawn as a dashed line and bars above it
	// turn red.
	Limit float64
}

// chartScale maps values onto chart rows.
type chartScale struct {
	step        float64
	ceiling     float64
	intervals   int
	rowsPerTick int
}

func (s chartScale) rows() int { return s.rowsPerTick * s.intervals }

// rowRange returns the value span covered by row (1 is the bottom row).
func (s chartScale) rowRange(row int) (lo, hi float64) {
	n := float64(s.rows())
	return s.ceiling * float64(row-1) / n, s.ceiling * float64(row) / n
}

func newChartScale(peak float64, height int) chartScale {
	if peak <= 0 {
		peak = 1
	}
	step := chartTickStep(peak)
	maxIntervals := max(height/2, 2)
	for math.Ceil(peak/step) > float64(maxIntervals) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(int(math.Round(ceiling/step)), 1)
	return chartScale{
		step:        step,
		ceiling:     ceiling,
		intervals:   intervals,
		rowsPerTick: max(height/intervals, 2),
	}
}

// Render draws the chart. Narrow or short areas fall back to a sparkline.
func (c Chart) Render() string {
	if len(c.Values) == 0 {
		return ""
	}
	if c.Width < 15 || c.Height < 3 {
		return Sparkline(c.Values, c.Color)
	}
	t := theme.Active
	yLabel := c.YLabel
	if yLabel == nil {
		yLabel = formatChartLabel
	}

	sc := newChartScale(max(slicePeak(c.Values), c.Limit), c.Height)

	yLabelW := max(len(yLabel(sc.ceiling))+1, 4)
	ticks := make(map[int]string, sc.intervals)
	for i := 1; i <= sc.intervals; i++ {
		ticks[i*sc.rowsPerTick] = yLabel(sc.step * float64(i))
	}

	values, labels, barW := fitBars(c.Values, c.Labels, max(c.Width-yLabelW-1, 5))
	gap := 0
	if len(values) > 1 {
		gap = 1
	}
	axisLen := len(values)*barW + (len(values)-1)*gap

	bg := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	over := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	limitStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	limitRow := 0
	if c.Limit > 0 {
		limitRow = int(math.Ceil(c.Limit / sc.ceiling * float64(sc.rows())))
	}

	var b strings.Builder
	for row := sc.rows(); row >= 1; row-- {
		lo, hi := sc.rowRange(row)
		style := lipgloss.NewStyle().Foreground(rowColor(t, c.Color, float64(row)/float64(sc.rows()))).Background(t.Surface)

		b.WriteString(axis.Render(fmt.Sprintf("%*s", yLabelW, ticks[row])))
		b.WriteString(axis.Render("│"))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(bg.Render(strings.Repeat(" ", gap)))
			}
			cell := barCell(v, lo, hi)
			s := style
			if c.Limit > 0 && v > c.Limit && lo >= c.Limit {
				s = over
			}
			if cell == ' ' && row == limitRow {
				b.WriteString(limitStyle.Render(strings.Repeat("┄", barW)))
				continue
			}
			b.WriteString(s.Render(strings.Repeat(string(cell), barW)))
		}
		b.WriteString("\n")
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axis.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == len(values) {
		b.WriteString("\n")
		b.WriteString(bg.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axis.Render(strings.TrimRight(xAxisLabels(labels, barW+gap, axisLen), " ")))
	}
	return b.String()
}

// BarChart renders values as a Chart without a limit line.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int, yLabel LabelFunc) string {
	return Chart{Values: values, Labels: labels, Color: color, Width: width, Height: height, YLabel: yLabel}.Render()
}

func rowColor(t theme.Theme, base lipgloss.Color, height float64) lipgloss.Color {
	switch {
	case height > 0.8:
		return t.AccentBright
	case height > 0.5:
		return base
	default:
		return t.Accent
	}
}

// barCell picks the block for a bar of value v in a row spanning (lo, hi].
func barCell(v, lo, hi float64) rune {
	switch {
	case v >= hi:
		return '█'
	case v > lo:
		idx := int((v - lo) / (hi - lo) * 8)
		return barBlocks[min(max(idx, 1), 8)]
	default:
		return ' '
	}
}

// fitBars sizes bars to the width, sampling the series evenly when even
// two-column bars do not fit.
func fitBars(values []float64, labels []string, width int) ([]float64, []string, int) {
	n := len(values)
	if n == 1 {
		return values, labels, min(width, 6)
	}
	barW := (width - (n - 1)) / n
	if barW >= 2 {
		return values, labels, min(barW, 6)
	}

	keep := max((width+1)/3, 2)
	sampled := make([]float64, keep)
	var sampledLabels []string
	if len(labels) == n {
		sampledLabels = make([]string, keep)
	}
	for i := range sampled {
		src := i * (n - 1) / (keep - 1)
		sampled[i] = values[src]
		if sampledLabels != nil {
			sampledLabels[i] = labels[src]
		}
	}
	return sampled, sampledLabels, 2
}

// xAxisLabels lays labels out under their bars without overlap. The last
// label is always shown when it fits.
func xAxisLabels(labels []string, pitch, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	n := len(labels)
	stride := max(1, n*8/(axisLen+1))

	lastEnd := -1
	place := func(pos int, lbl string) {
		end := min(pos+len(lbl), axisLen)
		if pos <= lastEnd || (end-pos < len(lbl) && end-pos < 3) {
			return
		}
		copy(buf[pos:end], lbl[:end-pos])
		lastEnd = end + 1
	}
	for i := 0; i < n; i += stride {
		place(i*pitch, labels[i])
	}
	if n > 1 && (n-1)%stride != 0 {
		lbl := labels[n-1]
		pos := min((n-1)*pitch, axisLen-len(lbl))
		if pos >= 0 {
			place(pos, lbl)
		}
	}
	return string(buf)
}

func slicePeak(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	return peak
}

// DollarLabel formats a tick as dollars, keeping cents below $10.
func DollarLabel(v float64) string {
	switch {
	case v >= 10:
		return "$" + formatChartLabel(v)
	case v >= 0.01:
		return fmt.Sprintf("$%.2f", v)
	default:
		return fmt.Sprintf("$%.3f", v)
	}
}

// chartTickStep picks a 1/2/5 step giving about five ticks.
func chartTickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	units := []struct {
		div    float64
		suffix string
	}{{1e9, "B"}, {1e6, "M"}, {1e3, "k"}}
	for _, u := range units {
		if v >= u.div {
			if v == math.Trunc(v/u.div)*u.div {
				return fmt.Sprintf("%.0f%s", v/u.div, u.suffix)
			}
			return fmt.Sprintf("%.1f%s", v/u.div, u.suffix)
		}
	}
	if v >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
