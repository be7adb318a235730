package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashcast/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline scaled between the series minimum
// (or zero) and maximum.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := 0.0, values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// NetChart renders signed values as columns growing up (green) or down (red)
// from a zero axis. height is the total number of chart rows. Series wider
// than the chart are sampled.
func NetChart(values []float64, labels []string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	if width < 15 || height < 4 {
		return Sparkline(values, t.Accent)
	}

	values, labels = sampleSeries(values, labels, width-8)

	hi, lo := 0.0, 0.0
	for _, v := range values {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Rows above the axis, proportional to the positive share.
	up := int(math.Round(float64(height-1) * hi / span))
	if hi > 0 && up == 0 {
		up = 1
	}
	down := height - 1 - up
	if lo < 0 && down == 0 && up > 1 {
		up--
		down = 1
	}
	unit := span / float64(height-1)

	yLabelW := max(len(ChartLabel(hi)), len(ChartLabel(lo)), 1) + 1
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	posStyle := lipgloss.NewStyle().Foreground(t.Income).Background(t.Surface)
	negStyle := lipgloss.NewStyle().Foreground(t.Expense).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	writeRow := func(label string, cell func(v float64) (string, lipgloss.Style)) {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))
		for _, v := range values {
			s, st := cell(v)
			b.WriteString(st.Render(s))
		}
		b.WriteString("\n")
	}

	for row := up; row >= 1; row-- {
		label := ""
		if row == up {
			label = ChartLabel(hi)
		}
		bottom := unit * float64(row-1)
		writeRow(label, func(v float64) (string, lipgloss.Style) {
			return partialBlock(v-bottom, unit), posStyle
		})
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("┼" + strings.Repeat("─", len(values))))

	for row := 1; row <= down; row++ {
		b.WriteString("\n")
		label := ""
		if row == down {
			label = ChartLabel(lo)
		}
		top := -unit * float64(row-1)
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))
		for _, v := range values {
			if v >= top {
				b.WriteString(blank.Render(" "))
				continue
			}
			if top-v >= unit {
				b.WriteString(negStyle.Render("█"))
			} else {
				b.WriteString(negStyle.Render("▀"))
			}
		}
	}

	if len(labels) == len(values) {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(axisLabels(labels)))
	}
	return b.String()
}

// partialBlock renders how much of a one-row cell of size unit is filled by
// the value above the row's bottom edge.
func partialBlock(above, unit float64) string {
	switch {
	case above <= 0:
		return " "
	case above >= unit:
		return "█"
	}
	idx := int(above / unit * float64(len(sparkBlocks)))
	idx = min(max(idx, 0), len(sparkBlocks)-1)
	return string(sparkBlocks[idx])
}

// sampleSeries picks at most n evenly spaced points, keeping labels aligned.
func sampleSeries(values []float64, labels []string, n int) ([]float64, []string) {
	if n < 2 || len(values) <= n {
		return values, labels
	}
	sv := make([]float64, n)
	var sl []string
	if len(labels) == len(values) {
		sl = make([]string, n)
	}
	for i := range sv {
		src := i * (len(values) - 1) / (n - 1)
		sv[i] = values[src]
		if sl != nil {
			sl[i] = labels[src]
		}
	}
	return sv, sl
}

// axisLabels lays out x labels one column per value, skipping labels that
// would overlap the previous one.
func axisLabels(labels []string) string {
	buf := []rune(strings.Repeat(" ", len(labels)))
	next := 0
	for i, l := range labels {
		if i < next || l == "" {
			continue
		}
		r := []rune(l)
		if i+len(r) > len(buf) {
			continue
		}
		copy(buf[i:], r)
		next = i + len(r) + 2
	}
	return strings.TrimRight(string(buf), " ")
}

// ChartLabel formats an axis amount compactly: 1500 -> "1.5k", -20000 -> "-20k".
func ChartLabel(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e6:
		return sign + trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return sign + trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	default:
		return sign + fmt.Sprintf("%.0f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
