package dashboard

import (
	"math"
	"strings"
)

// sparklineBlocks are block characters for 8 vertical levels (lowest to highest).
var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the most recent width values as block characters.
// Values are plotted by magnitude against a zero baseline, so write series
// (stored negated) draw the same way as reads, and an idle series stays flat
// on the bottom row.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(v))
	}

	top := len(sparklineBlocks) - 1
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, v := range data {
		level := 0
		if peak > 0 {
			level = int(math.Round(math.Abs(v) / peak * float64(top)))
		}
		if level > top {
			level = top
		}
		sb.WriteRune(sparklineBlocks[level])
	}
	return sb.String()
}
