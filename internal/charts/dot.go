package charts

import (
	"math"
	"sort"
	"strconv"
)

// Flow classifies a dot as a plain value or one half of a read/write pair.
type Flow int

const (
	FlowDefault Flow = iota
	FlowRead
	FlowWrite
)

func (f Flow) String() string {
	switch f {
	case FlowRead:
		return "read"
	case FlowWrite:
		return "write"
	default:
		return "default"
	}
}

// epsilon nudges halves up before rounding so 1.005 rounds to 1.01.
var epsilon = math.Nextafter(1, 2) - 1

// round2 rounds to two decimals, halves toward positive infinity.
func round2(v float64) float64 {
	return math.Floor((v+epsilon)*100+0.5) / 100
}

// Dot is one plotted value. Value is already in the device's display unit.
type Dot struct {
	Device Device
	Label  string
	Color  string
	Value  float64
	Flow   Flow
}

// NewDot builds a dot, rounding value to two decimals.
func NewDot(d Device, label, color string, value float64, flow Flow) Dot {
	return Dot{Device: d, Label: label, Color: color, Value: round2(value), Flow: flow}
}

// HasWriteSibling reports whether the dot is the read half of a pair.
func (d Dot) HasWriteSibling() bool {
	return d.Flow == FlowRead
}

// FormatValue renders the value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Item is one time point of one chart. Dots are ordered by value, highest first.
type Item struct {
	Timestamp string
	Dots      []Dot
}

// Add inserts d, keeping dots sorted by value descending. Equal values keep
// insertion order.
func (it *Item) Add(d Dot) {
	it.Dots = append(it.Dots, d)
	sort.SliceStable(it.Dots, func(i, j int) bool { return it.Dots[i].Value > it.Dots[j].Value })
}

// WriteSibling finds the write dot paired with d by device and label.
func (it Item) WriteSibling(d Dot) (Dot, bool) {
	for _, s := range it.Dots {
		if s.Flow == FlowWrite && s.Device.Key == d.Device.Key && s.Label == d.Label {
			return s, true
		}
	}
	return Dot{}, false
}

// Merge collapses the dots into totals. Default dots sum into one dot; else,
// when both reads and writes exist, they sum into one read and one write dot.
// Totals are labeled "<device name> total" and use the device color.
func (it Item) Merge() Item {
	var defaults, reads, writes []Dot
	for _, d := range it.Dots {
		switch d.Flow {
		case FlowDefault:
			defaults = append(defaults, d)
		case FlowWrite:
			writes = append(writes, d)
		default:
			reads = append(reads, d)
		}
	}

	switch {
	case len(defaults) > 0:
		return Item{Timestamp: it.Timestamp, Dots: []Dot{total(defaults, FlowDefault)}}
	case len(reads) > 0 && len(writes) > 0:
		return Item{Timestamp: it.Timestamp, Dots: []Dot{total(reads, FlowRead), total(writes, FlowWrite)}}
	}
	return it
}

func total(dots []Dot, flow Flow) Dot {
	dev := dots[0].Device
	sum := 0.0
	for _, d := range dots {
		sum += d.Value
	}
	return NewDot(dev, dev.Name+" total", dev.Color, sum, flow)
}

// TooltipLines renders the item's values the way a chart tooltip lists them:
// one line per series, read/write pairs on a single line.
func (it Item) TooltipLines() []string {
	var lines []string
	for _, d := range it.Dots {
		if d.Flow == FlowWrite {
			continue
		}
		if d.HasWriteSibling() {
			w, ok := it.WriteSibling(d)
			if !ok {
				continue
			}
			lines = append(lines, d.Label+": "+FormatValue(d.Value)+" "+d.Device.Unit+
				" / "+FormatValue(-w.Value)+" "+w.Device.Unit)
			continue
		}
		lines = append(lines, d.Label+": "+FormatValue(d.Value)+" "+d.Device.Unit)
	}
	return lines
}
