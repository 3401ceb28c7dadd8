package charts

import (
	"sort"
	"strings"
)

// Dataset is one chart: a device and its items, oldest first.
type Dataset struct {
	UniqueKey string
	Device    Device
	Items     []Item
}

// Point is one plottable tuple.
type Point struct {
	Timestamp string
	Label     string
	Color     string
	Value     float64
	Unit      string
	Flow      Flow
}

// Series describes one line of a chart.
type Series struct {
	Label string
	Color string
	Flow  Flow
}

// NewDataset builds a dataset and derives its key from the first item.
func NewDataset(d Device, items []Item) Dataset {
	return Dataset{UniqueKey: uniqueKey(d, items), Device: d, Items: items}
}

// uniqueKey joins the sorted, de-duplicated "device:label" pairs of the first
// item, so the same set of series maps to the same chart across passes.
func uniqueKey(d Device, items []Item) string {
	if len(items) == 0 || len(items[0].Dots) == 0 {
		return string(d.Key)
	}
	seen := make(map[string]bool)
	var keys []string
	for _, dot := range items[0].Dots {
		k := string(dot.Device.Key) + ":" + dot.Label
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// HasItems reports whether the dataset has anything to plot.
func (ds Dataset) HasItems() bool {
	return len(ds.Items) > 0
}

// Title is the chart heading.
func (ds Dataset) Title() string {
	return ds.Device.TooltipTitle()
}

// Points flattens the dataset into plottable tuples in item order.
func (ds Dataset) Points() []Point {
	var out []Point
	for _, it := range ds.Items {
		for _, d := range it.Dots {
			out = append(out, Point{
				Timestamp: it.Timestamp,
				Label:     d.Label,
				Color:     d.Color,
				Value:     d.Value,
				Unit:      d.Device.Unit,
				Flow:      d.Flow,
			})
		}
	}
	return out
}

// Series lists the series of the chart in first-item order.
func (ds Dataset) Series() []Series {
	if len(ds.Items) == 0 {
		return nil
	}
	out := make([]Series, 0, len(ds.Items[0].Dots))
	for _, d := range ds.Items[0].Dots {
		out = append(out, Series{Label: d.Label, Color: d.Color, Flow: d.Flow})
	}
	return out
}

// Values returns the value of one series across items, oldest first. Items
// without that series contribute 0.
func (ds Dataset) Values(s Series) []float64 {
	out := make([]float64, len(ds.Items))
	for i, it := range ds.Items {
		for _, d := range it.Dots {
			if d.Label == s.Label && d.Flow == s.Flow {
				out[i] = d.Value
				break
			}
		}
	}
	return out
}

// ItemAt returns the item stamped with timestamp.
func (ds Dataset) ItemAt(timestamp string) (Item, bool) {
	for _, it := range ds.Items {
		if it.Timestamp == timestamp {
			return it, true
		}
	}
	return Item{}, false
}

// Latest returns the newest item.
func (ds Dataset) Latest() (Item, bool) {
	if len(ds.Items) == 0 {
		return Item{}, false
	}
	return ds.Items[len(ds.Items)-1], true
}
