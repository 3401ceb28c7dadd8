package charts

import (
	"fmt"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/registry"
	"github.com/rileyhilliard/livecharts/internal/window"
)

// MaxCharts is the default cap on charts produced per pass.
const MaxCharts = 12

// Mode is the aggregation strategy.
type Mode int

const (
	// Overview draws one chart per device with totals across containers.
	Overview Mode = iota
	// Combine draws one chart per device with a series per container.
	Combine
	// Split draws one chart per device and container.
	Split
)

// Modes lists the modes in the order the dashboard cycles through them.
var Modes = []Mode{Overview, Combine, Split}

func (m Mode) String() string {
	switch m {
	case Overview:
		return "overview"
	case Combine:
		return "combine"
	case Split:
		return "split"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Next returns the mode after m in Modes, wrapping around.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Overview
}

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes {
		if m.String() == name {
			return m, nil
		}
	}
	return Overview, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown mode '%s'", name),
		"Use one of: overview, combine, split")
}

// Request carries every input of a recompute pass.
type Request struct {
	Window            window.Window
	Selected          registry.Registry
	Devices           []Device
	Mode              Mode
	UseContainerColor bool
	// MaxCharts caps the datasets returned. <= 0 means MaxCharts.
	MaxCharts int
}

// Result is the output of a recompute pass.
type Result struct {
	Datasets []Dataset
	// Total counts the non-empty datasets before capping.
	Total int
	// LimitReached is set when datasets were dropped by the cap.
	LimitReached bool
}

// Recompute builds the datasets for req. It is a pure function of its input.
// Datasets are produced device by device (then container by container in
// split mode); empty ones are skipped and anything past the cap is dropped.
func Recompute(req Request) (Result, error) {
	var res Result

	limit := req.MaxCharts
	if limit <= 0 {
		limit = MaxCharts
	}

	emit := func(ds Dataset) {
		if !ds.HasItems() {
			return
		}
		res.Total++
		if res.Total <= limit {
			res.Datasets = append(res.Datasets, ds)
		} else {
			res.LimitReached = true
		}
	}

	if req.Selected.Empty() || len(req.Devices) == 0 {
		return res, nil
	}

	snaps := req.Window.Snapshots()
	containers := req.Selected.Containers()

	switch req.Mode {
	case Split:
		for _, dev := range req.Devices {
			for _, c := range containers {
				items := make([]Item, 0, len(snaps))
				for _, s := range snaps {
					it := Item{Timestamp: s.Timestamp}
					for _, d := range dev.MakeDots(c, s.MetricsFor(c.Name), req.UseContainerColor) {
						it.Add(d)
					}
					items = append(items, it)
				}
				emit(NewDataset(dev, items))
			}
		}
	case Combine, Overview:
		for _, dev := range req.Devices {
			items := make([]Item, 0, len(snaps))
			for _, s := range snaps {
				it := Item{Timestamp: s.Timestamp}
				for _, c := range containers {
					for _, d := range dev.MakeDots(c, s.MetricsFor(c.Name), req.UseContainerColor) {
						it.Add(d)
					}
				}
				if req.Mode == Overview {
					it = it.Merge()
				}
				items = append(items, it)
			}
			emit(NewDataset(dev, items))
		}
	default:
		return Result{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown mode %s", req.Mode), "")
	}

	return res, nil
}
