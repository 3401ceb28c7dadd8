package pipeline

import (
	"time"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/registry"
)

// Frame is what the rendering layer draws. Every field is a copy or an
// immutable value, so a Frame can be handed to another goroutine.
type Frame struct {
	// Timestamp of the newest snapshot in the window, empty before the first.
	Timestamp string
	Datasets  []charts.Dataset
	// Total counts the non-empty datasets before the cap.
	Total        int
	LimitReached bool
	// ShowLimitNotice is true on the one frame where the cap was first hit.
	ShowLimitNotice bool
	MaxCharts       int

	// Containers are the running containers that pass the filter.
	Containers []registry.Container
	Selected   registry.Registry
	Devices    []charts.Device
	Filter     string

	Frozen    bool
	Colorize  bool
	Mode      charts.Mode
	Interval  time.Duration
	WindowLen int
}

// IsSelected reports whether the container with id is selected.
func (f Frame) IsSelected(id string) bool {
	_, err := f.Selected.LookupByID(id)
	return err == nil
}

// NoticeText is the message shown when ShowLimitNotice is set.
func (f Frame) NoticeText() string {
	return charts.NoticeText(f.MaxCharts)
}
