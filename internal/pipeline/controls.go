package pipeline

import (
	"regexp"
	"time"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/registry"
)

// do runs fn on the loop goroutine, then the loop recomputes and publishes.
// It blocks until the loop accepts fn, and fails once Run has returned.
func (p *Pipeline) do(fn func(*state)) error {
	select {
	case p.controls <- fn:
		return nil
	case <-p.done:
		return ErrStopped
	}
}

// Freeze stops or resumes window advancement. The feed keeps running, and
// controls still recompute from the frozen window.
func (p *Pipeline) Freeze(on bool) error {
	return p.do(func(s *state) { s.frozen = on })
}

// SetMode switches the aggregation mode.
func (p *Pipeline) SetMode(m charts.Mode) error {
	return p.do(func(s *state) { s.mode = m })
}

// SetFilter replaces the container name filter. Nil shows every container.
func (p *Pipeline) SetFilter(pattern *regexp.Regexp) error {
	return p.do(func(s *state) {
		s.filter = pattern
		p.applyFilter(s)
	})
}

// SetDevices replaces the charted devices.
func (p *Pipeline) SetDevices(devices []charts.Device) error {
	devs := append([]charts.Device(nil), devices...)
	return p.do(func(s *state) { s.devices = devs })
}

// SetColorize switches between device colors and container colors.
func (p *Pipeline) SetColorize(on bool) error {
	return p.do(func(s *state) { s.colorize = on })
}

// ShuffleColors shuffles the palette and recolors every container. The
// selection is kept as it is.
func (p *Pipeline) ShuffleColors() error {
	return p.do(func(s *state) {
		s.alloc.Reset()
		s.alloc.Shuffle(p.opts.Rand)
		s.running = s.running.Recolor(s.alloc)
		s.filtered = s.running.FilterByNamePattern(s.filter)
		s.selected = keepSelected(s.selected, s.filtered)
	})
}

// SetInterval changes the tick period. Non-positive values are ignored.
func (p *Pipeline) SetInterval(d time.Duration) error {
	return p.do(func(s *state) {
		if d > 0 {
			s.interval = d
		}
	})
}

// Select adds the filtered container with id to the selection.
func (p *Pipeline) Select(id string) error {
	return p.do(func(s *state) {
		c, err := s.filtered.LookupByID(id)
		if err != nil {
			p.log.Debug("select: %v", err)
			return
		}
		s.selected = s.selected.With(c)
	})
}

// Deselect removes the container with id from the selection.
func (p *Pipeline) Deselect(id string) error {
	return p.do(func(s *state) { s.selected = s.selected.Without(id) })
}

// Toggle selects the container with id if it isn't selected, and
// deselects it otherwise.
func (p *Pipeline) Toggle(id string) error {
	return p.do(func(s *state) {
		if _, err := s.selected.LookupByID(id); err == nil {
			s.selected = s.selected.Without(id)
			return
		}
		if c, err := s.filtered.LookupByID(id); err == nil {
			s.selected = s.selected.With(c)
		}
	})
}

// SelectAll selects every filtered container.
func (p *Pipeline) SelectAll() error {
	return p.do(func(s *state) { s.selected = s.filtered })
}

// SelectNone clears the selection.
func (p *Pipeline) SelectNone() error {
	return p.do(func(s *state) { s.selected = registry.New() })
}

// ResetNotice re-arms the "too many charts" notice.
func (p *Pipeline) ResetNotice() error {
	return p.do(func(s *state) { s.notice.Reset() })
}

// Resync re-enumerates containers now.
func (p *Pipeline) Resync() error {
	return p.do(func(s *state) { s.resync = ReasonManual })
}

// keepSelected returns the containers of filtered whose IDs are selected.
func keepSelected(selected, filtered registry.Registry) registry.Registry {
	var out []registry.Container
	for _, c := range filtered.Containers() {
		if selected.Contains(c) {
			out = append(out, c)
		}
	}
	return registry.New(out...)
}
