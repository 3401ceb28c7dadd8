// Package registry tracks the set of running containers, their colors, and
// which of them are filtered and selected. A Registry is an immutable value:
// every operation returns a new one.
package registry

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/palette"
)

// ErrNotFound is the cause of lookup errors for unknown containers.
var ErrNotFound = stderrors.New("container not found")

// Container is a running container. ID is its identity; Name joins it to
// stats samples.
type Container struct {
	ID    string
	Name  string
	Color string
}

// Identity is an (ID, Name) pair reported by an enumerator.
type Identity struct {
	ID   string
	Name string
}

// Registry is an ordered set of containers, sorted by name.
type Registry struct {
	containers []Container
}

// New builds a registry from containers, sorting them by name.
func New(containers ...Container) Registry {
	out := make([]Container, len(containers))
	copy(out, containers)
	sortByName(out)
	return Registry{containers: out}
}

// Refresh replaces the whole container set with ids. A container whose ID is
// already present keeps its color; new ones take the next color from alloc.
// Colors are assigned in name order.
func (r Registry) Refresh(ids []Identity, alloc *palette.Allocator) Registry {
	sorted := make([]Identity, len(ids))
	copy(sorted, ids)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	out := make([]Container, 0, len(sorted))
	for _, id := range sorted {
		var color string
		if prev, err := r.LookupByID(id.ID); err == nil {
			color = prev.Color
		} else {
			color = alloc.Pop()
		}
		out = append(out, Container{ID: id.ID, Name: id.Name, Color: color})
	}
	return Registry{containers: out}
}

// Recolor reassigns every container a color from alloc, in registry order.
func (r Registry) Recolor(alloc *palette.Allocator) Registry {
	out := make([]Container, len(r.containers))
	for i, c := range r.containers {
		c.Color = alloc.Pop()
		out[i] = c
	}
	return Registry{containers: out}
}

// FilterByNamePattern keeps containers whose name matches pattern anywhere.
// A nil pattern keeps everything. The pattern must already be compiled.
func (r Registry) FilterByNamePattern(pattern *regexp.Regexp) Registry {
	if pattern == nil {
		return r
	}
	out := make([]Container, 0, len(r.containers))
	for _, c := range r.containers {
		if pattern.MatchString(c.Name) {
			out = append(out, c)
		}
	}
	return Registry{containers: out}
}

// LookupByID returns the container with the given ID.
func (r Registry) LookupByID(id string) (Container, error) {
	for _, c := range r.containers {
		if c.ID == id {
			return c, nil
		}
	}
	return Container{}, notFound("ID", id)
}

// LookupByName returns the first container with the given name.
func (r Registry) LookupByName(name string) (Container, error) {
	for _, c := range r.containers {
		if c.Name == name {
			return c, nil
		}
	}
	return Container{}, notFound("name", name)
}

func notFound(field, value string) error {
	return errors.WrapWithCode(ErrNotFound, errors.ErrRegistry,
		fmt.Sprintf("No container with %s '%s'", field, value), "")
}

// Contains reports whether a container with the same ID is present.
func (r Registry) Contains(c Container) bool {
	_, err := r.LookupByID(c.ID)
	return err == nil
}

// With returns r plus c. A container with the same ID is replaced.
func (r Registry) With(c Container) Registry {
	out := make([]Container, 0, len(r.containers)+1)
	for _, existing := range r.containers {
		if existing.ID != c.ID {
			out = append(out, existing)
		}
	}
	out = append(out, c)
	sortByName(out)
	return Registry{containers: out}
}

// Without returns r minus the container with the given ID.
func (r Registry) Without(id string) Registry {
	out := make([]Container, 0, len(r.containers))
	for _, c := range r.containers {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return Registry{containers: out}
}

// Containers returns a copy of the containers in name order.
func (r Registry) Containers() []Container {
	out := make([]Container, len(r.containers))
	copy(out, r.containers)
	return out
}

// Names returns container names in registry order.
func (r Registry) Names() []string {
	names := make([]string, len(r.containers))
	for i, c := range r.containers {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of containers.
func (r Registry) Len() int {
	return len(r.containers)
}

// Empty reports whether the registry has no containers.
func (r Registry) Empty() bool {
	return len(r.containers) == 0
}

// String lists the container names, for logs.
func (r Registry) String() string {
	return "[" + strings.Join(r.Names(), ", ") + "]"
}

// Narrow derives the selection for a new filtered set. Previously selected
// containers still in filtered stay selected; when nothing was selected
// before, everything in filtered is.
func Narrow(previous, filtered Registry) Registry {
	out := make([]Container, 0, filtered.Len())
	for _, c := range filtered.containers {
		if previous.Empty() || previous.Contains(c) {
			out = append(out, c)
		}
	}
	return Registry{containers: out}
}

// Diff reports whether two name lists differ as multisets. Order is ignored;
// repeated names count.
func Diff(previous, current []string) bool {
	if len(previous) != len(current) {
		return true
	}
	a := slices.Clone(previous)
	b := slices.Clone(current)
	slices.Sort(a)
	slices.Sort(b)
	return !slices.Equal(a, b)
}

func sortByName(cs []Container) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
