// Package window keeps a bounded, timestamp-deduplicated history of snapshots.
package window

import "github.com/rileyhilliard/livecharts/internal/stats"

// DefaultCapacity is the number of snapshots retained when none is configured.
const DefaultCapacity = 60

// Window is an immutable, chronologically ordered list of snapshots holding at
// most Capacity entries. InsertUnique returns a new Window and never touches
// the backing array of the receiver, so older values stay readable.
type Window struct {
	capacity  int
	snapshots []stats.Snapshot
}

// New creates an empty window. capacity <= 0 falls back to DefaultCapacity.
func New(capacity int) Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return Window{capacity: capacity}
}

// InsertUnique appends s unless a snapshot with its timestamp is already
// present, evicting the oldest snapshot when the window is full.
func (w Window) InsertUnique(s stats.Snapshot) Window {
	if w.Contains(s.Timestamp) {
		return w
	}

	start := 0
	if len(w.snapshots) >= w.Capacity() {
		start = len(w.snapshots) - w.Capacity() + 1
	}

	next := make([]stats.Snapshot, 0, len(w.snapshots)-start+1)
	next = append(next, w.snapshots[start:]...)
	next = append(next, s)
	return Window{capacity: w.capacity, snapshots: next}
}

// Snapshots returns the snapshots oldest first. The slice must not be modified.
func (w Window) Snapshots() []stats.Snapshot {
	return w.snapshots
}

// Len returns the number of snapshots held.
func (w Window) Len() int {
	return len(w.snapshots)
}

// Capacity returns the maximum number of snapshots held.
func (w Window) Capacity() int {
	if w.capacity <= 0 {
		return DefaultCapacity
	}
	return w.capacity
}

// Contains reports whether a snapshot with the given timestamp is present.
func (w Window) Contains(timestamp string) bool {
	for _, s := range w.snapshots {
		if s.Timestamp == timestamp {
			return true
		}
	}
	return false
}

// Latest returns the newest snapshot, if any.
func (w Window) Latest() (stats.Snapshot, bool) {
	if len(w.snapshots) == 0 {
		return stats.Snapshot{}, false
	}
	return w.snapshots[len(w.snapshots)-1], true
}

// Timestamps returns the snapshot timestamps oldest first.
func (w Window) Timestamps() []string {
	out := make([]string, len(w.snapshots))
	for i, s := range w.snapshots {
		out[i] = s.Timestamp
	}
	return out
}
