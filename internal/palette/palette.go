// Package palette hands out series colors from a fixed, reshuffleable palette.
package palette

import (
	"fmt"
	"math/rand/v2"

	"github.com/muesli/termenv"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// Variant selects one of the two built-in palettes.
type Variant int

const (
	// Light holds bright colors that read well on a dark background.
	Light Variant = iota
	// Dark holds deep colors that read well on a light background.
	Dark
)

// String returns the config name of the variant.
func (v Variant) String() string {
	switch v {
	case Light:
		return "light"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

var lightPalette = []string{
	"#6fbf73", "#ea605d", "#64ffda", "#ff9800", "#a6d4fa",
	"#f2aeae", "#2196f3", "#ffb74d", "#4db6ac", "#e040fb",
	"#ffd699", "#536dfe", "#ffeb3b", "#4caf50", "#f44336",
	"#b7deb8", "#4dabf5", "#18ffff", "#9fa8da", "#ea80fc",
}

var darkPalette = []string{
	"#2e7d32", "#e53935", "#00acc1", "#af52bf",
	"#af6200", "#5e35b1", "#c62828", "#795548",
	"#2196f3", "#4caf50", "#6e6d19", "#fb8c00",
	"#7c88cc", "#1c54b2", "#33877c", "#8f9a27",
}

// Colors returns a copy of the palette for v.
func Colors(v Variant) []string {
	src := lightPalette
	if v == Dark {
		src = darkPalette
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ParseVariant resolves a config value. "auto" asks the terminal.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	case "auto", "":
		return DetectVariant(), nil
	default:
		return Light, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown palette '%s'", name),
			"Use one of: auto, light, dark")
	}
}

// DetectVariant picks the light palette on dark terminals and the dark
// palette on light ones.
func DetectVariant() Variant {
	if termenv.HasDarkBackground() {
		return Light
	}
	return Dark
}

// Allocator issues colors in palette order, starting over once the palette is
// used up. It is not safe for concurrent use; the pipeline loop owns it.
type Allocator struct {
	variant Variant
	palette []string
	queue   []string
}

// New creates an allocator for the given palette variant.
func New(v Variant) *Allocator {
	a := &Allocator{}
	a.Configure(v)
	return a
}

// Configure switches the source palette. Colors already queued are kept.
func (a *Allocator) Configure(v Variant) {
	a.variant = v
	a.palette = Colors(v)
}

// Variant returns the configured palette variant.
func (a *Allocator) Variant() Variant {
	return a.variant
}

// Size returns the number of colors in the source palette.
func (a *Allocator) Size() int {
	return len(a.palette)
}

// Pop returns the next color, refilling the queue from the palette when empty.
func (a *Allocator) Pop() string {
	if len(a.queue) == 0 {
		a.queue = make([]string, len(a.palette))
		copy(a.queue, a.palette)
	}
	if len(a.queue) == 0 {
		return ""
	}
	c := a.queue[0]
	a.queue = a.queue[1:]
	return c
}

// Reset empties the queue so the next Pop starts a fresh cycle.
func (a *Allocator) Reset() {
	a.queue = nil
}

// Shuffle permutes the source palette in place (Fisher-Yates). Only cycles
// started after the next refill see the new order.
func (a *Allocator) Shuffle(r *rand.Rand) {
	for i := len(a.palette) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		a.palette[i], a.palette[j] = a.palette[j], a.palette[i]
	}
}
