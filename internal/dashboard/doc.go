// Package dashboard is the terminal view of a running pipeline.
//
// The pipeline pushes frames into a Frames buffer; the Bubble Tea model reads
// them one at a time and redraws. Key presses become pipeline controls, run as
// commands so the model never waits on the loop goroutine.
//
// Layout, top to bottom:
//
//	header    mode, container counts, interval, frozen badge
//	notice    "too many charts" banner, until dismissed
//	body      container list on the left, one sparkline block per chart
//	footer    key hints, or the full help when toggled with ?
package dashboard
