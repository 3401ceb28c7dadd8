package dashboard

import "github.com/rileyhilliard/livecharts/internal/pipeline"

// Frames buffers the newest frame between the pipeline and the program.
// Push never blocks: an undelivered frame is replaced by the next one.
type Frames struct {
	ch chan pipeline.Frame
}

// NewFrames returns an empty buffer.
func NewFrames() *Frames {
	return &Frames{ch: make(chan pipeline.Frame, 1)}
}

// Push stores f, dropping an undelivered older frame. A dropped frame's limit
// notice carries over to f so the banner isn't lost. Push is meant to be the
// pipeline sink; it must have a single caller.
func (f *Frames) Push(frame pipeline.Frame) {
	for {
		select {
		case f.ch <- frame:
			return
		default:
		}
		select {
		case old := <-f.ch:
			if old.ShowLimitNotice {
				frame.ShowLimitNotice = true
			}
		default:
		}
	}
}

// Close ends the stream. Call it after the pipeline's Run has returned.
func (f *Frames) Close() {
	close(f.ch)
}

// C is the receive side.
func (f *Frames) C() <-chan pipeline.Frame {
	return f.ch
}
