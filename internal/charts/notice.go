package charts

import "fmt"

// Notice latches the "too many charts" signal. It fires on the first pass
// that hits the cap and stays quiet after that until Reset.
type Notice struct {
	shown bool
}

// Observe records a pass result and reports whether the notice should be
// shown now.
func (n *Notice) Observe(limitReached bool) bool {
	if !limitReached || n.shown {
		return false
	}
	n.shown = true
	return true
}

// Shown reports whether the notice has fired since the last Reset.
func (n *Notice) Shown() bool {
	return n.shown
}

// Reset re-arms the notice.
func (n *Notice) Reset() {
	n.shown = false
}

// NoticeText is the message shown when charts are dropped.
func NoticeText(limit int) string {
	if limit <= 0 {
		limit = MaxCharts
	}
	return fmt.Sprintf("Too many charts to display. Showing only %d charts.", limit)
}
