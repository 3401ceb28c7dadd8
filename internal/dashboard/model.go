package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/pipeline"
)

// Controller is the part of the pipeline the dashboard drives.
type Controller interface {
	Freeze(on bool) error
	SetMode(m charts.Mode) error
	SetColorize(on bool) error
	ShuffleColors() error
	SetInterval(d time.Duration) error
	Toggle(id string) error
	SelectAll() error
	SelectNone() error
	ResetNotice() error
	Resync() error
}

// Interval bounds for the +/- keys.
const (
	MinInterval = 250 * time.Millisecond
	MaxInterval = 10 * time.Second
)

// Layout sizes.
const (
	headerHeight = 2
	footerHeight = 2
	listWidth    = 28
)

// frameMsg carries a new frame from the pipeline.
type frameMsg pipeline.Frame

// framesClosedMsg signals that the pipeline stopped.
type framesClosedMsg struct{}

// controlErrMsg reports a failed control.
type controlErrMsg struct{ err error }

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	frames <-chan pipeline.Frame
	ctl    Controller
	log    logger.Logger
	keys   KeyMap
	help   help.Model

	frame    pipeline.Frame
	hasFrame bool
	cursor   int
	notice   string
	lastErr  string
	source   string

	viewport      viewport.Model
	viewportReady bool
	width         int
	height        int
	quitting      bool
	stopped       bool
}

// NewModel creates a dashboard reading frames and driving ctl. source names
// where stats come from, e.g. "local docker" or "ssh box".
func NewModel(frames <-chan pipeline.Frame, ctl Controller, source string, log logger.Logger) Model {
	if log == nil {
		log = logger.Noop()
	}
	return Model{
		frames: frames,
		ctl:    ctl,
		log:    log,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		source: source,
	}
}

// Init starts waiting for the first frame.
func (m Model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func waitForFrame(frames <-chan pipeline.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

// control runs fn off the update goroutine: the pipeline loop may be busy
// publishing a frame that this program has yet to receive.
func (m Model) control(name string, fn func() error) tea.Cmd {
	log := m.log
	return func() tea.Msg {
		if err := fn(); err != nil {
			log.Warn("%s: %v", name, err)
			return controlErrMsg{err: err}
		}
		return nil
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeViewport()
		m.refreshViewport()

	case frameMsg:
		m.applyFrame(pipeline.Frame(msg))
		return m, waitForFrame(m.frames)

	case framesClosedMsg:
		m.stopped = true
		return m, tea.Quit

	case controlErrMsg:
		m.lastErr = msg.err.Error()
	}

	return m, nil
}

func (m *Model) applyFrame(f pipeline.Frame) {
	m.frame = f
	m.hasFrame = true
	if f.ShowLimitNotice {
		m.notice = f.NoticeText()
	}
	m.clampCursor()
	m.refreshViewport()
}

func (m *Model) clampCursor() {
	n := len(m.frame.Containers)
	switch {
	case n == 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	case m.cursor < 0:
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeViewport()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
		m.lastErr = ""
		return m, nil

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.frame.Containers)-1 {
			m.cursor++
		}
		return m, nil
	}

	if !m.hasFrame {
		return m, nil
	}
	f := m.frame

	switch {
	case key.Matches(msg, m.keys.Freeze):
		return m, m.control("freeze", func() error { return m.ctl.Freeze(!f.Frozen) })

	case key.Matches(msg, m.keys.Mode):
		next := f.Mode.Next()
		ctl := m.ctl
		return m, m.control("set mode", func() error {
			if err := ctl.SetMode(next); err != nil {
				return err
			}
			// A new layout may overflow again, so let the notice fire again.
			return ctl.ResetNotice()
		})

	case key.Matches(msg, m.keys.Colorize):
		return m, m.control("colorize", func() error { return m.ctl.SetColorize(!f.Colorize) })

	case key.Matches(msg, m.keys.Shuffle):
		return m, m.control("shuffle colors", m.ctl.ShuffleColors)

	case key.Matches(msg, m.keys.Toggle):
		if len(f.Containers) == 0 {
			return m, nil
		}
		id := f.Containers[m.cursor].ID
		return m, m.control("toggle", func() error { return m.ctl.Toggle(id) })

	case key.Matches(msg, m.keys.SelectAll):
		return m, m.control("select all", m.ctl.SelectAll)

	case key.Matches(msg, m.keys.SelectNone):
		return m, m.control("select none", m.ctl.SelectNone)

	case key.Matches(msg, m.keys.Faster):
		d := clampInterval(f.Interval / 2)
		return m, m.control("set interval", func() error { return m.ctl.SetInterval(d) })

	case key.Matches(msg, m.keys.Slower):
		d := clampInterval(f.Interval * 2)
		return m, m.control("set interval", func() error { return m.ctl.SetInterval(d) })

	case key.Matches(msg, m.keys.Resync):
		return m, m.control("resync", m.ctl.Resync)
	}

	return m, nil
}

func clampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if m.help.ShowAll {
		h -= len(m.keys.FullHelp()[0])
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) resizeViewport() {
	if m.width == 0 {
		return
	}
	w := m.width - listWidth - 2
	if w < 20 {
		w = 20
	}
	if !m.viewportReady {
		m.viewport = viewport.New(w, m.bodyHeight())
		m.viewport.YPosition = headerHeight
		m.viewportReady = true
		return
	}
	m.viewport.Width = w
	m.viewport.Height = m.bodyHeight()
}

func (m *Model) refreshViewport() {
	if !m.viewportReady {
		return
	}
	m.viewport.SetContent(m.renderCharts(m.viewport.Width))
}

// Frame returns the last frame received.
func (m Model) Frame() pipeline.Frame {
	return m.frame
}

// Stopped reports whether the dashboard quit because the pipeline stopped.
func (m Model) Stopped() bool {
	return m.stopped
}
