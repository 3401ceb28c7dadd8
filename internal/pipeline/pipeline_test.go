package pipeline

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/feed"
	"github.com/rileyhilliard/livecharts/internal/logger"
)

const (
	webLine = `{"Name":"web","CPUPerc":"12.50%","MemUsage":"100MiB / 1GiB","MemPerc":"9.8%","NetIO":"1kB / 2kB","BlockIO":"--"}`
	dbLine  = `{"Name":"db","CPUPerc":"1.00%","MemUsage":"10MiB / 1GiB","MemPerc":"1%","NetIO":"0B / 0B","BlockIO":"0B / 0B"}`
)

type fakeEnumerator struct {
	mu    sync.Mutex
	ids   []feed.Identity
	err   error
	calls int
}

func (f *fakeEnumerator) List(ctx context.Context) ([]feed.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]feed.Identity(nil), f.ids...), f.err
}

func (f *fakeEnumerator) set(ids ...feed.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = ids
}

func (f *fakeEnumerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSubscription struct {
	batches chan []byte
	errs    chan error
	once    sync.Once
	closed  chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		batches: make(chan []byte),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (s *fakeSubscription) Batches() <-chan []byte { return s.batches }
func (s *fakeSubscription) Errors() <-chan error   { return s.errs }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeStreamer struct {
	sub *fakeSubscription
}

func (f *fakeStreamer) Subscribe(ctx context.Context) (feed.Subscription, error) {
	return f.sub, nil
}

// clock hands out times one second apart so every tick gets a new stamp.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type harness struct {
	t       *testing.T
	enum    *fakeEnumerator
	sub     *fakeSubscription
	frames  chan Frame
	metrics *Metrics
	p       *Pipeline
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

func start(t *testing.T, opts Options, ids ...feed.Identity) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		enum:    &fakeEnumerator{ids: ids},
		sub:     newFakeSubscription(),
		frames:  make(chan Frame, 1024),
		metrics: NewMetrics(prometheus.NewRegistry()),
		done:    make(chan struct{}),
	}
	opts.Enumerator = h.enum
	opts.Streamer = &fakeStreamer{sub: h.sub}
	opts.Sink = func(f Frame) { h.frames <- f }
	opts.Metrics = h.metrics
	if opts.Interval == 0 {
		opts.Interval = 5 * time.Millisecond
	}
	if opts.Now == nil {
		c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		opts.Now = c.Now
	}
	opts.Rand = rand.New(rand.NewPCG(1, 2))
	opts.Logger = logger.NewBufferLogger()
	h.p = New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.err = h.p.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.t.Fatal("pipeline did not stop")
	}
}

func (h *harness) send(batch string) {
	h.t.Helper()
	select {
	case h.sub.batches <- []byte(batch):
	case <-time.After(2 * time.Second):
		h.t.Fatal("feed reader did not take the batch")
	}
}

// waitFor returns the first frame that satisfies ok.
func (h *harness) waitFor(ok func(Frame) bool) Frame {
	h.t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case f := <-h.frames:
			if ok(f) {
				return f
			}
		case <-deadline:
			h.t.Fatal("timed out waiting for frame")
			return Frame{}
		}
	}
}

func cpuOnly(t *testing.T) []charts.Device {
	devs, err := charts.SelectDevices(charts.DefaultDevices(), []string{"cpu"})
	require.NoError(t, err)
	return devs
}

func hasCharts(f Frame) bool { return len(f.Datasets) > 0 }

func TestPipeline_TickProducesFrame(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Split},
		feed.Identity{ID: "w1", Names: "web"})

	h.send(webLine)
	f := h.waitFor(hasCharts)

	require.Len(t, f.Datasets, 1)
	item := f.Datasets[0].Items[0]
	require.Len(t, item.Dots, 1)
	assert.InDelta(t, 12.5, item.Dots[0].Value, 1e-9)
	assert.Equal(t, "web", item.Dots[0].Label)
	assert.NotEmpty(t, f.Timestamp)
	assert.Equal(t, charts.Split, f.Mode)
	assert.GreaterOrEqual(t, testutil.ToFloat64(h.metrics.Snapshots), 1.0)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonStartup)))
}

func TestPipeline_WindowIsBounded(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), WindowSize: 3},
		feed.Identity{ID: "w1", Names: "web"})

	h.send(webLine)
	f := h.waitFor(func(f Frame) bool { return f.WindowLen == 3 })
	assert.Len(t, f.Datasets[0].Items, 3)

	for i := 0; i < 5; i++ {
		f = h.waitFor(func(Frame) bool { return true })
		assert.LessOrEqual(t, f.WindowLen, 3)
	}
}

func TestPipeline_Freeze(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Frozen: true},
		feed.Identity{ID: "w1", Names: "web"})

	h.send(webLine)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Ticks) >= 3
	}, 3*time.Second, 5*time.Millisecond)

	for len(h.frames) > 0 {
		f := <-h.frames
		assert.Zero(t, f.WindowLen, "frozen window does not advance")
	}

	require.NoError(t, h.p.Freeze(false))
	f := h.waitFor(hasCharts)
	assert.False(t, f.Frozen)
	assert.Positive(t, f.WindowLen)

	require.NoError(t, h.p.Freeze(true))
	f = h.waitFor(func(f Frame) bool { return f.Frozen })
	assert.NotEmpty(t, f.Datasets, "frozen frames still carry the window's charts")
}

func TestPipeline_TopologyChangeResyncs(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Combine},
		feed.Identity{ID: "w1", Names: "web"})

	h.send(webLine)
	h.waitFor(hasCharts)

	h.enum.set(feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})
	h.send(webLine + "\n" + dbLine)

	f := h.waitFor(func(f Frame) bool { return len(f.Containers) == 2 })
	assert.Equal(t, "db", f.Containers[0].Name)
	assert.Equal(t, "web", f.Containers[1].Name)
	assert.True(t, f.IsSelected("w1"))
	assert.False(t, f.IsSelected("d1"), "only previously selected containers stay selected")
	assert.GreaterOrEqual(t, testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonTopology)), 1.0)
}

func TestPipeline_EnumerationFailureKeepsRegistry(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t)},
		feed.Identity{ID: "w1", Names: "web"})

	h.send(webLine)
	h.waitFor(hasCharts)

	h.enum.mu.Lock()
	h.enum.err = stderrors.New("daemon gone")
	h.enum.mu.Unlock()
	before := h.enum.callCount()
	h.send(webLine + "\n" + dbLine)

	require.Eventually(t, func() bool { return h.enum.callCount() > before+1 },
		3*time.Second, 5*time.Millisecond, "each tick retries the refresh")

	f := h.waitFor(func(Frame) bool { return true })
	require.Len(t, f.Containers, 1)
	assert.Equal(t, "web", f.Containers[0].Name)
}

func TestPipeline_ParseFailuresForceResync(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), MaxFailedReads: 2},
		feed.Identity{ID: "w1", Names: "web"})

	for i := 0; i < 3; i++ {
		h.send("{not json")
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonFailures)) == 1
	}, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.ParseFailures))

	// The count restarted: two more failures stay under the threshold.
	h.send("{not json")
	h.send("{not json")
	h.send(webLine)
	h.waitFor(hasCharts)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonFailures)))
}

func TestPipeline_GoodBatchResetsFailures(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), MaxFailedReads: 2},
		feed.Identity{ID: "w1", Names: "web"})

	for i := 0; i < 4; i++ {
		h.send("{not json")
		h.send("{not json")
		h.send(webLine)
	}
	h.waitFor(hasCharts)
	assert.Zero(t, testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonFailures)))
}

func TestPipeline_LimitNoticeIsSticky(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Split, MaxCharts: 1},
		feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})

	h.send(webLine + "\n" + dbLine)
	first := h.waitFor(func(f Frame) bool { return f.LimitReached })
	assert.True(t, first.ShowLimitNotice)
	assert.Len(t, first.Datasets, 1)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, "Too many charts to display. Showing only 1 charts.", first.NoticeText())

	next := h.waitFor(func(f Frame) bool { return f.LimitReached })
	assert.False(t, next.ShowLimitNotice, "shown once")

	require.NoError(t, h.p.ResetNotice())
	h.waitFor(func(f Frame) bool { return f.ShowLimitNotice })
}

func TestPipeline_SelectionControls(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Split},
		feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})

	h.send(webLine + "\n" + dbLine)
	h.waitFor(func(f Frame) bool { return len(f.Datasets) == 2 })

	require.NoError(t, h.p.Deselect("w1"))
	f := h.waitFor(func(f Frame) bool { return !f.IsSelected("w1") })
	assert.Len(t, f.Datasets, 1)

	require.NoError(t, h.p.Toggle("w1"))
	h.waitFor(func(f Frame) bool { return f.IsSelected("w1") && len(f.Datasets) == 2 })

	require.NoError(t, h.p.SelectNone())
	f = h.waitFor(func(f Frame) bool { return f.Selected.Empty() })
	assert.Empty(t, f.Datasets)

	require.NoError(t, h.p.Select("d1"))
	f = h.waitFor(func(f Frame) bool { return f.IsSelected("d1") })
	assert.False(t, f.IsSelected("w1"))

	require.NoError(t, h.p.SelectAll())
	h.waitFor(func(f Frame) bool { return f.Selected.Len() == 2 })
}

func TestPipeline_FilterAndMode(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Split},
		feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})

	h.send(webLine + "\n" + dbLine)
	h.waitFor(func(f Frame) bool { return len(f.Datasets) == 2 })

	require.NoError(t, h.p.SetFilter(regexp.MustCompile("^w")))
	f := h.waitFor(func(f Frame) bool { return f.Filter == "^w" })
	require.Len(t, f.Containers, 1)
	assert.Equal(t, "web", f.Containers[0].Name)
	assert.Len(t, f.Datasets, 1)

	require.NoError(t, h.p.SetFilter(nil))
	require.NoError(t, h.p.SetMode(charts.Overview))
	f = h.waitFor(func(f Frame) bool { return f.Mode == charts.Overview && len(f.Containers) == 2 })
	require.Len(t, f.Datasets, 1)
	assert.Equal(t, "CPU total", f.Datasets[0].Items[0].Dots[0].Label)
}

func TestPipeline_ColorControls(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t), Mode: charts.Combine},
		feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})

	h.send(webLine + "\n" + dbLine)
	h.waitFor(hasCharts)

	require.NoError(t, h.p.SetColorize(true))
	f := h.waitFor(func(f Frame) bool { return f.Colorize && hasCharts(f) })
	for _, d := range f.Datasets[0].Items[0].Dots {
		assert.NotEqual(t, "#42a5f5", d.Color, "container colors replace the device color")
	}

	require.NoError(t, h.p.Deselect("d1"))
	require.NoError(t, h.p.ShuffleColors())
	f = h.waitFor(func(f Frame) bool { return !f.IsSelected("d1") })
	assert.Equal(t, 1, f.Selected.Len(), "shuffling keeps the selection")
	for _, c := range f.Containers {
		assert.NotEmpty(t, c.Color)
	}
}

func TestPipeline_SetIntervalAndDevices(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t)}, feed.Identity{ID: "w1", Names: "web"})

	require.NoError(t, h.p.SetInterval(20*time.Millisecond))
	h.waitFor(func(f Frame) bool { return f.Interval == 20*time.Millisecond })

	require.NoError(t, h.p.SetInterval(0))
	f := h.waitFor(func(Frame) bool { return true })
	assert.Equal(t, 20*time.Millisecond, f.Interval, "non-positive intervals are ignored")

	require.NoError(t, h.p.SetDevices(charts.DefaultDevices()))
	h.waitFor(func(f Frame) bool { return len(f.Devices) == 4 })
}

func TestPipeline_ManualResync(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t)}, feed.Identity{ID: "w1", Names: "web"})
	h.waitFor(func(Frame) bool { return true })

	h.enum.set(feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})
	require.NoError(t, h.p.Resync())

	h.waitFor(func(f Frame) bool { return len(f.Containers) == 2 })
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Resyncs.WithLabelValues(ReasonManual)))
}

func TestPipeline_StopEndsEverything(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t)}, feed.Identity{ID: "w1", Names: "web"})
	h.send(webLine)
	h.waitFor(hasCharts)

	h.stop()
	require.NoError(t, h.err)

	select {
	case <-h.sub.closed:
	default:
		t.Fatal("subscription left open")
	}

	pending := len(h.frames)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, pending, len(h.frames), "no frames after Run returns")
	assert.ErrorIs(t, h.p.Freeze(true), ErrStopped)
}

func TestKeepSelected(t *testing.T) {
	h := start(t, Options{Devices: cpuOnly(t)},
		feed.Identity{ID: "w1", Names: "web"}, feed.Identity{ID: "d1", Names: "db"})
	f := h.waitFor(func(f Frame) bool { return len(f.Containers) == 2 })

	selected := f.Selected.Without("d1")
	kept := keepSelected(selected, f.Selected)
	assert.Equal(t, []string{"web"}, kept.Names())
}

type failingStreamer struct {
	mu    sync.Mutex
	calls int
}

func (f *failingStreamer) Subscribe(ctx context.Context) (feed.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, stderrors.New("runtime not found")
}

func (f *failingStreamer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPipeline_ResubscribeIsPaced(t *testing.T) {
	streamer := &failingStreamer{}
	log := logger.NewBufferLogger()
	p := New(Options{
		Enumerator: &fakeEnumerator{},
		Streamer:   streamer,
		Interval:   time.Hour,
		RetryDelay: 20 * time.Millisecond,
		Logger:     log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	calls := streamer.count()
	assert.GreaterOrEqual(t, calls, 3, "keeps retrying")
	assert.LessOrEqual(t, calls, 9, "waits between attempts")
	assert.True(t, log.HasLevel("warn"))
}
