// Package pipeline drives ingestion. A feed reader keeps the latest decoded
// stats batch in a single-slot holder; a loop goroutine owns every piece of
// state and, on each tick, turns that batch into a snapshot, appends it to the
// window, recomputes the charts and hands a Frame to the sink.
package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"math/rand/v2"
	"regexp"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/feed"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/palette"
	"github.com/rileyhilliard/livecharts/internal/registry"
	"github.com/rileyhilliard/livecharts/internal/stats"
	"github.com/rileyhilliard/livecharts/internal/window"
)

const (
	// DefaultInterval is the tick period.
	DefaultInterval = time.Second
	// MaxFailedReads is how many consecutive bad batches force a resync.
	MaxFailedReads = 20
	// DefaultRetryDelay is the wait before resubscribing to a dead stream.
	DefaultRetryDelay = 2 * time.Second
)

// ErrStopped is returned by controls once Run has returned.
var ErrStopped = stderrors.New("pipeline stopped")

// Options configures a Pipeline. Enumerator, Streamer and Sink are required.
type Options struct {
	Enumerator feed.Enumerator
	Streamer   feed.Streamer
	// Sink receives every frame, on the loop goroutine. It must not block
	// for long and must not call controls.
	Sink func(Frame)

	Devices        []charts.Device
	Mode           charts.Mode
	Filter         *regexp.Regexp
	Colorize       bool
	Frozen         bool
	Interval       time.Duration
	WindowSize     int
	MaxCharts      int
	MaxFailedReads int
	RetryDelay     time.Duration
	Palette        palette.Variant

	// Rand drives color shuffles. Nil seeds one from the runtime.
	Rand *rand.Rand
	// Now stamps snapshots. Nil means time.Now.
	Now     func() time.Time
	Logger  logger.Logger
	Metrics *Metrics
}

func (o *Options) setDefaults() {
	if o.Devices == nil {
		o.Devices = charts.DefaultDevices()
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxCharts <= 0 {
		o.MaxCharts = charts.MaxCharts
	}
	if o.MaxFailedReads <= 0 {
		o.MaxFailedReads = MaxFailedReads
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Noop()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(nil)
	}
	if o.Sink == nil {
		o.Sink = func(Frame) {}
	}
}

// Pipeline is created with New and started with Run.
type Pipeline struct {
	opts Options
	log  logger.Logger

	latest   atomic.Pointer[[]stats.RawSample]
	resync   chan string
	controls chan func(*state)
	done     chan struct{}
}

// New fills in defaults for opts and returns a pipeline ready to Run.
func New(opts Options) *Pipeline {
	opts.setDefaults()
	return &Pipeline{
		opts:     opts,
		log:      opts.Logger,
		resync:   make(chan string, 1),
		controls: make(chan func(*state)),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled. The stats subscription is closed and
// the sink is never called again once Run returns. Run may only be called
// once.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.done)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return p.read(egCtx)
	})
	eg.Go(func() error {
		return p.loop(egCtx)
	})
	return eg.Wait()
}

// state is owned by the loop goroutine.
type state struct {
	running  registry.Registry
	filtered registry.Registry
	selected registry.Registry
	window   window.Window
	alloc    *palette.Allocator
	notice   charts.Notice

	devices  []charts.Device
	mode     charts.Mode
	filter   *regexp.Regexp
	colorize bool
	frozen   bool
	interval time.Duration

	// resync is set by a control to refresh the registry before publishing.
	resync string
}

func (p *Pipeline) newState() *state {
	return &state{
		window:   window.New(p.opts.WindowSize),
		alloc:    palette.New(p.opts.Palette),
		devices:  p.opts.Devices,
		mode:     p.opts.Mode,
		filter:   p.opts.Filter,
		colorize: p.opts.Colorize,
		frozen:   p.opts.Frozen,
		interval: p.opts.Interval,
	}
}

func (p *Pipeline) loop(ctx context.Context) error {
	s := p.newState()
	p.refresh(ctx, s, ReasonStartup)
	p.publish(s)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	current := s.interval

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if p.tick(ctx, s) {
				ticker.Reset(s.interval)
			}

		case reason := <-p.resync:
			p.refresh(ctx, s, reason)
			p.publish(s)
			ticker.Reset(s.interval)

		case fn := <-p.controls:
			fn(s)
			if s.resync != "" {
				reason := s.resync
				s.resync = ""
				p.refresh(ctx, s, reason)
				ticker.Reset(s.interval)
			}
			if s.interval != current {
				current = s.interval
				ticker.Reset(current)
			}
			p.publish(s)
		}
	}
}

// tick processes the latest batch. It reports whether a resync ran, in which
// case the ticker restarts.
func (p *Pipeline) tick(ctx context.Context, s *state) bool {
	batch := p.latest.Load()
	if batch == nil {
		return false
	}
	p.opts.Metrics.Ticks.Inc()

	samples := *batch
	if registry.Diff(s.running.Names(), sampleNames(samples)) {
		p.log.Debug("container set changed: registry %s", s.running)
		p.refresh(ctx, s, ReasonTopology)
		p.publish(s)
		return true
	}
	if s.frozen {
		return false
	}

	snap := p.snapshot(s, samples)
	if !s.window.Contains(snap.Timestamp) {
		p.opts.Metrics.Snapshots.Inc()
	}
	s.window = s.window.InsertUnique(snap)
	p.publish(s)
	return false
}

// snapshot joins samples to registered containers by name.
func (p *Pipeline) snapshot(s *state, samples []stats.RawSample) stats.Snapshot {
	known := make([]stats.RawSample, 0, len(samples))
	for _, sample := range samples {
		if _, err := s.running.LookupByName(sample.Name); err != nil {
			p.log.Error("internal error: sample for unregistered container %q: %v", sample.Name, err)
			continue
		}
		known = append(known, sample)
	}
	return stats.BuildSnapshot(stats.Stamp(p.opts.Now()), known, p.log)
}

// refresh re-enumerates containers. On failure the previous registry stays
// and the next tick retries.
func (p *Pipeline) refresh(ctx context.Context, s *state, reason string) {
	p.opts.Metrics.Resyncs.WithLabelValues(reason).Inc()

	ids, err := p.opts.Enumerator.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("container enumeration failed (%s): %v", reason, err)
		}
		return
	}
	s.running = s.running.Refresh(feed.ToRegistry(ids), s.alloc)
	p.applyFilter(s)
	p.log.Info("registry refreshed (%s): %d containers", reason, s.running.Len())
}

func (p *Pipeline) applyFilter(s *state) {
	s.filtered = s.running.FilterByNamePattern(s.filter)
	s.selected = registry.Narrow(s.selected, s.filtered)
}

// publish recomputes the datasets and hands a frame to the sink.
func (p *Pipeline) publish(s *state) {
	res, err := charts.Recompute(charts.Request{
		Window:            s.window,
		Selected:          s.selected,
		Devices:           s.devices,
		Mode:              s.mode,
		UseContainerColor: s.colorize,
		MaxCharts:         p.opts.MaxCharts,
	})
	if err != nil {
		p.log.Error("recompute failed: %v", err)
		return
	}

	if res.LimitReached {
		p.opts.Metrics.LimitReached.Inc()
	}
	p.opts.Metrics.Charts.Set(float64(len(res.Datasets)))

	frame := Frame{
		Datasets:        res.Datasets,
		Total:           res.Total,
		LimitReached:    res.LimitReached,
		ShowLimitNotice: s.notice.Observe(res.LimitReached),
		MaxCharts:       p.opts.MaxCharts,
		Containers:      s.filtered.Containers(),
		Selected:        s.selected,
		Devices:         s.devices,
		Frozen:          s.frozen,
		Colorize:        s.colorize,
		Mode:            s.mode,
		Interval:        s.interval,
		WindowLen:       s.window.Len(),
	}
	if s.filter != nil {
		frame.Filter = s.filter.String()
	}
	if latest, ok := s.window.Latest(); ok {
		frame.Timestamp = latest.Timestamp
	}
	p.opts.Sink(frame)
}

// read feeds the latest-batch holder until ctx is done, resubscribing when
// the stream ends. Subscriptions are paced to one per RetryDelay.
func (p *Pipeline) read(ctx context.Context) error {
	failures := 0
	retry := rate.NewLimiter(rate.Every(p.opts.RetryDelay), 1)
	for {
		if err := retry.Wait(ctx); err != nil {
			return nil
		}

		sub, err := p.opts.Streamer.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("stats subscription failed: %v", err)
			continue
		}

		p.consume(ctx, sub, &failures)
		_ = sub.Close()
		if ctx.Err() != nil {
			return nil
		}
		p.log.Warn("stats stream ended, resubscribing")
	}
}

func (p *Pipeline) consume(ctx context.Context, sub feed.Subscription, failures *int) {
	batches := sub.Batches()
	errs := sub.Errors()
	for batches != nil || errs != nil {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				batches = nil
				continue
			}
			p.ingest(b, failures)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if !stderrors.Is(err, io.EOF) {
				p.log.Warn("stats stream error: %v", err)
			}
		}
	}
}

// ingest decodes one batch into the holder. Consecutive failures past the
// threshold request a resync and start the count over.
func (p *Pipeline) ingest(batch []byte, failures *int) {
	samples, err := feed.DecodeBatch(batch)
	if err != nil {
		*failures++
		p.opts.Metrics.ParseFailures.Inc()
		p.log.Debug("discarding batch (%d consecutive): %v", *failures, err)
		if *failures > p.opts.MaxFailedReads {
			p.requestResync(ReasonFailures)
			*failures = 0
		}
		return
	}
	*failures = 0
	if len(samples) == 0 {
		return
	}
	p.latest.Store(&samples)
}

func (p *Pipeline) requestResync(reason string) {
	select {
	case p.resync <- reason:
	default:
	}
}

func sampleNames(samples []stats.RawSample) []string {
	names := make([]string, len(samples))
	for i, s := range samples {
		names[i] = s.Name
	}
	return names
}
