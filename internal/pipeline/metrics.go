package pipeline

import "github.com/prometheus/client_golang/prometheus"

const namespace = "livecharts"

// Resync reasons, used as the "reason" label.
const (
	ReasonStartup  = "startup"
	ReasonTopology = "topology"
	ReasonFailures = "failures"
	ReasonManual   = "manual"
)

// Metrics counts what the pipeline does.
type Metrics struct {
	Ticks         prometheus.Counter
	Snapshots     prometheus.Counter
	ParseFailures prometheus.Counter
	Resyncs       *prometheus.CounterVec
	Charts        prometheus.Gauge
	LimitReached  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Timer ticks that found a batch to process.",
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Snapshots inserted into the window.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_parse_failures_total",
			Help:      "Stats batches discarded because a record was malformed.",
		}),
		Resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Container registry refreshes, by reason.",
		}, []string{"reason"}),
		Charts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charts",
			Help:      "Charts in the last published frame.",
		}),
		LimitReached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_limit_reached_total",
			Help:      "Recompute passes that dropped charts over the cap.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Ticks, m.Snapshots, m.ParseFailures, m.Resyncs, m.Charts, m.LimitReached)
	}
	return m
}
