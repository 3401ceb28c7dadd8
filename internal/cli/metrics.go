package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/pipeline"
)

// newMetrics registers the pipeline collectors on a fresh registry, plus the
// process and Go runtime collectors.
func newMetrics() (*prometheus.Registry, *pipeline.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return reg, pipeline.NewMetrics(reg)
}

// serveMetrics serves reg on addr at /metrics until ctx is cancelled. The
// listener is bound before returning so address errors surface right away.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logger.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't listen on metrics address "+addr,
			"Pick a free port with --metrics-addr, or leave it empty")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server: %v", err)
		}
	}()

	log.Info("serving metrics on http://%s/metrics", ln.Addr())
	return ln.Addr(), nil
}
