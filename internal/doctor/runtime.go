package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rileyhilliard/livecharts/internal/feed"
	"github.com/rileyhilliard/livecharts/internal/stats"
)

// RuntimeBinaryCheck looks for the runtime CLI on PATH. Remote sources run
// it on the host, so there is nothing to check locally.
type RuntimeBinaryCheck struct {
	Runtime string
	Remote  bool

	// lookPath is exec.LookPath unless a test replaces it.
	lookPath func(string) (string, error)
}

func (c *RuntimeBinaryCheck) Name() string     { return "runtime_binary" }
func (c *RuntimeBinaryCheck) Category() string { return "RUNTIME" }

func (c *RuntimeBinaryCheck) Run(ctx context.Context) CheckResult {
	if c.Remote {
		return CheckResult{Status: StatusSkip, Message: fmt.Sprintf("%s runs on the remote host", c.Runtime)}
	}
	look := c.lookPath
	if look == nil {
		look = exec.LookPath
	}
	path, err := look(c.Runtime)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s not found on PATH", c.Runtime),
			Suggestion: "Install it, or set source.runtime in .livecharts.yaml",
		}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s found: %s", c.Runtime, path)}
}

// RuntimeListCheck lists running containers through the source's enumerator.
type RuntimeListCheck struct {
	Enumerator feed.Enumerator
	Timeout    time.Duration
}

func (c *RuntimeListCheck) Name() string     { return "runtime_list" }
func (c *RuntimeListCheck) Category() string { return "RUNTIME" }

func (c *RuntimeListCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	ids, err := c.Enumerator.List(ctx)
	if err != nil {
		return failure("Couldn't list containers", err)
	}
	if len(ids) == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No running containers",
			Suggestion: "Start a container to have something to chart",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d running container%s", len(ids), pluralize(len(ids))),
	}
}

// StatsStreamCheck subscribes to the stats stream and decodes the first batch.
type StatsStreamCheck struct {
	Streamer feed.Streamer
	Timeout  time.Duration
}

func (c *StatsStreamCheck) Name() string     { return "stats_stream" }
func (c *StatsStreamCheck) Category() string { return "RUNTIME" }

func (c *StatsStreamCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	sub, err := c.Streamer.Subscribe(ctx)
	if err != nil {
		return failure("Couldn't start the stats stream", err)
	}
	defer sub.Close()

	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return CheckResult{
				Status:     StatusFail,
				Message:    "No stats arrived in time",
				Suggestion: "Check that 'docker stats' works on the host",
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return failure("Stats stream failed", err)
			}
		case batch, ok := <-sub.Batches():
			if !ok {
				return CheckResult{
					Status:     StatusFail,
					Message:    "Stats stream ended before the first batch",
					Suggestion: "Check that 'docker stats' works on the host",
				}
			}
			return checkBatch(batch)
		}
	}
}

// checkBatch decodes a batch and parses every sample.
func checkBatch(batch []byte) CheckResult {
	samples, err := feed.DecodeBatch(batch)
	if err != nil {
		return failure("Couldn't decode stats", err)
	}
	if len(samples) == 0 {
		return CheckResult{Status: StatusPass, Message: "Stats stream works, no containers reported"}
	}
	for _, s := range samples {
		if _, err := stats.ParseMetrics(s); err != nil {
			msg, _ := explain(firstError(err))
			return CheckResult{
				Status:     StatusWarn,
				Message:    fmt.Sprintf("Stats for %s don't fully parse: %s", s.Name, msg),
				Suggestion: "The affected fields chart as zero",
			}
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Stats stream works: %d container%s reported", len(samples), pluralize(len(samples))),
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// firstError returns the first of a joined error.
func firstError(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return err
}
