package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/exec"
)

// DefaultRuntime is the CLI used when none is configured.
const DefaultRuntime = "docker"

const jsonFormat = "{{json .}}"

// CLI talks to a docker-compatible CLI on this machine.
type CLI struct {
	// Runtime is the binary to run, e.g. docker or podman.
	Runtime string
}

// NewCLI returns a CLI feed for runtime, defaulting to docker.
func NewCLI(runtime string) *CLI {
	if runtime == "" {
		runtime = DefaultRuntime
	}
	return &CLI{Runtime: runtime}
}

// List runs `<runtime> ps --format '{{json .}}'`.
func (c *CLI) List(ctx context.Context) ([]Identity, error) {
	stdout, stderr, code, err := exec.Capture(ctx, c.Runtime, "ps", "--format", jsonFormat)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, errors.New(errors.ErrFeed,
			fmt.Sprintf("%s ps exited with status %d", c.Runtime, code),
			strings.TrimSpace(string(stderr)))
	}
	return DecodeIdentities(stdout)
}

// Subscribe starts `<runtime> stats --format '{{json .}}'`.
func (c *CLI) Subscribe(ctx context.Context) (Subscription, error) {
	proc, err := exec.Start(ctx, c.Runtime, "stats", "--format", jsonFormat)
	if err != nil {
		return nil, err
	}
	return newProcessSubscription(ctx, proc), nil
}
