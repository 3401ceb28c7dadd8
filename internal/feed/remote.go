package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/util"
	"github.com/rileyhilliard/livecharts/pkg/sshutil"
)

// Remote runs the docker CLI on another host over SSH.
type Remote struct {
	Runner  sshutil.Runner
	Runtime string
}

// NewRemote returns a remote feed that runs runtime through r.
func NewRemote(r sshutil.Runner, runtime string) *Remote {
	if runtime == "" {
		runtime = DefaultRuntime
	}
	return &Remote{Runner: r, Runtime: runtime}
}

func (r *Remote) command(sub string) string {
	return util.ShellCommand(r.Runtime, sub, "--format", jsonFormat)
}

// List runs `docker ps` on the remote host.
func (r *Remote) List(ctx context.Context) ([]Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stdout, stderr, code, err := r.Runner.Exec(r.command("ps"))
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, errors.New(errors.ErrFeed,
			fmt.Sprintf("%s ps on %s exited with status %d", r.Runtime, r.Runner.GetHost(), code),
			strings.TrimSpace(string(stderr)))
	}
	return DecodeIdentities(stdout)
}

// Subscribe starts `docker stats` on the remote host.
func (r *Remote) Subscribe(ctx context.Context) (Subscription, error) {
	proc, err := r.Runner.Start(r.command("stats"))
	if err != nil {
		return nil, err
	}
	return newProcessSubscription(ctx, proc), nil
}
