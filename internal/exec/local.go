// Package exec runs local commands for the docker CLI feed, with the same
// shape as the SSH runner so both feeds share their framing code.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

// Capture runs name with args and returns its output.
// exitCode is -1 when the command couldn't be run at all.
func Capture(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error) {
	command := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	command.Stdout = &stdoutBuf
	command.Stderr = &stderrBuf

	if runErr := command.Run(); runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(runErr, errors.ErrExec,
			fmt.Sprintf("Couldn't run %s", commandLine(name, args)),
			"Make sure the command exists and is executable.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}

// Process is a started local command whose stdout is read as it arrives.
type Process struct {
	command   *exec.Cmd
	stdout    io.ReadCloser
	stderr    bytes.Buffer
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Start launches name with args. The command is killed when ctx is done or
// Close is called.
func Start(ctx context.Context, name string, args ...string) (*Process, error) {
	ctx, cancel := context.WithCancel(ctx)
	p := &Process{
		command: exec.CommandContext(ctx, name, args...),
		cancel:  cancel,
	}

	stdout, err := p.command.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't create stdout pipe",
			"This shouldn't happen - please report this bug!")
	}
	p.stdout = stdout
	p.command.Stderr = &p.stderr

	if err := p.command.Start(); err != nil {
		cancel()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Couldn't start %s", commandLine(name, args)),
			"Make sure the command exists and is executable.")
	}
	return p, nil
}

// Output returns the command's stdout.
func (p *Process) Output() io.Reader {
	return p.stdout
}

// Wait blocks until the command exits. It must be called after stdout has
// been drained. A non-zero exit is an ErrExec error carrying stderr.
func (p *Process) Wait() error {
	err := p.command.Wait()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return errors.New(errors.ErrExec,
			fmt.Sprintf("%s exited with status %d", p.command.Path, exitErr.ExitCode()),
			strings.TrimSpace(p.stderr.String()))
	}
	return errors.WrapWithCode(err, errors.ErrExec, "Local command failed", "")
}

// Close kills the command.
func (p *Process) Close() error {
	p.closeOnce.Do(p.cancel)
	return nil
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
