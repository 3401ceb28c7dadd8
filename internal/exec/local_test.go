package exec

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

func TestCapture_SimpleCommand(t *testing.T) {
	stdout, stderr, exitCode, err := Capture(context.Background(), "echo", "hello")

	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
	assert.Equal(t, "hello\n", string(stdout))
	assert.Empty(t, stderr)
}

func TestCapture_NonZeroExitCode(t *testing.T) {
	_, stderr, exitCode, err := Capture(context.Background(), "sh", "-c", "echo boom >&2; exit 42")

	require.NoError(t, err, "command ran, it just failed")
	assert.Equal(t, 42, exitCode)
	assert.Equal(t, "boom\n", string(stderr))
}

func TestCapture_CommandNotFound(t *testing.T) {
	_, _, exitCode, err := Capture(context.Background(), "livecharts-no-such-binary")

	require.Error(t, err)
	assert.Equal(t, -1, exitCode)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "livecharts-no-such-binary")
}

func TestStart_ReadsOutput(t *testing.T) {
	p, err := Start(context.Background(), "sh", "-c", "printf 'a\\nb\\n'")
	require.NoError(t, err)

	out, err := io.ReadAll(p.Output())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(out))
	assert.NoError(t, p.Wait())
}

func TestStart_NonZeroExit(t *testing.T) {
	p, err := Start(context.Background(), "sh", "-c", "echo nope >&2; exit 3")
	require.NoError(t, err)

	_, _ = io.ReadAll(p.Output())
	err = p.Wait()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "nope")
}

func TestStart_CloseKills(t *testing.T) {
	p, err := Start(context.Background(), "sleep", "30")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _ = io.ReadAll(p.Output())
		done <- p.Wait()
	}()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	select {
	case err := <-done:
		assert.Error(t, err, "killed process reports an error")
	case <-time.After(5 * time.Second):
		t.Fatal("process was not killed")
	}
}

func TestStart_NotFound(t *testing.T) {
	_, err := Start(context.Background(), "livecharts-no-such-binary")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}
