package cli

import (
	"time"

	"github.com/rileyhilliard/livecharts/internal/config"
	"github.com/rileyhilliard/livecharts/internal/feed"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/pkg/sshutil"
)

// Source is an opened stats source.
type Source struct {
	Enumerator feed.Enumerator
	Streamer   feed.Streamer
	// Name describes the source for headers, e.g. "local docker".
	Name  string
	close func() error
}

// Close releases the SSH connection, if any.
func (s *Source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Connectors, replaced in tests.
var (
	dialSSH = func(host string, timeout time.Duration) (sshutil.Runner, error) {
		return sshutil.Dial(host, timeout)
	}
	newEngine = func() (feed.Enumerator, error) {
		return feed.NewEngine()
	}
)

// openSource connects to the runtime described by r.
func openSource(r *config.Resolved, log logger.Logger) (*Source, error) {
	runtime := r.Source.Runtime

	if r.Source.Kind == config.SourceSSH {
		log.Info("connecting to %s", r.Source.Host)
		client, err := dialSSH(r.Source.Host, r.SSHTimeout)
		if err != nil {
			return nil, err
		}
		remote := feed.NewRemote(client, runtime)
		return &Source{
			Enumerator: remote,
			Streamer:   remote,
			Name:       runtime + " on " + r.Source.Host,
			close:      client.Close,
		}, nil
	}

	local := feed.NewCLI(runtime)
	src := &Source{
		Enumerator: local,
		Streamer:   local,
		Name:       "local " + runtime,
	}
	if r.Source.Enumerator == config.EnumeratorEngine {
		engine, err := newEngine()
		if err != nil {
			return nil, err
		}
		src.Enumerator = engine
		src.Name += " (engine)"
		log.Debug("listing containers through the Engine API")
	}
	return src, nil
}
