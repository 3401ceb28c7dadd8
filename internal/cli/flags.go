package cli

import (
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/livecharts/internal/config"
)

// AddConfigFlags registers a flag for every key in config.FlagKeys. Defaults
// come from the config layer, so the flags only override when set.
func AddConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("host", "", "stream stats over SSH from this host (alias, host or user@host)")
	f.String("runtime", "", "docker-compatible CLI to run (docker, podman, nerdctl)")
	f.String("enumerator", "", "how containers are listed: cli or engine")
	f.String("interval", "", "refresh interval, e.g. 1s or 500ms")
	f.Int("window-size", 0, "snapshots kept per chart")
	f.Int("max-charts", 0, "most charts drawn at once")
	f.Int("max-failed-reads", 0, "bad stats batches in a row before a resync")
	f.String("mode", "", "chart mode: overview, combine or split")
	f.StringSlice("devices", nil, "devices to chart: cpu,memory,disk,network")
	f.String("filter", "", "regular expression matched against container names")
	f.Bool("colorize", false, "draw every container in its own color")
	f.String("palette", "", "series palette: auto, light or dark")
	f.String("log-file", "", "write logs to this file")
	f.String("log-level", "", "log level: debug, info, warn or error")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9090")
}

// loadConfig loads the config for cmd, layering its set flags on top, and
// resolves it.
func loadConfig(cmd *cobra.Command) (*config.Resolved, string, error) {
	cfg, path, err := config.LoadWithFlags(configFlag, cmd.Flags())
	if err != nil {
		return nil, "", err
	}
	resolved, err := config.Resolve(cfg)
	if err != nil {
		return nil, "", err
	}
	return resolved, path, nil
}
