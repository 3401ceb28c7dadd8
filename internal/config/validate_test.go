package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/errors"
)

func TestResolve_Defaults(t *testing.T) {
	r, err := Resolve(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, time.Second, r.Interval)
	assert.Equal(t, 10*time.Second, r.SSHTimeout)
	assert.Equal(t, charts.Overview, r.Mode)
	assert.Len(t, r.Devices, 4)
	assert.Nil(t, r.Filter)
	assert.Equal(t, "auto", r.Palette)
	assert.Equal(t, slog.LevelInfo, r.LogLevel)
}

func TestResolve_Converts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = "250ms"
	cfg.Mode = "split"
	cfg.Devices = []string{"network", "cpu"}
	cfg.Units.Network = "kB"
	cfg.Filter = "^web"
	cfg.Palette = "light"
	cfg.Log.Level = "debug"

	r, err := Resolve(cfg)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, r.Interval)
	assert.Equal(t, charts.Split, r.Mode)
	require.Len(t, r.Devices, 2)
	assert.Equal(t, charts.Network, r.Devices[0].Key)
	assert.Equal(t, "kB", r.Devices[0].Unit)
	assert.Equal(t, charts.CPU, r.Devices[1].Key)
	assert.Equal(t, "%", r.Devices[1].Unit)
	assert.True(t, r.Filter.MatchString("web-1"))
	assert.Equal(t, "light", r.Palette)
	assert.Equal(t, slog.LevelDebug, r.LogLevel)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{
			name:   "future version",
			modify: func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			want:   "from the future",
		},
		{
			name:   "unknown source kind",
			modify: func(c *Config) { c.Source.Kind = "k8s" },
			want:   "source.kind 'k8s' isn't valid",
		},
		{
			name:   "ssh without host",
			modify: func(c *Config) { c.Source.Kind = SourceSSH },
			want:   "no source.host",
		},
		{
			name:   "host with local kind",
			modify: func(c *Config) { c.Source.Host = "box" },
			want:   "set kind to 'ssh'",
		},
		{
			name: "host with a path",
			modify: func(c *Config) {
				c.Source.Kind = SourceSSH
				c.Source.Host = "box/x"
			},
			want: "should be a host",
		},
		{
			name:   "runtime with spaces",
			modify: func(c *Config) { c.Source.Runtime = "docker --debug" },
			want:   "single command",
		},
		{
			name:   "unknown enumerator",
			modify: func(c *Config) { c.Source.Enumerator = "api" },
			want:   "source.enumerator 'api' isn't valid",
		},
		{
			name: "engine over ssh",
			modify: func(c *Config) {
				c.Source.Kind = SourceSSH
				c.Source.Host = "box"
				c.Source.Enumerator = EnumeratorEngine
			},
			want: "only works with source.kind 'local'",
		},
		{
			name:   "bad interval",
			modify: func(c *Config) { c.Interval = "soon" },
			want:   "interval 'soon' doesn't look like a valid duration",
		},
		{
			name:   "interval too short",
			modify: func(c *Config) { c.Interval = "10ms" },
			want:   "too short",
		},
		{
			name:   "bad ssh timeout",
			modify: func(c *Config) { c.Source.Timeout = "x" },
			want:   "source.timeout",
		},
		{
			name:   "zero window",
			modify: func(c *Config) { c.WindowSize = 0 },
			want:   "window_size needs to be positive",
		},
		{
			name:   "window spans an hour",
			modify: func(c *Config) { c.WindowSize = 3600 },
			want:   "window_size 3600 at interval 1s spans an hour or more",
		},
		{
			name: "window spans more than an hour",
			modify: func(c *Config) {
				c.Interval = "500ms"
				c.WindowSize = 1 << 40
			},
			want: "spans an hour or more",
		},
		{
			name:   "negative max charts",
			modify: func(c *Config) { c.MaxCharts = -1 },
			want:   "max_charts needs to be positive",
		},
		{
			name:   "zero failed reads",
			modify: func(c *Config) { c.MaxFailedReads = 0 },
			want:   "max_failed_reads needs to be positive",
		},
		{
			name:   "unknown mode",
			modify: func(c *Config) { c.Mode = "stacked" },
			want:   "Unknown mode 'stacked'",
		},
		{
			name:   "no devices",
			modify: func(c *Config) { c.Devices = nil },
			want:   "No devices configured",
		},
		{
			name:   "unknown device",
			modify: func(c *Config) { c.Devices = []string{"gpu"} },
			want:   "gpu",
		},
		{
			name:   "duplicate device",
			modify: func(c *Config) { c.Devices = []string{"cpu", "cpu"} },
			want:   "listed twice",
		},
		{
			name:   "bad unit",
			modify: func(c *Config) { c.Units.Disk = "MiB" },
			want:   "MiB",
		},
		{
			name:   "bad filter",
			modify: func(c *Config) { c.Filter = "web(" },
			want:   "isn't a valid regular expression",
		},
		{
			name:   "bad palette",
			modify: func(c *Config) { c.Palette = "neon" },
			want:   "Unknown palette 'neon'",
		},
		{
			name:   "bad log level",
			modify: func(c *Config) { c.Log.Level = "loud" },
			want:   "log.level 'loud' isn't valid",
		},
		{
			name:   "bad metrics addr",
			modify: func(c *Config) { c.Metrics.Addr = "9090" },
			want:   "metrics.addr '9090'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	require.Error(t, Validate(nil))
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "ssh source", modify: func(c *Config) {
			c.Source.Kind = SourceSSH
			c.Source.Host = "deploy@box"
		}},
		{name: "engine enumerator", modify: func(c *Config) { c.Source.Enumerator = EnumeratorEngine }},
		{name: "podman runtime", modify: func(c *Config) { c.Source.Runtime = "podman" }},
		{name: "metrics on all interfaces", modify: func(c *Config) { c.Metrics.Addr = ":9090" }},
		{name: "empty palette", modify: func(c *Config) { c.Palette = "" }},
		{name: "single device", modify: func(c *Config) { c.Devices = []string{"memory"} }},
		{name: "window just under an hour", modify: func(c *Config) { c.WindowSize = 3599 }},
		{name: "long window at a short interval", modify: func(c *Config) {
			c.Interval = "100ms"
			c.WindowSize = 35999
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.NoError(t, Validate(cfg))
		})
	}
}

func TestCompileFilter(t *testing.T) {
	re, err := CompileFilter("")
	require.NoError(t, err)
	assert.Nil(t, re)

	re, err = CompileFilter("api|worker")
	require.NoError(t, err)
	assert.True(t, re.MatchString("my-worker-1"), "unanchored")
	assert.False(t, re.MatchString("web"))

	_, err = CompileFilter("[")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
