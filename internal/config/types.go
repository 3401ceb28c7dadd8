package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Source kinds.
const (
	SourceLocal = "local"
	SourceSSH   = "ssh"
)

// Enumerators.
const (
	EnumeratorCLI    = "cli"
	EnumeratorEngine = "engine"
)

// Config represents the complete .livecharts.yaml configuration file.
type Config struct {
	Version int          `yaml:"version" mapstructure:"version"`
	Source  SourceConfig `yaml:"source" mapstructure:"source"`

	// Interval between window updates, as a duration string.
	Interval string `yaml:"interval" mapstructure:"interval"`

	// WindowSize is the number of snapshots kept per chart.
	WindowSize int `yaml:"window_size" mapstructure:"window_size"`

	// MaxCharts caps the charts drawn at once.
	MaxCharts int `yaml:"max_charts" mapstructure:"max_charts"`

	// MaxFailedReads is how many malformed batches in a row trigger a resync.
	MaxFailedReads int `yaml:"max_failed_reads" mapstructure:"max_failed_reads"`

	// Mode is the aggregation: "overview", "combine", or "split".
	Mode string `yaml:"mode" mapstructure:"mode"`

	// Devices to chart, in order: cpu, memory, disk, network.
	Devices []string    `yaml:"devices" mapstructure:"devices"`
	Units   UnitsConfig `yaml:"units" mapstructure:"units"`

	// Filter is a regular expression matched against container names.
	Filter string `yaml:"filter" mapstructure:"filter"`

	// Colorize draws each container in its own color.
	Colorize bool `yaml:"colorize" mapstructure:"colorize"`

	// Palette is "auto", "light", or "dark".
	Palette string `yaml:"palette" mapstructure:"palette"`

	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// SourceConfig says where container stats come from.
type SourceConfig struct {
	// Kind is "local" or "ssh".
	Kind string `yaml:"kind" mapstructure:"kind"`

	// Runtime is the docker-compatible CLI to run.
	Runtime string `yaml:"runtime" mapstructure:"runtime"`

	// Host is an SSH host, user@host, or SSH config alias. Required for ssh.
	Host string `yaml:"host,omitempty" mapstructure:"host"`

	// Enumerator lists containers: "cli" runs `<runtime> ps`, "engine" asks
	// the Docker Engine API (local only).
	Enumerator string `yaml:"enumerator" mapstructure:"enumerator"`

	// Timeout for the SSH connection, as a duration string.
	Timeout string `yaml:"timeout" mapstructure:"timeout"`
}

// UnitsConfig sets the display unit of each byte-valued device.
type UnitsConfig struct {
	Memory  string `yaml:"memory" mapstructure:"memory"`
	Disk    string `yaml:"disk" mapstructure:"disk"`
	Network string `yaml:"network" mapstructure:"network"`
}

// LogConfig controls the log file. The dashboard owns the terminal, so logs
// only go to a file.
type LogConfig struct {
	// File is the log path. Empty disables logging. Supports ~ and ${HOME}.
	File string `yaml:"file,omitempty" mapstructure:"file"`

	// Level: "debug", "info", "warn", or "error".
	Level string `yaml:"level" mapstructure:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr to serve /metrics on, e.g. "127.0.0.1:9090". Empty disables it.
	Addr string `yaml:"addr,omitempty" mapstructure:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Source: SourceConfig{
			Kind:       SourceLocal,
			Runtime:    "docker",
			Enumerator: EnumeratorCLI,
			Timeout:    "10s",
		},
		Interval:       "1s",
		WindowSize:     60,
		MaxCharts:      12,
		MaxFailedReads: 20,
		Mode:           "overview",
		Devices:        []string{"cpu", "memory", "disk", "network"},
		Units: UnitsConfig{
			Memory:  "MB",
			Disk:    "MB",
			Network: "MB",
		},
		Palette: "auto",
		Log: LogConfig{
			Level: "info",
		},
	}
}
