package config

import (
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/livecharts/internal/charts"
	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/logger"
	"github.com/rileyhilliard/livecharts/internal/palette"
)

// MinInterval is the shortest refresh interval accepted. docker stats itself
// refreshes about once a second.
const MinInterval = 100 * time.Millisecond

// MaxWindowSpan bounds window_size × interval. Snapshots are keyed by their
// mm:ss timestamp, so a window spanning an hour would repeat keys.
const MaxWindowSpan = time.Hour

// Resolved is a validated config with every field converted to the type the
// pipeline uses.
type Resolved struct {
	Source         SourceConfig
	SSHTimeout     time.Duration
	Interval       time.Duration
	WindowSize     int
	MaxCharts      int
	MaxFailedReads int
	Mode           charts.Mode
	Devices        []charts.Device
	Filter         *regexp.Regexp
	Colorize       bool
	// Palette is "auto", "light", or "dark". Resolving "auto" needs a
	// terminal, so it is left to the caller.
	Palette     string
	LogFile     string
	LogLevel    slog.Level
	MetricsAddr string
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	_, err := Resolve(cfg)
	return err
}

// Resolve validates cfg and converts it.
func Resolve(cfg *Config) (*Resolved, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but livecharts only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest livecharts release.")
	}

	if err := validateSource(cfg.Source); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'source' section in your .livecharts.yaml.")
	}

	r := &Resolved{
		Source:         cfg.Source,
		WindowSize:     cfg.WindowSize,
		MaxCharts:      cfg.MaxCharts,
		MaxFailedReads: cfg.MaxFailedReads,
		Colorize:       cfg.Colorize,
		LogFile:        cfg.Log.File,
		MetricsAddr:    cfg.Metrics.Addr,
	}

	var err error
	if r.SSHTimeout, err = parseDuration("source.timeout", cfg.Source.Timeout, time.Second); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use a duration like '10s' or '30s'.")
	}
	if r.Interval, err = parseDuration("interval", cfg.Interval, MinInterval); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use a duration like '1s' or '500ms'.")
	}

	if err := validateLimits(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use a positive number.")
	}
	if err := validateSpan(cfg.WindowSize, r.Interval); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Lower window_size or interval.")
	}

	if r.Mode, err = charts.ParseMode(cfg.Mode); err != nil {
		return nil, err
	}
	if r.Devices, err = ResolveDevices(cfg.Devices, cfg.Units); err != nil {
		return nil, err
	}
	if r.Filter, err = CompileFilter(cfg.Filter); err != nil {
		return nil, err
	}

	if r.Palette, err = validatePalette(cfg.Palette); err != nil {
		return nil, err
	}

	if r.LogLevel, err = parseLogLevel(cfg.Log.Level); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use one of: debug, info, warn, error.")
	}

	if err := validateMetricsAddr(cfg.Metrics.Addr); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use host:port, like '127.0.0.1:9090' or ':9090'.")
	}

	return r, nil
}

// CompileFilter compiles a container name filter. Empty means no filter.
func CompileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Filter '%s' isn't a valid regular expression", pattern),
			"Check the pattern syntax, e.g. '^web' or 'api|worker'.")
	}
	return re, nil
}

// ResolveDevices picks the configured devices and applies their units.
func ResolveDevices(keys []string, units UnitsConfig) ([]charts.Device, error) {
	if len(keys) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No devices configured",
			"List at least one of: cpu, memory, disk, network.")
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Device '%s' is listed twice", k),
				"Remove the duplicate from 'devices'.")
		}
		seen[k] = true
	}

	devices, err := charts.SelectDevices(charts.DefaultDevices(), keys)
	if err != nil {
		return nil, err
	}

	unitFor := map[charts.DeviceKey]string{
		charts.Memory:  units.Memory,
		charts.Disk:    units.Disk,
		charts.Network: units.Network,
	}
	for i, d := range devices {
		unit := unitFor[d.Key]
		if unit == "" {
			continue
		}
		if devices[i], err = d.WithUnit(unit); err != nil {
			return nil, err
		}
	}
	return devices, nil
}

// validateSource checks where stats come from.
func validateSource(src SourceConfig) error {
	switch src.Kind {
	case SourceLocal:
		if src.Host != "" {
			return fmt.Errorf("source.host is '%s' but source.kind is 'local' - set kind to 'ssh' to use it", src.Host)
		}
	case SourceSSH:
		if strings.TrimSpace(src.Host) == "" {
			return fmt.Errorf("source.kind is 'ssh' but there's no source.host to connect to")
		}
		if strings.ContainsAny(src.Host, " \t/") {
			return fmt.Errorf("source.host '%s' should be a host, user@host, or SSH config alias", src.Host)
		}
	default:
		return fmt.Errorf("source.kind '%s' isn't valid - use 'local' or 'ssh'", src.Kind)
	}

	if strings.TrimSpace(src.Runtime) == "" || strings.ContainsAny(src.Runtime, " \t'\"") {
		return fmt.Errorf("source.runtime '%s' should be a single command, like 'docker' or 'podman'", src.Runtime)
	}

	switch src.Enumerator {
	case EnumeratorCLI:
	case EnumeratorEngine:
		if src.Kind != SourceLocal {
			return fmt.Errorf("source.enumerator 'engine' only works with source.kind 'local'")
		}
	default:
		return fmt.Errorf("source.enumerator '%s' isn't valid - use 'cli' or 'engine'", src.Enumerator)
	}
	return nil
}

func validateLimits(cfg *Config) error {
	if cfg.WindowSize <= 0 {
		return fmt.Errorf("window_size needs to be positive (got %d)", cfg.WindowSize)
	}
	if cfg.MaxCharts <= 0 {
		return fmt.Errorf("max_charts needs to be positive (got %d)", cfg.MaxCharts)
	}
	if cfg.MaxFailedReads <= 0 {
		return fmt.Errorf("max_failed_reads needs to be positive (got %d)", cfg.MaxFailedReads)
	}
	return nil
}

// validateSpan keeps the window shorter than MaxWindowSpan.
func validateSpan(windowSize int, interval time.Duration) error {
	n := time.Duration(windowSize)
	if n > MaxWindowSpan/interval || n*interval >= MaxWindowSpan {
		return fmt.Errorf("window_size %d at interval %s spans an hour or more - timestamps are mm:ss and would repeat",
			windowSize, interval)
	}
	return nil
}

func parseDuration(key, s string, minimum time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s '%s' doesn't look like a valid duration", key, s)
	}
	if d < minimum {
		return 0, fmt.Errorf("%s '%s' is too short - the minimum is %s", key, s, minimum)
	}
	return d, nil
}

func validatePalette(name string) (string, error) {
	switch name {
	case "", "auto":
		return "auto", nil
	}
	if _, err := palette.ParseVariant(name); err != nil {
		return "", err
	}
	return name, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "", "debug", "info", "warn", "error":
		return logger.ParseLevel(name), nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level '%s' isn't valid", name)
}

func validateMetricsAddr(addr string) error {
	if addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("metrics.addr '%s' isn't a valid listen address", addr)
	}
	return nil
}
