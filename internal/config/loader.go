package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/livecharts/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".livecharts.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/livecharts"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. LIVECHARTS_INTERVAL or
	// LIVECHARTS_SOURCE_HOST.
	EnvPrefix = "LIVECHARTS"
)

// FlagKeys maps command-line flag names to config keys. Flags that are set
// override the file and the environment.
var FlagKeys = map[string]string{
	"host":             "source.host",
	"runtime":          "source.runtime",
	"enumerator":       "source.enumerator",
	"interval":         "interval",
	"window-size":      "window_size",
	"max-charts":       "max_charts",
	"max-failed-reads": "max_failed_reads",
	"mode":             "mode",
	"devices":          "devices",
	"filter":           "filter",
	"colorize":         "colorize",
	"palette":          "palette",
	"log-file":         "log.file",
	"log-level":        "log.level",
	"metrics-addr":     "metrics.addr",
}

// Load reads config from the specified path, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithFlags finds the config file (explicit wins) and layers defaults,
// file, environment, and set flags, in increasing priority. A missing file is
// not an error: defaults apply.
func LoadWithFlags(explicit string, flags *pflag.FlagSet) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := load(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
func LoadOrDefault() (*Config, error) {
	cfg, _, err := LoadWithFlags("", nil)
	return cfg, err
}

func load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'livecharts init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	return parseConfig(v, path)
}

// newViper returns a viper instance with every key defaulted, so that
// environment overrides reach Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("source.kind", d.Source.Kind)
	v.SetDefault("source.runtime", d.Source.Runtime)
	v.SetDefault("source.host", d.Source.Host)
	v.SetDefault("source.enumerator", d.Source.Enumerator)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("window_size", d.WindowSize)
	v.SetDefault("max_charts", d.MaxCharts)
	v.SetDefault("max_failed_reads", d.MaxFailedReads)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("devices", d.Devices)
	v.SetDefault("units.memory", d.Units.Memory)
	v.SetDefault("units.disk", d.Units.Disk)
	v.SetDefault("units.network", d.Units.Network)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("colorize", d.Colorize)
	v.SetDefault("palette", d.Palette)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// bindFlags binds every known flag in flags. Setting --host also switches the
// source to ssh.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range FlagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to bind flag --"+name,
				"This shouldn't happen - please report this bug")
		}
	}
	if f := flags.Lookup("host"); f != nil && f.Changed && f.Value.String() != "" {
		v.Set("source.kind", SourceSSH)
	}
	return nil
}

// parseConfig converts viper config to our Config struct.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		where := "your config"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	cfg.Log.File = Expand(cfg.Log.File)
	cfg.Devices = splitList(cfg.Devices)
	return cfg, nil
}

// splitList flattens comma-separated entries, which is how a list arrives
// from a flag or an environment variable.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .livecharts.yaml in current directory
// 3. .livecharts.yaml in parent directories (stops at git root or home)
// 4. ~/.config/livecharts/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			// Don't go above home directory
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if isGitRoot(dir) {
			break
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
