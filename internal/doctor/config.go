package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rileyhilliard/livecharts/internal/config"
)

// ConfigFileCheck reports which config file is used. Running without one is
// fine: defaults apply.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(ctx context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return failure("Error finding config", err)
	}
	if path == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'livecharts init' to create a .livecharts.yaml",
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// ConfigSchemaCheck loads and resolves the config the way watch does.
type ConfigSchemaCheck struct {
	Config *config.Config
	// LoadErr is the error from loading, if any.
	LoadErr error
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run(ctx context.Context) CheckResult {
	if c.LoadErr != nil {
		return failure("Failed to load config", c.LoadErr)
	}
	r, err := config.Resolve(c.Config)
	if err != nil {
		return failure("Config is invalid", err)
	}
	return CheckResult{
		Status: StatusPass,
		Message: fmt.Sprintf("Config valid: %s source, %s mode, %d device%s, every %s",
			r.Source.Kind, r.Mode, len(r.Devices), pluralize(len(r.Devices)), r.Interval),
	}
}
