// Package config loads the shell's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ZoomConfig bounds the per-view zoom factor. Adjustments move in Step
// increments and are clamped to [Min, Max] inclusive.
type ZoomConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// RendererConfig describes how rendering surfaces are launched.
type RendererConfig struct {
	// Command is the renderer executable. It receives the URL as its last
	// argument and must set its window title to the instance name passed via
	// --name so the shell can adopt the window.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`

	// AdoptTimeoutMS bounds how long the shell waits for the renderer's
	// window to appear. 0 uses the default.
	AdoptTimeoutMS int `yaml:"adopt_timeout_ms,omitempty"`
}

// ReconcileConfig controls the dead-surface sweep.
type ReconcileConfig struct {
	Enabled         *bool `yaml:"enabled,omitempty"`
	IntervalSeconds int   `yaml:"interval_seconds,omitempty"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// Config is the root configuration.
type Config struct {
	// ToolbarHeight is the vertical offset (pixels) reserved above the view
	// area when not fullscreen.
	ToolbarHeight int `yaml:"toolbar_height"`

	// WindowTitle is the base title of the shell window.
	WindowTitle string `yaml:"window_title,omitempty"`

	// Incognito makes the window's manager create incognito views.
	Incognito bool `yaml:"incognito,omitempty"`

	Zoom      ZoomConfig      `yaml:"zoom"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Reconcile ReconcileConfig `yaml:"reconcile,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`

	// SocketPath overrides the runtime IPC socket location.
	SocketPath string `yaml:"socket_path,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ToolbarHeight: 36,
		WindowTitle:   "kestrel",
		Zoom: ZoomConfig{
			Min:  0.25,
			Max:  3.0,
			Step: 0.1,
		},
		Renderer: RendererConfig{
			Command:        "kestrel-renderer",
			AdoptTimeoutMS: 5000,
		},
		Reconcile: ReconcileConfig{
			IntervalSeconds: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ReconcileEnabled reports whether the dead-surface sweep is on (default on).
func (c *Config) ReconcileEnabled() bool {
	if c.Reconcile.Enabled == nil {
		return true
	}
	return *c.Reconcile.Enabled
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.ToolbarHeight < 0 {
		return fmt.Errorf("toolbar_height must be >= 0, got %d", c.ToolbarHeight)
	}
	if c.Zoom.Step <= 0 {
		return fmt.Errorf("zoom.step must be > 0, got %g", c.Zoom.Step)
	}
	if c.Zoom.Min <= 0 {
		return fmt.Errorf("zoom.min must be > 0, got %g", c.Zoom.Min)
	}
	if c.Zoom.Min >= c.Zoom.Max {
		return fmt.Errorf("zoom.min (%g) must be below zoom.max (%g)", c.Zoom.Min, c.Zoom.Max)
	}
	if c.Zoom.Min > 1 || c.Zoom.Max < 1 {
		return fmt.Errorf("zoom range [%g, %g] must include the default factor 1", c.Zoom.Min, c.Zoom.Max)
	}
	if c.Renderer.Command == "" {
		return fmt.Errorf("renderer.command must not be empty")
	}
	if c.Reconcile.IntervalSeconds < 0 {
		return fmt.Errorf("reconcile.interval_seconds must be >= 0, got %d", c.Reconcile.IntervalSeconds)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	return nil
}

// DefaultConfigPath returns the standard configuration location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "kestrel", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from path, overlaying the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
