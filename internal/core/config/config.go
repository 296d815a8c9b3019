// Package config handles configuration loading and validation for lanewatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/lanewatch/internal/detect"
)

// Duration wraps time.Duration so YAML values can be written as "4s" or
// "300ms" rather than nanosecond integers.
type Duration time.Duration

// UnmarshalYAML parses a duration string or integer nanosecond value.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the application configuration.
type Config struct {
	Detection      map[string]Tuning `yaml:"detection"`
	Notifications  Notifications     `yaml:"notifications"`
	HistoryEntries int               `yaml:"history_entries"` // max stored transitions, 0 means unlimited
	DataDir        string            `yaml:"-"`               // set by caller, not from config file
}

// Tuning overrides the built-in detection constants for one agent type.
// Zero values keep the agent's defaults.
type Tuning struct {
	IdleTimeout        Duration `yaml:"idle_timeout"`
	DoneToWorkingBytes int      `yaml:"done_to_working_bytes"`
	Debounce           Duration `yaml:"debounce"`
	SpinnerWindow      Duration `yaml:"spinner_window"`
}

// Notifications configures default notification behavior. The boolean
// triggers are only defaults; the persisted settings record overrides them
// once the user has answered the first-run prompt.
type Notifications struct {
	OnDone        bool     `yaml:"on_done"`
	OnWaiting     bool     `yaml:"on_waiting"`
	OnError       bool     `yaml:"on_error"`
	OnlyUnfocused bool     `yaml:"only_unfocused"`
	Lanes         []string `yaml:"lanes"` // glob patterns; empty means all lanes
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Detection: map[string]Tuning{},
		Notifications: Notifications{
			OnlyUnfocused: true,
		},
		HistoryEntries: 500,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	known := make(map[string]bool, len(detect.AgentTypes()))
	for _, a := range detect.AgentTypes() {
		known[a] = true
	}

	for agent, t := range c.Detection {
		if !known[agent] {
			return fmt.Errorf("detection.%s: unknown agent type", agent)
		}
		if t.IdleTimeout < 0 || t.Debounce < 0 || t.SpinnerWindow < 0 {
			return fmt.Errorf("detection.%s: durations cannot be negative", agent)
		}
		if t.DoneToWorkingBytes < 0 {
			return fmt.Errorf("detection.%s: done_to_working_bytes cannot be negative", agent)
		}
	}

	if c.HistoryEntries < 0 {
		return fmt.Errorf("history_entries cannot be negative")
	}

	for _, pattern := range c.Notifications.Lanes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("notifications.lanes: invalid glob pattern %q", pattern)
		}
	}

	return nil
}

// Tunings converts the detection overrides into the detector's form.
func (c *Config) Tunings() map[string]detect.Tuning {
	out := make(map[string]detect.Tuning, len(c.Detection))
	for agent, t := range c.Detection {
		out[agent] = detect.Tuning{
			IdleTimeout:        time.Duration(t.IdleTimeout),
			DoneToWorkingBytes: t.DoneToWorkingBytes,
			Debounce:           time.Duration(t.Debounce),
			SpinnerWindow:      time.Duration(t.SpinnerWindow),
		}
	}
	return out
}

// SettingsFile returns the path to the persisted settings JSON file.
func (c *Config) SettingsFile() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// HistoryFile returns the path to the transition history JSON file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history.json")
}
