// Package config aggregates every subsystem's tunables into one YAML file,
// grounded on the teacher's internal/config package: one Config struct
// composed of small per-concern structs, each in its own file, with a
// DefaultConfig that never needs a file on disk to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"textworld/internal/logging"
)

// Config holds every subsystem's settings. Field names double as the YAML
// top-level keys.
type Config struct {
	DataDir string `yaml:"data_dir"`

	Store   StoreConfig   `yaml:"store"`
	Tick    TickConfig    `yaml:"tick"`
	Script  ScriptConfig  `yaml:"script"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
	Rules   RulesConfig   `yaml:"rules"`
}

// DefaultConfig returns the engine's out-of-the-box settings: a local
// SQLite file under DataDir, a 50ms tick, and debug logging off.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".textworld",
		Store: StoreConfig{
			Path: "world.db",
		},
		Tick: TickConfig{
			Interval:        "50ms",
			ShutdownTimeout: "5s",
		},
		Script: ScriptConfig{
			Budget: "50ms",
		},
		Session: SessionConfig{
			InboundQueueSize:  32,
			OutboundQueueSize: 256,
			IdleTimeout:       "20m",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		Rules: RulesConfig{
			FactLimit:    100000,
			QueryTimeout: "5s",
		},
	}
}

// Load reads path as YAML over DefaultConfig's values, then applies
// environment overrides. A missing file is not an error — it's the
// expected case on first boot, and defaults alone are a runnable config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes c as YAML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TEXTWORLD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TEXTWORLD_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("TEXTWORLD_LISTEN_ADDR"); v != "" {
		c.Session.ListenAddr = v
	}
	if v := os.Getenv("TEXTWORLD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
		c.Logging.DebugMode = true
	}
}

// StorePath resolves the store's database file relative to DataDir when it
// is not already absolute.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, c.Store.Path)
}

// TickInterval parses Tick.Interval, falling back to 50ms on a malformed
// value rather than failing boot over a typo in an otherwise-fine config.
func (c *Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Tick.Interval)
	if err != nil {
		return 50 * time.Millisecond
	}
	return d
}

// ShutdownTimeout bounds how long graceful shutdown waits for the final
// tick and goodbye messages to drain.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Tick.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// ScriptBudget bounds a single script invocation (script.DefaultBudget's
// config-driven override).
func (c *Config) ScriptBudget() time.Duration {
	d, err := time.ParseDuration(c.Script.Budget)
	if err != nil {
		return 50 * time.Millisecond
	}
	return d
}

// SessionIdleTimeout is how long a disconnected player's entity stays
// in-memory before the control loop persists and evicts it.
func (c *Config) SessionIdleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTimeout)
	if err != nil {
		return 20 * time.Minute
	}
	return d
}

// RulesQueryTimeout parses Rules.QueryTimeout, falling back to 5s. Nothing
// in internal/rules reads it: rules.NewChecker configures its engine with
// mangle.DefaultConfig.
func (c *Config) RulesQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Rules.QueryTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// LoggingConfigFor converts the YAML-facing LoggingConfig into
// logging.Config, duplicated field-for-field rather than imported, so that
// internal/logging never has to import internal/config.
func (c *Config) LoggingConfigFor() logging.Config {
	return logging.Config{
		DebugMode:  c.Logging.DebugMode,
		Categories: c.Logging.Categories,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.JSONFormat,
	}
}
