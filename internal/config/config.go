// Package config loads the reflux configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Journal  JournalConfig  `yaml:"journal"`
	Bus      BusConfig      `yaml:"bus"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SessionConfig identifies the journal session actions are recorded
// under. An empty ID means a fresh session per run.
type SessionConfig struct {
	ID string `yaml:"id,omitempty"`
}

// JournalConfig configures the durable action journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// BusConfig configures the NATS action bus.
type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// SnapshotConfig configures periodic state checkpoints in daemon mode.
// Interval is a Go duration string; empty disables snapshots.
type SnapshotConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// IntervalDuration parses the snapshot interval. Zero means disabled.
func (s SnapshotConfig) IntervalDuration() (time.Duration, error) {
	if s.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 0, fmt.Errorf("parse snapshot interval %q: %w", s.Interval, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("snapshot interval must not be negative: %s", s.Interval)
	}
	return d, nil
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no config file exists:
// journaling to a local database, bus and metrics off.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file. A .env file in the
// working directory is loaded first (without overriding the process
// environment) and environment references in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the file when present and falls back to Default
// when it is missing. Any other failure is reported.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(configPath)
}

func applyDefaults(cfg *Config) {
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "./reflux.db"
	}
	if cfg.Bus.URL == "" {
		cfg.Bus.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Bus.Subject == "" {
		cfg.Bus.Subject = "reflux.actions"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9464"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal enabled without a path")
	}
	if c.Bus.Enabled && c.Bus.Subject == "" {
		return fmt.Errorf("bus enabled without a subject")
	}
	if _, err := c.Snapshot.IntervalDuration(); err != nil {
		return err
	}
	return nil
}

const exampleConfig = `# reflux configuration

# session:
#   id: ""            # empty = fresh session per run

journal:
  enabled: true
  path: ./reflux.db

bus:
  enabled: false
  url: nats://127.0.0.1:4222
  subject: reflux.actions

metrics:
  enabled: false
  listen: :9464

snapshot:
  interval: 1m        # daemon-only; empty disables checkpoints

logging:
  level: info         # debug, info, warn, error
  format: text        # text, json
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
