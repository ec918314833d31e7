// Package config loads the service's static configuration from a YAML file,
// following the same load-then-validate shape as the teacher's pkg/spec
// loader (read file, unmarshal, apply defaults, validate cross-field
// invariants) rather than a flag-only setup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full static configuration for jaspy-nexusd.
type Config struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `yaml:"listen_addr"`

	// Postgres holds the inventory database connection settings.
	Postgres PostgresConfig `yaml:"postgres"`

	// Redis holds the message bus connection settings.
	Redis RedisConfig `yaml:"redis"`

	// DeviceTTL is how long a refreshed device/interface stays live in IMDS
	// without being touched again. Defaults to 60s per the refresh contract.
	DeviceTTL time.Duration `yaml:"device_ttl,omitempty"`

	// SchedulerPeriod is the Refresh Scheduler's tick interval. Defaults to 1s.
	SchedulerPeriod time.Duration `yaml:"scheduler_period,omitempty"`

	// TopologyCacheTTL is how long a materialized weathermap topology is
	// served from cache before being rebuilt. Defaults to 10s.
	TopologyCacheTTL time.Duration `yaml:"topology_cache_ttl,omitempty"`

	// EventLogPath, if set, additionally records every published
	// state-change event as JSON lines to this file (see internal/bus).
	EventLogPath string `yaml:"event_log_path,omitempty"`

	// HealthStaleAfter is how long the Refresh Scheduler may go without a
	// completed tick before /healthz reports it as warning. Defaults to 5x
	// SchedulerPeriod if unset.
	HealthStaleAfter time.Duration `yaml:"health_stale_after,omitempty"`

	// LogLevel is the logrus level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
}

// PostgresConfig configures the inventory database pool.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	MaxConns    int32  `yaml:"max_conns,omitempty"`
	ConnTimeout int    `yaml:"conn_timeout_seconds,omitempty"`
}

// RedisConfig configures the message bus connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

const (
	// DefaultDeviceTTL is the device/interface TTL used when unset.
	DefaultDeviceTTL = 60 * time.Second
	// DefaultSchedulerPeriod is the Refresh Scheduler tick period used when unset.
	DefaultSchedulerPeriod = 1 * time.Second
	// DefaultTopologyCacheTTL is the Topology Cache TTL used when unset.
	DefaultTopologyCacheTTL = 10 * time.Second
	// DefaultChannel is the Redis pub/sub channel used when unset.
	DefaultChannel = "jaspy:events"
	// DefaultListenAddr is the HTTP listen address used when unset.
	DefaultListenAddr = ":8080"
)

// Load reads and parses a Config from path, applying defaults and validating
// cross-field invariants.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DeviceTTL == 0 {
		c.DeviceTTL = DefaultDeviceTTL
	}
	if c.SchedulerPeriod == 0 {
		c.SchedulerPeriod = DefaultSchedulerPeriod
	}
	if c.TopologyCacheTTL == 0 {
		c.TopologyCacheTTL = DefaultTopologyCacheTTL
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = DefaultChannel
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 10
	}
	if c.HealthStaleAfter == 0 {
		c.HealthStaleAfter = 5 * c.SchedulerPeriod
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.TopologyCacheTTL <= 0 {
		return fmt.Errorf("topology_cache_ttl must be > 0")
	}
	return nil
}
