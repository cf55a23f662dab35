package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration loaded once at startup and passed
// explicitly; there is no ambient mutable configuration state.
type Config struct {
	Assess   AssessConfig   `yaml:"assess"`
	Resolver ResolverConfig `yaml:"resolver"`
	Graph    GraphConfig    `yaml:"graph"`
	Postgres PostgresConfig `yaml:"postgres"`
	Server   ServerConfig   `yaml:"server"`
	Evidence EvidenceConfig `yaml:"evidence"`
}

// AssessConfig bounds the evaluation run.
type AssessConfig struct {
	Workers  int           `yaml:"workers"`
	Interval time.Duration `yaml:"interval"`
}

// ResolverConfig tunes spatial association.
type ResolverConfig struct {
	MaxDistance float64 `yaml:"max_distance"`
	Epsilon     float64 `yaml:"epsilon"`
}

// GraphConfig bounds traversal queries so cyclic topology always terminates.
type GraphConfig struct {
	MaxHops int `yaml:"max_hops"`
}

// PostgresConfig points the store adapter at its database. An empty
// conn_string selects the in-memory store (embedded/test mode).
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
}

// ServerConfig is the HTTP endpoint serving /metrics, /healthz and the
// alarm event WebSocket.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EvidenceConfig points the file source at the drop directory the detection
// collaborator writes indicator batches into.
type EvidenceConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads, defaults, and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills the documented defaults. The numeric constants come
// from field calibration examples; they are defaults, not requirements.
func (c *Config) ApplyDefaults() {
	if c.Assess.Workers == 0 {
		c.Assess.Workers = 4
	}
	if c.Assess.Interval == 0 {
		c.Assess.Interval = 24 * time.Hour
	}
	if c.Resolver.MaxDistance == 0 {
		c.Resolver.MaxDistance = 2.0
	}
	if c.Resolver.Epsilon == 0 {
		c.Resolver.Epsilon = 1e-9
	}
	if c.Graph.MaxHops == 0 {
		c.Graph.MaxHops = 10
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9600"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Assess.Workers < 1 {
		return fmt.Errorf("assess.workers must be >= 1")
	}
	if c.Assess.Interval < time.Minute {
		return fmt.Errorf("assess.interval must be at least one minute")
	}
	if c.Resolver.MaxDistance <= 0 {
		return fmt.Errorf("resolver.max_distance must be > 0")
	}
	if c.Graph.MaxHops < 1 {
		return fmt.Errorf("graph.max_hops must be >= 1")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}
