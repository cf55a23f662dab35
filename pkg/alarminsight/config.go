package alarminsight

import (
	"github.com/bahyway/alarminsight/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// AssessConfig bounds the evaluation run.
	AssessConfig = config.AssessConfig
	// ResolverConfig tunes spatial association.
	ResolverConfig = config.ResolverConfig
	// GraphConfig bounds traversal queries.
	GraphConfig = config.GraphConfig
	// PostgresConfig points the store at its database.
	PostgresConfig = config.PostgresConfig
	// ServerConfig configures the HTTP surface.
	ServerConfig = config.ServerConfig
	// EvidenceConfig points the file source at its drop directory.
	EvidenceConfig = config.EvidenceConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
