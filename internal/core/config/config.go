// Package config provides configuration management for dermassist services.
package config

import "time"

// EngineConfig holds configuration for the recommendation engine and its
// audit trail.
type EngineConfig struct {
	RulesPath         string
	DatabaseURL       string
	AuditBufferSize   int
	AuditFlushTimeout time.Duration
	LogLevel          string
	LogFormat         string
}

// DefaultEngineConfig returns configuration with default values.
// An empty DatabaseURL disables audit persistence (entries are discarded).
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		RulesPath:         "./rules.yaml",
		DatabaseURL:       "",
		AuditBufferSize:   1024,
		AuditFlushTimeout: 5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}
