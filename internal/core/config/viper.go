package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*EngineConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultEngineConfig
	v.SetDefault("engine.rules_path", "./rules.yaml")
	v.SetDefault("engine.database_url", "")
	v.SetDefault("engine.audit_buffer_size", 1024)
	v.SetDefault("engine.audit_flush_timeout", "5s")
	v.SetDefault("engine.log_level", "info")
	v.SetDefault("engine.log_format", "json")

	// Bind environment variables with DA_ prefix
	v.SetEnvPrefix("DA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &EngineConfig{
		RulesPath:         v.GetString("engine.rules_path"),
		DatabaseURL:       v.GetString("engine.database_url"),
		AuditBufferSize:   v.GetInt("engine.audit_buffer_size"),
		AuditFlushTimeout: v.GetDuration("engine.audit_flush_timeout"),
		LogLevel:          v.GetString("engine.log_level"),
		LogFormat:         v.GetString("engine.log_format"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks positive buffer size and flush timeout, known
// log level and format.
func validateConfig(cfg *EngineConfig) error {
	if cfg.RulesPath == "" {
		return fmt.Errorf("rules_path must not be empty")
	}
	if cfg.AuditBufferSize <= 0 {
		return fmt.Errorf("audit_buffer_size must be positive, got %d", cfg.AuditBufferSize)
	}
	if cfg.AuditFlushTimeout <= 0 {
		return fmt.Errorf("audit_flush_timeout must be positive, got %v", cfg.AuditFlushTimeout)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}
