// Package config provides configuration management for sovereign.
package config

import (
	"fmt"

	"github.com/victoralfred/sovereign/observability"
)

// Config is the main configuration for sovereign.
type Config struct {
	Guard      GuardConfig                   `yaml:"guard"`
	Discipline DisciplineConfig              `yaml:"discipline"`
	Telemetry  observability.TelemetryConfig `yaml:"telemetry"`
	Audit      observability.AuditConfig     `yaml:"audit"`
}

// GuardConfig configures the registry.
type GuardConfig struct {
	// InitialCapacity sizes the slot arena before the first growth.
	InitialCapacity int `yaml:"initial_capacity"`
}

// DisciplineConfig configures violation handling.
type DisciplineConfig struct {
	// Mode selects the discipline: "panic" or "abort".
	Mode string `yaml:"mode"`

	// LogViolations wraps the discipline so every punishment is logged
	// before it fires.
	LogViolations bool `yaml:"log_violations"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Guard: GuardConfig{
			InitialCapacity: 16,
		},
		Discipline: DisciplineConfig{
			Mode:          "panic",
			LogViolations: true,
		},
		Telemetry: observability.DefaultTelemetryConfig(),
		Audit:     observability.DefaultAuditConfig(),
	}
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Discipline.Mode = "panic"
	cfg.Telemetry.Environment = "development"
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.BasePath = "/tmp"
	return cfg
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Discipline.Mode = "abort"
	cfg.Telemetry.Environment = "production"
	cfg.Audit.LogLevel = observability.AuditLogViolations
	cfg.Audit.MaxEventsPerSecond = 100
	cfg.Audit.Burst = 200
	return cfg
}

// Validate validates the configuration, filling defaults for fields
// left at their zero value.
func (c *Config) Validate() error {
	if c.Guard.InitialCapacity <= 0 {
		c.Guard.InitialCapacity = 16
	}

	if c.Discipline.Mode == "" {
		c.Discipline.Mode = "panic"
	}

	if c.Audit.Enabled {
		if c.Audit.BasePath == "" {
			return fmt.Errorf("audit enabled but base_path is empty")
		}
		if c.Audit.FilePath == "" {
			return fmt.Errorf("audit enabled but file_path is empty")
		}
	}

	return nil
}
