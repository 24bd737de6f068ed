// Package pipeline runs one capture through context loading, routing, the oracle stages,
// validation, suggestion scoring and persistence.
package pipeline

import "time"

// Config holds pipeline settings.
type Config struct {
	DefaultTimezone          string        `yaml:"default_timezone"`           // default: UTC
	DefaultLocale            string        `yaml:"default_locale"`             // default: fr
	MaxAttempts              int           `yaml:"max_attempts"`               // default: 2 (one retry per stage)
	CorrectionLimit          int           `yaml:"correction_limit"`           // default: 20
	EntityLimit              int           `yaml:"entity_limit"`               // default: 50
	CorrectionPriorityWindow time.Duration `yaml:"correction_priority_window"` // default: 168h
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultTimezone:          "UTC",
		DefaultLocale:            "fr",
		MaxAttempts:              2,
		CorrectionLimit:          20,
		EntityLimit:              50,
		CorrectionPriorityWindow: 7 * 24 * time.Hour,
	}
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = d.DefaultTimezone
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = d.DefaultLocale
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.CorrectionLimit <= 0 {
		c.CorrectionLimit = d.CorrectionLimit
	}
	if c.EntityLimit <= 0 {
		c.EntityLimit = d.EntityLimit
	}
	if c.CorrectionPriorityWindow <= 0 {
		c.CorrectionPriorityWindow = d.CorrectionPriorityWindow
	}
}
