package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are the environment variables that replace configured values.
// Unset (empty or zero) variables leave the value alone.
type Overrides struct {
	Database        string `env:"TIMELINE_DATABASE"`
	Driver          string `env:"TIMELINE_DRIVER"`
	Listen          string `env:"TIMELINE_LISTEN"`
	LogLevel        string `env:"TIMELINE_LOG_LEVEL"`
	DefaultPageSize int    `env:"TIMELINE_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int    `env:"TIMELINE_MAX_PAGE_SIZE"`
}

// ApplyEnv reads Overrides from the environment, applies them to cfg and
// validates the result against the schema.
func ApplyEnv(cfg *Config) error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if !o.apply(cfg) {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// apply copies set fields into cfg and reports whether any were set.
func (o Overrides) apply(cfg *Config) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
			changed = true
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
			changed = true
		}
	}

	set(&cfg.Database, o.Database)
	set(&cfg.Driver, o.Driver)
	set(&cfg.Listen, o.Listen)
	set(&cfg.Log.Level, o.LogLevel)
	setInt(&cfg.Paging.DefaultPageSize, o.DefaultPageSize)
	setInt(&cfg.Paging.MaxPageSize, o.MaxPageSize)
	return changed
}
