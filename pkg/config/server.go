package config

import (
	"fmt"
	"time"
)

// ServerConfig contains the dashboard API server settings.
type ServerConfig struct {
	Listen          string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins     []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit       RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
	RefreshInterval string          `yaml:"refresh_interval,omitempty" mapstructure:"refresh_interval"`
	History         *HistoryConfig  `yaml:"history,omitempty" mapstructure:"history"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// HistoryConfig enables persisting an ingestion history of report
// snapshots so the dashboard can chart trends across runs.
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// validate checks the server section.
func (s *ServerConfig) validate() error {
	if s.RateLimit.Enabled && s.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf(
			"rate_limit.requests_per_minute must be positive when enabled",
		)
	}

	if _, err := time.ParseDuration(s.RefreshInterval); err != nil {
		return fmt.Errorf("invalid refresh_interval: %w", err)
	}

	if s.History != nil && s.History.Enabled {
		switch s.History.Database.Driver {
		case "sqlite":
			if s.History.Database.SQLite.Path == "" {
				return fmt.Errorf("history sqlite path is required")
			}
		case "postgres":
			if s.History.Database.Postgres.Host == "" {
				return fmt.Errorf("history postgres host is required")
			}
		default:
			return fmt.Errorf(
				"unsupported history database driver: %q",
				s.History.Database.Driver,
			)
		}
	}

	return nil
}

// RefreshIntervalDuration returns the parsed refresh interval. Call
// after Validate; an unparseable value falls back to the default.
func (s *ServerConfig) RefreshIntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return DefaultRefreshInterval
	}

	return d
}
