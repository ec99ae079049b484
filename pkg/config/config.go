package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// envPrefix is the prefix for environment variable overrides,
	// e.g. REPORTOOR_GLOBAL_LOG_LEVEL.
	envPrefix = "REPORTOOR"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultFetchTimeout bounds one remote report fetch.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultCacheTTL is how long fetched report bytes stay fresh.
	DefaultCacheTTL = 30 * time.Second

	// DefaultListen is the default API listen address.
	DefaultListen = ":8080"

	// DefaultRefreshInterval is the default background refresh cadence.
	DefaultRefreshInterval = 60 * time.Second
)

// Config is the root configuration for reportoor.
type Config struct {
	Global  GlobalConfig   `yaml:"global" mapstructure:"global"`
	Sources []SourceConfig `yaml:"sources" mapstructure:"sources"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// SourceConfig describes one named report source. Exactly one primary
// location (url, path, or s3) must be set; fallback_path is an optional
// local file consulted when the primary attempt fails.
type SourceConfig struct {
	Name         string          `yaml:"name" mapstructure:"name"`
	URL          string          `yaml:"url,omitempty" mapstructure:"url"`
	Path         string          `yaml:"path,omitempty" mapstructure:"path"`
	S3           *S3SourceConfig `yaml:"s3,omitempty" mapstructure:"s3"`
	FallbackPath string          `yaml:"fallback_path,omitempty" mapstructure:"fallback_path"`
	FetchTimeout string          `yaml:"fetch_timeout,omitempty" mapstructure:"fetch_timeout"`
	CacheTTL     string          `yaml:"cache_ttl,omitempty" mapstructure:"cache_ttl"`
}

// S3SourceConfig locates a report object in S3-compatible storage.
type S3SourceConfig struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Key             string `yaml:"key" mapstructure:"key"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Load reads a configuration file, applies environment overrides with
// the REPORTOOR_ prefix, and fills in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config

	// Decode through AllSettings so env overrides picked up by viper
	// land in the struct; weak typing lets env strings fill typed fields.
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building config decoder: %w", err)
	}

	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Server.RefreshInterval == "" {
		c.Server.RefreshInterval = DefaultRefreshInterval.String()
	}

	for i := range c.Sources {
		if c.Sources[i].FetchTimeout == "" {
			c.Sources[i].FetchTimeout = DefaultFetchTimeout.String()
		}

		if c.Sources[i].CacheTTL == "" {
			c.Sources[i].CacheTTL = DefaultCacheTTL.String()
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one report source must be configured")
	}

	seenNames := make(map[string]struct{}, len(c.Sources))

	for i := range c.Sources {
		src := &c.Sources[i]

		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}

		if _, exists := seenNames[src.Name]; exists {
			return fmt.Errorf("source %d: duplicate name %q", i, src.Name)
		}

		seenNames[src.Name] = struct{}{}

		locations := 0

		if src.URL != "" {
			locations++
		}

		if src.Path != "" {
			locations++
		}

		if src.S3 != nil {
			locations++

			if src.S3.Bucket == "" || src.S3.Key == "" {
				return fmt.Errorf(
					"source %q: s3 bucket and key are required", src.Name,
				)
			}
		}

		if locations != 1 {
			return fmt.Errorf(
				"source %q: exactly one of url, path, or s3 must be set",
				src.Name,
			)
		}

		if _, err := time.ParseDuration(src.FetchTimeout); err != nil {
			return fmt.Errorf(
				"source %q: invalid fetch_timeout: %w", src.Name, err,
			)
		}

		if _, err := time.ParseDuration(src.CacheTTL); err != nil {
			return fmt.Errorf(
				"source %q: invalid cache_ttl: %w", src.Name, err,
			)
		}
	}

	return c.Server.validate()
}

// Source returns the source configuration with the given name, or nil.
func (c *Config) Source(name string) *SourceConfig {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i]
		}
	}

	return nil
}

// FetchTimeoutDuration returns the parsed fetch timeout. Call after
// Validate; an unparseable value falls back to the default.
func (s *SourceConfig) FetchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.FetchTimeout)
	if err != nil {
		return DefaultFetchTimeout
	}

	return d
}

// CacheTTLDuration returns the parsed cache TTL. Call after Validate;
// an unparseable value falls back to the default.
func (s *SourceConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}

	return d
}
