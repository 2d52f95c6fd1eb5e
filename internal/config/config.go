// Package config provides configuration management for the shop pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("at least one source (or the places fetcher) is required")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrSourceMissingURLOrFile   = errors.New("either URL or file path is required")
	ErrSourceMissingName        = errors.New("source name is required")
	ErrSourceMissingListHint    = errors.New("hints.list selector is required")
	ErrMissingSchemaURL         = errors.New("schema_url is required")
	ErrMissingOutputPath        = errors.New("output.base_path is required")
	ErrMissingGeocoderURL       = errors.New("geocoder.url is required")
	ErrMissingGeocoderAgent     = errors.New("geocoder.user_agent is required")
	ErrInvalidGeocoderDelay     = errors.New("geocoder.min_delay_ms must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrPlacesMissingURL         = errors.New("places.url is required when places is enabled")
	ErrPlacesMissingLocations   = errors.New("places.locations must not be empty when places is enabled")
)

// Config represents the complete pipeline configuration (the seeds file).
type Config struct {
	SchemaURL  string           `yaml:"schema_url"`
	Output     OutputConfig     `yaml:"output"`
	Geocoder   GeocoderConfig   `yaml:"geocoder"`
	Retry      RetryPolicy      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sources    []SourceConfig   `yaml:"sources"`
	Places     PlacesConfig     `yaml:"places"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// SourceConfig describes one crawlable directory source.
type SourceConfig struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	File       string   `yaml:"file"`
	BackupURLs []string `yaml:"backup_urls"`
	Enabled    bool     `yaml:"enabled"`
	Hints      Hints    `yaml:"hints"`
}

// Hints are the per-source CSS selectors locating each field within a
// listing page. Only List is mandatory.
type Hints struct {
	List     string `yaml:"list"`
	Name     string `yaml:"name"`
	Address  string `yaml:"address"`
	County   string `yaml:"county"`
	Postcode string `yaml:"postcode"`
	Phone    string `yaml:"phone"`
	Email    string `yaml:"email"`
	Website  string `yaml:"website"`
	Link     string `yaml:"link"`
}

// IsLocalFile returns true if this source reads a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// AllURLs returns the primary URL followed by any backups.
func (s *SourceConfig) AllURLs() []string {
	urls := []string{s.URL}
	urls = append(urls, s.BackupURLs...)

	return urls
}

// OutputConfig defines where the two artifacts are written.
type OutputConfig struct {
	BasePath    string `yaml:"base_path"`
	FlatFile    string `yaml:"flat_file"`
	GeoFile     string `yaml:"geo_file"`
	PrettyPrint bool   `yaml:"pretty_print"`
}

// FlatPath returns the full path of the flat-list artifact.
func (o *OutputConfig) FlatPath() string {
	name := o.FlatFile
	if name == "" {
		name = "shops.uk.json"
	}

	return filepath.Join(o.BasePath, name)
}

// GeoPath returns the full path of the GeoJSON artifact.
func (o *OutputConfig) GeoPath() string {
	name := o.GeoFile
	if name == "" {
		name = "shops.geo.json"
	}

	return filepath.Join(o.BasePath, name)
}

// GeocoderConfig defines the external geocoding endpoint and its rate
// policy.
type GeocoderConfig struct {
	URL          string `yaml:"url"`
	UserAgent    string `yaml:"user_agent"`
	CountryCodes string `yaml:"country_codes"`
	MinDelayMs   int    `yaml:"min_delay_ms"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// MinDelay returns the enforced minimum delay between geocoding calls.
func (g *GeocoderConfig) MinDelay() time.Duration {
	return time.Duration(g.MinDelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (g *GeocoderConfig) Timeout() time.Duration {
	if g.TimeoutSec <= 0 {
		return 30 * time.Second
	}

	return time.Duration(g.TimeoutSec) * time.Second
}

// RetryPolicy defines retry behavior for source and schema fetches.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PlacesConfig defines the structured-API source (Google-Places-style
// text search). The API key is deliberately not part of the file; it is
// passed in from the environment by the command.
type PlacesConfig struct {
	Enabled    bool             `yaml:"enabled"`
	URL        string           `yaml:"url"`
	Query      string           `yaml:"query"`
	RadiusM    int              `yaml:"radius_m"`
	MinDelayMs int              `yaml:"min_delay_ms"`
	Locations  []SearchLocation `yaml:"locations"`
}

// SearchLocation is one centre point for a places text search.
type SearchLocation struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// EnrichmentConfig controls cosmetic enrichment of the final record set.
type EnrichmentConfig struct {
	SampleImages bool     `yaml:"sample_images"`
	ImageURLs    []string `yaml:"image_urls"`
}

// LoadConfig loads configuration from a YAML seeds file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 && !c.Places.Enabled {
		return ErrNoSources
	}

	enabledCount := 0

	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingName, i)
		}

		if src.URL == "" && src.File == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingURLOrFile, i)
		}

		if src.Hints.List == "" {
			return fmt.Errorf("%w: source[%d]", ErrSourceMissingListHint, i)
		}

		if src.Enabled {
			enabledCount++
		}
	}

	if len(c.Sources) > 0 && enabledCount == 0 && !c.Places.Enabled {
		return ErrNoEnabledSources
	}

	if c.SchemaURL == "" {
		return ErrMissingSchemaURL
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	if c.Geocoder.URL == "" {
		return ErrMissingGeocoderURL
	}

	if c.Geocoder.UserAgent == "" {
		return ErrMissingGeocoderAgent
	}

	if c.Geocoder.MinDelayMs < 0 {
		return ErrInvalidGeocoderDelay
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	// Validate places config only when enabled
	if c.Places.Enabled {
		if c.Places.URL == "" {
			return ErrPlacesMissingURL
		}

		if len(c.Places.Locations) == 0 {
			return ErrPlacesMissingLocations
		}
	}

	return nil
}

// EnabledSources returns only enabled sources.
func (c *Config) EnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d, MaxAttempts: %d, Output: %s}",
		len(c.Sources),
		c.Retry.MaxAttempts,
		c.Output.BasePath,
	)
}
