// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the body of POST /api/files.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CommentPrefix marks log lines that are dropped before parsing.
	CommentPrefix string `koanf:"comment_prefix"`

	// EventTag is the event-type field value of damage records.
	EventTag string `koanf:"event_tag"`

	// Timezone is the IANA zone log timestamps are written in. Empty means
	// the process's local zone.
	Timezone string `koanf:"timezone"`

	// DefaultIntervalSeconds is the initial chart bucket width.
	DefaultIntervalSeconds int `koanf:"default_interval_seconds"`

	// DefaultNormalize selects per-source time origins on startup.
	DefaultNormalize bool `koanf:"default_normalize"`

	// ReadConcurrency bounds parallel file reads for preload and the CLI.
	ReadConcurrency int `koanf:"read_concurrency"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Preload lists log files loaded into the session at startup.
	Preload []string `koanf:"preload"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		MaxUploadBytes:         32 << 20,
		CommentPrefix:          "//",
		EventTag:               "DamageDone",
		DefaultIntervalSeconds: 5,
		DefaultNormalize:       true,
		ReadConcurrency:        4,
		CORSAllowedOrigins:     []string{"*"},
	}
}

// Location returns the time zone for log timestamps.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.EventTag == "" {
		return fmt.Errorf("%w: event_tag must not be empty", ErrInvalidConfig)
	}
	if c.ReadConcurrency < 1 {
		return fmt.Errorf("%w: read_concurrency must be at least 1", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
