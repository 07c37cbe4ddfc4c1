// Package api provides the HTTP intake of the attendance service: the
// submission webhook, job triggers for external schedulers, presence and
// problem set administration, health and metrics.
package api

import (
	"fmt"
	"time"

	"github.com/dawnstudy/attendance/internal/conf"
)

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second // jobs post to the chat channel synchronously
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "64K"
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen    string
	TokenHash string // bcrypt hash of the bearer token; empty disables auth

	RatePerSecond float64
	RateBurst     int

	// Days subtracted from today when the dayend trigger has no explicit day.
	DayEndOffsetDays int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	BodyLimit       string
}

// ConfigFromSettings creates a server configuration from application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	return &Config{
		Listen:           settings.API.Listen,
		TokenHash:        settings.API.TokenHash,
		RatePerSecond:    settings.API.RateLimit.PerSecond,
		RateBurst:        settings.API.RateLimit.Burst,
		DayEndOffsetDays: settings.Jobs.DayEndOffsetDays,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
		BodyLimit:        DefaultBodyLimit,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.RatePerSecond < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.DayEndOffsetDays < 0 {
		return fmt.Errorf("dayend offset must not be negative")
	}
	return nil
}
