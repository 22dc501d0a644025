// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation. Missing storage credentials
// are a deployment fault surfaced at startup, never a per-request error.
var (
	// ErrAccountIDRequired is returned when CLOUDFLARE_ACCOUNT_ID is not set.
	ErrAccountIDRequired = errors.New("config: CLOUDFLARE_ACCOUNT_ID is required")
	// ErrAccessKeyIDRequired is returned when R2_ACCESS_KEY_ID is not set.
	ErrAccessKeyIDRequired = errors.New("config: R2_ACCESS_KEY_ID is required")
	// ErrSecretAccessKeyRequired is returned when R2_SECRET_ACCESS_KEY is not set.
	ErrSecretAccessKeyRequired = errors.New("config: R2_SECRET_ACCESS_KEY is required")
	// ErrJWTSecretRequired is returned when AUTH_JWT_SECRET is not set.
	ErrJWTSecretRequired = errors.New("config: AUTH_JWT_SECRET is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Object store settings
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID, required" json:"account_id"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID, required" json:"-"`     // Masked in JSON
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY, required" json:"-"` // Masked in JSON
	TempBucket      string `env:"R2_BUCKET_TEMP, default=evidence-temp" json:"temp_bucket"`
	PermanentBucket string `env:"R2_BUCKET_PERMANENT, default=evidence-permanent" json:"permanent_bucket"`

	// Auth settings
	JWTSecret string `env:"AUTH_JWT_SECRET, required" json:"-"` // Masked in JSON

	// Optional Postgres settings; in-memory records are used when unset
	DatabaseURL string `env:"DATABASE_URL" json:"-"` // Masked in JSON

	// Request settings
	SignedURLTTLSeconds int   `env:"SIGNED_URL_TTL, default=3600" json:"signed_url_ttl_seconds"`
	MaxUploadBytes      int64 `env:"MAX_UPLOAD_BYTES, default=26214400" json:"max_upload_bytes"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// DatabaseEnabled returns true if a Postgres connection string is provided.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "CLOUDFLARE_ACCOUNT_ID") {
			return nil, ErrAccountIDRequired
		}
		if strings.Contains(err.Error(), "R2_ACCESS_KEY_ID") {
			return nil, ErrAccessKeyIDRequired
		}
		if strings.Contains(err.Error(), "R2_SECRET_ACCESS_KEY") {
			return nil, ErrSecretAccessKeyRequired
		}
		if strings.Contains(err.Error(), "AUTH_JWT_SECRET") {
			return nil, ErrJWTSecretRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ErrAccountIDRequired
	}
	if c.AccessKeyID == "" {
		return ErrAccessKeyIDRequired
	}
	if c.SecretAccessKey == "" {
		return ErrSecretAccessKeyRequired
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, AccountID: %s, TempBucket: %s, PermanentBucket: %s, DatabaseEnabled: %t, SignedURLTTLSeconds: %d, MaxUploadBytes: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.AccountID,
		c.TempBucket,
		c.PermanentBucket,
		c.DatabaseEnabled(),
		c.SignedURLTTLSeconds,
		c.MaxUploadBytes,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
