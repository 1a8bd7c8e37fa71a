// Package config provides environment-based configuration loading and
// validation for the server and the digest scheduler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the process needs at startup. All fields come
// from environment variables; missing values use safe defaults except
// DatabaseURL, which is required.
type Config struct {
	Port        int
	DatabaseURL string

	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret string

	// Digest schedule: wall-clock fire time in Timezone.
	DigestEnabled  bool
	DigestHour     int
	DigestMinute   int
	DigestTimezone string

	// Dispatch pacing and per-send timeout.
	SendInterval time.Duration
	SendTimeout  time.Duration

	// SMTP transport; empty host selects the logging mailer.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           envInt("PORT", 8080),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DigestEnabled:  envBool("DIGEST_ENABLED", true),
		DigestHour:     envInt("DIGEST_HOUR", 8),
		DigestMinute:   envInt("DIGEST_MINUTE", 0),
		DigestTimezone: envString("DIGEST_TIMEZONE", "UTC"),
		SendInterval:   envDuration("DIGEST_SEND_INTERVAL", 500*time.Millisecond),
		SendTimeout:    envDuration("DIGEST_SEND_TIMEOUT", 10*time.Second),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       envInt("SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       envString("MAIL_FROM", "jobs@talent-board.local"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be in 1-65535, got %d", c.Port)
	}
	if c.DigestHour < 0 || c.DigestHour > 23 {
		return fmt.Errorf("config error: DIGEST_HOUR must be in 0-23, got %d", c.DigestHour)
	}
	if c.DigestMinute < 0 || c.DigestMinute > 59 {
		return fmt.Errorf("config error: DIGEST_MINUTE must be in 0-59, got %d", c.DigestMinute)
	}
	if _, err := time.LoadLocation(c.DigestTimezone); err != nil {
		return fmt.Errorf("config error: invalid DIGEST_TIMEZONE %q: %w", c.DigestTimezone, err)
	}
	if c.SendInterval < 0 {
		return fmt.Errorf("config error: DIGEST_SEND_INTERVAL must be non-negative")
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("config error: DIGEST_SEND_TIMEOUT must be positive")
	}
	return nil
}

// Location returns the digest reference timezone. Validate has already
// checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DigestTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
