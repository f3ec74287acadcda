// Package config loads and validates the duplicate-detection service's
// environment-driven configuration.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration values, sourced from environment
// variables per spec §6.
type Config struct {
	// Server
	Addr            string
	Env             string
	GracefulTimeout time.Duration

	// Upstream repository client
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	UpstreamRetries int

	// Candidate recruitment
	MaxCandidates int

	// Rate limiting
	RateLimitRPM int

	// Response cache
	CacheTTL     time.Duration
	CacheMaxSize int

	// Admin
	AdminAPIKey string

	// Logging
	LogLevel string

	// Request-level deadline (§5) — not independently configurable, but
	// centralized here so handlers and the timeout middleware agree.
	RequestDeadline time.Duration
}

// Load reads configuration from environment variables and an optional .env
// file, applying the defaults and range clamps from spec §6.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            getEnv("DUPCHECK_ADDR", ":8080"),
		Env:             getEnv("ENV", "development"),
		GracefulTimeout: time.Duration(getEnvInt("DUPCHECK_GRACEFUL_TIMEOUT_SEC", 15)) * time.Second,

		UpstreamBaseURL: getEnv("WLO_BASE_URL", "https://api.staging.wlo.example/v1"),
		UpstreamTimeout: time.Duration(getEnvInt("WLO_TIMEOUT", 60)) * time.Second,
		UpstreamRetries: getEnvInt("WLO_MAX_RETRIES", 3),

		MaxCandidates: getEnvInt("MAX_CANDIDATES", 40),

		RateLimitRPM: parseRateLimit(getEnv("RATE_LIMIT", "100/minute"), 100),

		CacheTTL:     time.Duration(getEnvInt("DETECTION_CACHE_TTL", 3600)) * time.Second,
		CacheMaxSize: getEnvInt("DETECTION_CACHE_MAX_SIZE", 1000),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		RequestDeadline: 55 * time.Second,
	}

	cfg.clamp()
	return cfg
}

// clamp enforces the ranges spec §6/§4.6 declare for each setting, nudging
// out-of-range values back in rather than failing startup.
func (c *Config) clamp() {
	if c.UpstreamRetries < 0 {
		c.UpstreamRetries = 0
	}
	if c.MaxCandidates < 1 {
		c.MaxCandidates = 40
	}
	if c.CacheTTL < 60*time.Second {
		c.CacheTTL = 60 * time.Second
	}
	if c.CacheTTL > 86400*time.Second {
		c.CacheTTL = 86400 * time.Second
	}
	if c.CacheMaxSize < 10 {
		c.CacheMaxSize = 10
	}
	if c.CacheMaxSize > 10000 {
		c.CacheMaxSize = 10000
	}
	if c.RateLimitRPM < 1 {
		c.RateLimitRPM = 100
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// parseRateLimit parses the "<N>/minute" shape from §6's RATE_LIMIT
// variable. Only a per-minute window is supported; anything else falls
// back to the default.
func parseRateLimit(raw string, fallback int) int {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '/' {
			n, err := strconv.Atoi(raw[:i])
			if err != nil || n < 1 || raw[i+1:] != "minute" {
				return fallback
			}
			return n
		}
	}
	return fallback
}
