// Package config provides configuration management for the onboarding
// gateway. Values load from environment variables with sensible defaults.
//
// Provider blocks (CRM, AML, payments) are each gated on credential
// presence: a missing block is not a startup error, the corresponding
// routes simply report 503 "service disabled" instead of attempting the
// network.
//
// Environment variables:
//
// Application:
//   - PORT: server port (default: 8080)
//   - LOG_LEVEL: logging level (default: info)
//
// Rate limiting:
//   - RATE_LIMIT_STORE: "memory" or "redis" (default: memory)
//   - REDIS_ADDRESS: Redis server address (required for redis store)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number (default: 0)
//
// CRM provider:
//   - CRM_API_KEY: bearer token (presence gates CRM routes)
//   - CRM_LOCATION_ID: tenant location identifier
//   - CRM_API_BASE: API base URL (default: https://services.leadconnectorhq.com)
//   - CRM_API_VERSION: Version header value (default: 2021-07-28)
//   - FIELD_CACHE_TTL: custom-field catalog cache TTL (default: 10m)
//
// AML vendor:
//   - AML_ENABLED: feature flag for the AML integration (default: false)
//   - AML_API_KEY: bearer token
//   - AML_API_BASE: API base URL
//
// Payments:
//   - PAYMENTS_SECRET_KEY: API secret key
//   - PAYMENTS_API_BASE: API base URL (default: https://api.stripe.com)
//   - PAYMENTS_WEBHOOK_SECRET: webhook signature secret
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the onboarding gateway
type Config struct {
	// Application settings
	Port     string
	LogLevel string

	// Rate limiting
	RateLimitStore string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int

	// CRM provider
	CRMAPIKey     string
	CRMLocationID string
	CRMBaseURL    string
	CRMAPIVersion string
	FieldCacheTTL time.Duration

	// AML vendor
	AMLEnabled bool
	AMLAPIKey  string
	AMLBaseURL string

	// Payments
	PaymentsSecretKey     string
	PaymentsBaseURL       string
	PaymentsWebhookSecret string
}

// Load creates a Config with values from environment variables. Call
// Validate before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitStore: getEnv("RATE_LIMIT_STORE", "memory"),
		RedisAddress:   getEnv("REDIS_ADDRESS", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),

		CRMAPIKey:     getEnv("CRM_API_KEY", ""),
		CRMLocationID: getEnv("CRM_LOCATION_ID", ""),
		CRMBaseURL:    getEnv("CRM_API_BASE", "https://services.leadconnectorhq.com"),
		CRMAPIVersion: getEnv("CRM_API_VERSION", "2021-07-28"),
		FieldCacheTTL: getDurationEnv("FIELD_CACHE_TTL", 10*time.Minute),

		AMLEnabled: getBoolEnv("AML_ENABLED", false),
		AMLAPIKey:  getEnv("AML_API_KEY", ""),
		AMLBaseURL: getEnv("AML_API_BASE", ""),

		PaymentsSecretKey:     getEnv("PAYMENTS_SECRET_KEY", ""),
		PaymentsBaseURL:       getEnv("PAYMENTS_API_BASE", "https://api.stripe.com"),
		PaymentsWebhookSecret: getEnv("PAYMENTS_WEBHOOK_SECRET", ""),
	}
}

// Validate checks the configuration for values that would prevent a safe
// start. Missing provider credentials are not errors; they disable the
// corresponding routes.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}

	switch c.RateLimitStore {
	case "memory":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("RATE_LIMIT_STORE=redis requires REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE %q: must be memory or redis", c.RateLimitStore)
	}

	if c.FieldCacheTTL <= 0 {
		return fmt.Errorf("FIELD_CACHE_TTL must be positive, got %v", c.FieldCacheTTL)
	}

	if c.AMLEnabled && (c.AMLAPIKey == "" || c.AMLBaseURL == "") {
		return fmt.Errorf("AML_ENABLED requires AML_API_KEY and AML_API_BASE")
	}

	return nil
}

// CRMConfigured reports whether the CRM credentials are present
func (c *Config) CRMConfigured() bool {
	return c.CRMAPIKey != "" && c.CRMLocationID != ""
}

// AMLConfigured reports whether the AML integration can be used
func (c *Config) AMLConfigured() bool {
	return c.AMLEnabled && c.AMLAPIKey != "" && c.AMLBaseURL != ""
}

// PaymentsConfigured reports whether the payments credentials are present
func (c *Config) PaymentsConfigured() bool {
	return c.PaymentsSecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
