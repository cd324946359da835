package config

import "os"

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Database
	DatabaseURL string

	// Codec limits
	MaxUploadBytes  int64 // largest accepted .mid upload
	DefaultDivision int   // ticks per quarter when a request omits one

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": Validate bearer tokens locally with JWTSecret
	AuthMode  string
	JWTSecret string
}

const (
	defaultMaxUploadBytes = 8 << 20 // 8 MiB
	defaultDivision       = 480
)

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/midikit?sslmode=disable"),
		MaxUploadBytes:  defaultMaxUploadBytes,
		DefaultDivision: defaultDivision,
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		AuthMode:        getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:       getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if tokens are validated locally
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}
