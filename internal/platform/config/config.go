// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds all configuration for the classroom API service.
type Config struct {
	Addr             string        `env:"CLASSROOM_ADDR,default=:8080" description:"listen address"`
	JWKSEndpoint     string        `env:"JWKS_ENDPOINT,default=http://localhost:8081/.well-known/jwks.json" description:"identity provider JWKS URL"`
	IdentityAdminURL string        `env:"IDENTITY_ADMIN_URL,default=http://localhost:8081" description:"identity provider admin base URL"`
	PostgresDSN      string        `env:"POSTGRES" description:"Postgres connection string; empty selects the in-memory store"`
	LogLevel         string        `env:"LOG_LEVEL,default=info" description:"debug, info, warn or error"`
	Version          string        `env:"SERVICE_VERSION,default=1.0.0" description:"version reported by the health endpoint"`
	MaxBodyBytes     int64         `env:"MAX_BODY_BYTES,default=1048576" description:"request body size cap"`
	RateLimit        RateLimitConfig
}

// RateLimitConfig holds fixed-window parameters for per-client rate limiting.
type RateLimitConfig struct {
	Max    int           `env:"RATE_LIMIT_MAX,default=2" description:"requests allowed per window and key"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW,default=1m" description:"window length"`
}

// Load reads configuration from environment variables, falling back to the
// tag defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
