// Package config loads jobboard settings from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	GoogleClientID     string `env:"JOBBOARD_GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"JOBBOARD_GOOGLE_CLIENT_SECRET"`

	CallbackAddr string        `env:"JOBBOARD_CALLBACK_ADDR" envDefault:"127.0.0.1:0"`
	ProfileURL   string        `env:"JOBBOARD_PROFILE_URL" envDefault:"https://www.googleapis.com/userinfo/v2/me"`
	AuthTimeout  time.Duration `env:"JOBBOARD_AUTH_TIMEOUT" envDefault:"5m"`

	Store       string `env:"JOBBOARD_STORE" envDefault:"file"`
	StorePath   string `env:"JOBBOARD_STORE_PATH"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	CacheKey    string `env:"JOBBOARD_CACHE_KEY"`

	LogLevel string `env:"JOBBOARD_LOG_LEVEL" envDefault:"warn"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that are missing for the selected backend.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile:
	case StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("JOBBOARD_STORE_PATH is required when JOBBOARD_STORE=%s", c.Store)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when JOBBOARD_STORE=%s", c.Store)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when JOBBOARD_STORE=%s", c.Store)
		}
	default:
		return fmt.Errorf("unsupported JOBBOARD_STORE %q", c.Store)
	}
	if c.CacheKey != "" {
		key, err := hex.DecodeString(c.CacheKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("JOBBOARD_CACHE_KEY must be 64 hex chars")
		}
	}
	return nil
}
