package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	ZoomWebhookSecret string `env:"ZOOM_WEBHOOK_SECRET"`
	ZoomAccountID     string `env:"ZOOM_ACCOUNT_ID"`
	ZoomClientID      string `env:"ZOOM_CLIENT_ID"`
	ZoomClientSecret  string `env:"ZOOM_CLIENT_SECRET"`

	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	BackfillIntervalHours int `env:"BACKFILL_INTERVAL_HOURS" envDefault:"6"`
	BackfillLimit         int `env:"BACKFILL_LIMIT" envDefault:"20"`
	BackfillItemDelayMs   int `env:"BACKFILL_ITEM_DELAY_MS" envDefault:"2000"`
	RecordingGuardMinutes int `env:"RECORDING_GUARD_MINUTES" envDefault:"10"`
	APIRateLimitPerMin    int `env:"API_RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) BackfillInterval() time.Duration {
	return time.Duration(c.BackfillIntervalHours) * time.Hour
}

func (c *Config) BackfillItemDelay() time.Duration {
	return time.Duration(c.BackfillItemDelayMs) * time.Millisecond
}

func (c *Config) RecordingGuard() time.Duration {
	return time.Duration(c.RecordingGuardMinutes) * time.Minute
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.ZoomAccountID == "" || c.ZoomClientID == "" || c.ZoomClientSecret == "" {
		return fmt.Errorf("ZOOM_ACCOUNT_ID, ZOOM_CLIENT_ID and ZOOM_CLIENT_SECRET must all be set")
	}

	if isProduction {
		if c.ZoomWebhookSecret == "" {
			return fmt.Errorf("ZOOM_WEBHOOK_SECRET must be set in production")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.AdminPasswordHash == "" {
			log.Warn().Msg("ADMIN_PASSWORD_HASH is empty in production: admin endpoints disabled")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
