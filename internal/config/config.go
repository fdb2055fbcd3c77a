// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the service reads at boot.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// AdminToken authorizes the privileged claim and audit endpoints.
	AdminToken string `env:"ADMIN_TOKEN"`

	PairingTTL          time.Duration `env:"PAIRING_TTL" envDefault:"15m"`
	PairingPollInterval time.Duration `env:"PAIRING_POLL_INTERVAL" envDefault:"5s"`
	PlanTTL             time.Duration `env:"PLAN_TTL" envDefault:"1h"`

	SnowflakeNodeID int64 `env:"SNOWFLAKE_NODE_ID" envDefault:"1"`

	RegisterRateLimit  int           `env:"REGISTER_RATE_LIMIT" envDefault:"30"`
	RegisterRateWindow time.Duration `env:"REGISTER_RATE_WINDOW" envDefault:"1m"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool { return c.Environment == "production" }
