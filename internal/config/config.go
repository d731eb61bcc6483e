package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	DBPath          string        `envconfig:"DB_PATH" default:"./data/notification.db"`
	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite|memory
	DefaultTZ       string        `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	RecoveryMaxAge  time.Duration `envconfig:"RECOVERY_MAX_AGE" default:"0s"` // 0 = deliver every overdue reminder
	DeliveryTimeout time.Duration `envconfig:"DELIVERY_TIMEOUT" default:"10s"`
}

// Load reads environment variables into Config and validates them.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is empty")
	}
	switch c.StoreDriver {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if _, err := time.LoadLocation(c.DefaultTZ); err != nil {
		return fmt.Errorf("DEFAULT_TZ: %w", err)
	}
	if c.RecoveryMaxAge < 0 {
		return fmt.Errorf("RECOVERY_MAX_AGE must not be negative")
	}
	return nil
}

// Location returns the time zone user input is interpreted in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
