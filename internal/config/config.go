// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime knob for the service. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// DatabaseURL selects the Postgres store. When empty, DataDir selects
	// an embedded Badger store; when both are empty, messages are kept in
	// memory only.
	DatabaseURL string `envconfig:"DB_URL"`
	DataDir     string `envconfig:"DATA_DIR"`

	StaticDir string `envconfig:"STATIC_DIR" default:"static"`

	HistoryLimit       int           `envconfig:"HISTORY_LIMIT" default:"50" validate:"gt=0,lte=500"`
	MinMessageInterval time.Duration `envconfig:"MIN_MESSAGE_INTERVAL" default:"300ms" validate:"gte=0"`
	StoreTimeout       time.Duration `envconfig:"STORE_TIMEOUT" default:"5s" validate:"gt=0"`
	StoreRetries       int           `envconfig:"STORE_RETRIES" default:"5" validate:"gte=0,lte=20"`
}

// Load reads a .env file when present, then decodes and validates the
// environment.
func Load() (Config, error) {
	// A missing .env file is fine; deployments set real environment
	// variables instead.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid settings: %w", err)
	}

	return cfg, nil
}
