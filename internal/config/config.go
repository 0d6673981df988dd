package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/impacttour.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// Scoring oracle. An empty URL leaves submissions unscoreable, which is
	// fine for deployments that only run geofence hunts.
	OracleURL     string        `env:"ORACLE_URL"`
	OracleAPIKey  string        `env:"ORACLE_API_KEY"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"25s"`

	// Optional Redis pub/sub backplane for realtime events. Empty disables
	// it; the in-process broker still works per instance.
	RedisURL string `env:"REDIS_URL"`

	// Position fixes reporting an accuracy above this ceiling are stored but
	// not trusted for checkpoint unlocking. Zero disables the gate.
	AccuracyCeilingM float64 `env:"ACCURACY_CEILING_M" envDefault:"50"`

	// SeedDemo creates a demo operator, tour, and lobby session on an empty
	// database at startup.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
