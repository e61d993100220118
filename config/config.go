package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP configuration
	HTTP struct {
		// Port the API server listens on
		Port string `env:"HTTP_PORT" envDefault:"5250"`
	}

	// Database configuration
	Database struct {
		// Backend selects the store implementation: sqlite or postgres
		Backend string `env:"DB_BACKEND" envDefault:"sqlite"`

		// Path of the sqlite database file
		SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"database/homewatch.db"`

		// Connection string for the postgres backend
		PostgresURL string `env:"DB_POSTGRES_URL"`
	}

	// Scraper service configuration
	Scraper struct {
		// Base URL of the external scraper service
		BaseURL string `env:"SCRAPER_URL" envDefault:"http://localhost:8000"`

		// Request timeout in seconds
		TimeoutSeconds int `env:"SCRAPER_TIMEOUT" envDefault:"60"`
	}

	// Scheduler configuration
	Scheduler struct {
		// Cron spec for the hourly status check
		StatusCheckSpec string `env:"SCHEDULE_STATUS_CHECK" envDefault:"0 * * * *"`

		// Cron spec for the daily off-market scan
		OffMarketScanSpec string `env:"SCHEDULE_OFF_MARKET_SCAN" envDefault:"0 2 * * *"`

		// Buffer size of the scan job queue
		QueueSize int `env:"SCAN_QUEUE_SIZE" envDefault:"32"`
	}

	// Path of an optional YAML file with watchlists to create at startup
	WatchlistSeedPath string `env:"WATCHLIST_SEED" envDefault:""`
}

// Load reads a local .env file if present, then parses the configuration
// from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
