package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WatchlistSeed describes one watchlist to create at startup if a watchlist
// with the same name does not exist yet.
type WatchlistSeed struct {
	Name           string   `yaml:"name"`
	Location       string   `yaml:"location"`
	PriceMin       *float64 `yaml:"price_min"`
	PriceMax       *float64 `yaml:"price_max"`
	BedsMin        *int     `yaml:"beds_min"`
	BedsMax        *int     `yaml:"beds_max"`
	TrackOffMarket bool     `yaml:"track_off_market"`
}

type watchlistSeedFile struct {
	Watchlists []WatchlistSeed `yaml:"watchlists"`
}

// LoadWatchlistSeeds reads the watchlist seed file at path.
func LoadWatchlistSeeds(path string) ([]WatchlistSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist seed file: %w", err)
	}

	var file watchlistSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist seed file: %w", err)
	}

	for i, seed := range file.Watchlists {
		if seed.Name == "" {
			return nil, fmt.Errorf("watchlist seed %d has no name", i)
		}
	}
	return file.Watchlists, nil
}
