package models

import "time"

// Watchlist is a named set of search criteria that scopes which properties
// are ingested and scored together.
type Watchlist struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Location       string     `json:"location"`
	PriceMin       *float64   `json:"price_min"`
	PriceMax       *float64   `json:"price_max"`
	BedsMin        *int       `json:"beds_min"`
	BedsMax        *int       `json:"beds_max"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	TrackOffMarket bool       `json:"track_off_market"`
	LastScrapedAt  *time.Time `json:"last_scraped_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
