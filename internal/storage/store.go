package storage

import (
	"context"
	"errors"
	"time"

	"homewatch/server/internal/models"
)

// ErrNotFound is returned when a referenced watchlist or property does not
// exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for watchlists, properties and history
// events. Implementations must enforce per-listing-id uniqueness on
// properties and keep history events append-only: nothing in this interface
// mutates or deletes an event once written, and ListHistory returns events
// newest-first.
type Store interface {
	// Transact runs fn against a transactional view of the store. Every write
	// made through the view commits or rolls back as one unit. The pipeline
	// uses one transaction per snapshot.
	Transact(ctx context.Context, fn func(Store) error) error

	CreateWatchlist(ctx context.Context, w *models.Watchlist) error
	GetWatchlist(ctx context.Context, id int64) (*models.Watchlist, error)
	ListWatchlists(ctx context.Context) ([]models.Watchlist, error)
	// ListActiveWatchlists returns active watchlists ordered least recently
	// scraped first, never-scraped ones leading.
	ListActiveWatchlists(ctx context.Context) ([]models.Watchlist, error)
	TouchWatchlist(ctx context.Context, id int64, scrapedAt time.Time) error

	CreateProperty(ctx context.Context, p *models.Property) error
	UpdateProperty(ctx context.Context, p *models.Property) error
	UpdatePropertyScores(ctx context.Context, id int64, s models.ScoreSet) error
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	GetPropertyByListingID(ctx context.Context, listingID string) (*models.Property, error)
	ListProperties(ctx context.Context, watchlistID int64) ([]models.Property, error)

	AppendHistory(ctx context.Context, ev *models.HistoryEvent) error
	ListHistory(ctx context.Context, propertyID int64) ([]models.HistoryEvent, error)

	Close() error
}
