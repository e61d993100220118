package storage

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homewatch/server/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createWatchlist(t *testing.T, store Store, name string) *models.Watchlist {
	t.Helper()
	w := &models.Watchlist{Name: name, IsActive: true}
	require.NoError(t, store.CreateWatchlist(context.Background(), w))
	return w
}

func TestSQLiteStore_WatchlistCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := createWatchlist(t, store, "Austin")
	assert.NotZero(t, w.ID)

	got, err := store.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Austin", got.Name)

	_, err = store.GetWatchlist(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	lists, err := store.ListWatchlists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestSQLiteStore_ListActiveWatchlists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stale := createWatchlist(t, store, "stale")
	fresh := createWatchlist(t, store, "fresh")
	never := createWatchlist(t, store, "never")

	inactive := &models.Watchlist{Name: "inactive", IsActive: false}
	require.NoError(t, store.CreateWatchlist(ctx, inactive))

	require.NoError(t, store.TouchWatchlist(ctx, stale.ID, time.Now().Add(-2*time.Hour)))
	require.NoError(t, store.TouchWatchlist(ctx, fresh.ID, time.Now()))

	lists, err := store.ListActiveWatchlists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 3)

	// Never-scraped first, then least recently scraped.
	assert.Equal(t, never.ID, lists[0].ID)
	assert.Equal(t, stale.ID, lists[1].ID)
	assert.Equal(t, fresh.ID, lists[2].ID)
}

func TestSQLiteStore_TouchWatchlist_NotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.TouchWatchlist(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_PropertyLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	w := createWatchlist(t, store, "Austin")

	price := 500000.0
	p := &models.Property{
		ListingID:        "L-1",
		WatchlistID:      w.ID,
		Status:           models.StatusForSale,
		CurrentListPrice: &price,
		Photos:           models.PhotoList{"a.jpg", "b.jpg"},
	}
	require.NoError(t, store.CreateProperty(ctx, p))

	byID, err := store.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "L-1", byID.ListingID)
	assert.Equal(t, models.PhotoList{"a.jpg", "b.jpg"}, byID.Photos)

	byListing, err := store.GetPropertyByListingID(ctx, "L-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byListing.ID)

	_, err = store.GetProperty(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetPropertyByListingID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// Listing ids are unique.
	dup := &models.Property{ListingID: "L-1", WatchlistID: w.ID, Status: models.StatusForSale}
	assert.Error(t, store.CreateProperty(ctx, dup))
}

func TestSQLiteStore_UpdatePropertyScores(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	w := createWatchlist(t, store, "Austin")

	p := &models.Property{ListingID: "L-1", WatchlistID: w.ID, Status: models.StatusForSale}
	require.NoError(t, store.CreateProperty(ctx, p))

	sc := models.ScoreSet{Total: 59.5, DOM: 10, Reduction: 21.5, OffMarket: 15, Status: 10, Market: 3}
	require.NoError(t, store.UpdatePropertyScores(ctx, p.ID, sc))

	got, err := store.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MotivationScore)
	assert.Equal(t, 59.5, *got.MotivationScore)
	assert.Equal(t, 21.5, *got.ScoreReductions)

	assert.ErrorIs(t, store.UpdatePropertyScores(ctx, 999, sc), ErrNotFound)
}

func TestSQLiteStore_ListHistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	w := createWatchlist(t, store, "Austin")

	p := &models.Property{ListingID: "L-1", WatchlistID: w.ID, Status: models.StatusForSale}
	require.NoError(t, store.CreateProperty(ctx, p))

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := &models.HistoryEvent{
			PropertyID: p.ID,
			EventType:  models.EventPriceReduction,
			EventDate:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.AppendHistory(ctx, ev))
	}

	events, err := store.ListHistory(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].EventDate.After(events[1].EventDate))
	assert.True(t, events[1].EventDate.After(events[2].EventDate))
}

func TestSQLiteStore_Transact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	w := createWatchlist(t, store, "Austin")

	// A failing transaction rolls everything back.
	err := store.Transact(ctx, func(tx Store) error {
		p := &models.Property{ListingID: "L-1", WatchlistID: w.ID, Status: models.StatusForSale}
		if err := tx.CreateProperty(ctx, p); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = store.GetPropertyByListingID(ctx, "L-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
