package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homewatch/server/internal/models"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/storage"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:", logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnqueueScans_ForSale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateWatchlist(ctx, &models.Watchlist{Name: "a", IsActive: true}))
	require.NoError(t, store.CreateWatchlist(ctx, &models.Watchlist{Name: "b", IsActive: true, TrackOffMarket: true}))
	require.NoError(t, store.CreateWatchlist(ctx, &models.Watchlist{Name: "paused", IsActive: false}))

	q := queue.NewScanQueue(10, logrus.New())
	s := New(store, q, "0 * * * *", "0 2 * * *", logrus.New())

	s.EnqueueScans(queue.ScanForSale)
	assert.Equal(t, 2, q.Len())
}

func TestEnqueueScans_OffMarketSkipsUntracked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateWatchlist(ctx, &models.Watchlist{Name: "a", IsActive: true}))
	require.NoError(t, store.CreateWatchlist(ctx, &models.Watchlist{Name: "b", IsActive: true, TrackOffMarket: true}))

	q := queue.NewScanQueue(10, logrus.New())
	s := New(store, q, "0 * * * *", "0 2 * * *", logrus.New())

	s.EnqueueScans(queue.ScanOffMarket)
	assert.Equal(t, 1, q.Len())
}

func TestScheduler_StartStop(t *testing.T) {
	store := newTestStore(t)
	q := queue.NewScanQueue(10, logrus.New())
	s := New(store, q, "0 * * * *", "0 2 * * *", logrus.New())

	require.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	store := newTestStore(t)
	q := queue.NewScanQueue(10, logrus.New())
	s := New(store, q, "not a cron spec", "0 2 * * *", logrus.New())

	assert.Error(t, s.Start())
}
