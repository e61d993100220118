package scheduler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homewatch/server/internal/batch"
	"homewatch/server/internal/models"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/scraper"
)

type stubSource struct {
	snapshots []models.Snapshot
	err       error
	scanTypes []string
}

func (s *stubSource) Fetch(ctx context.Context, scanType string, criteria scraper.Criteria) ([]models.Snapshot, error) {
	s.scanTypes = append(s.scanTypes, scanType)
	return s.snapshots, s.err
}

func floatPtr(v float64) *float64 { return &v }

func TestRunner_Run(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := &models.Watchlist{Name: "Austin", Location: "Austin, TX", IsActive: true}
	require.NoError(t, store.CreateWatchlist(ctx, w))

	source := &stubSource{snapshots: []models.Snapshot{
		{ListingID: "L-1", Status: "for_sale", ListPrice: floatPtr(500000)},
	}}
	coordinator := batch.NewCoordinator(store, logrus.New())
	runner := NewRunner(store, source, coordinator, logrus.New())

	runner.Run(queue.NewScanJob(w.ID, queue.ScanForSale))

	assert.Equal(t, []string{"for_sale"}, source.scanTypes)

	// The snapshot landed and got scored in the same pass.
	p, err := store.GetPropertyByListingID(ctx, "L-1")
	require.NoError(t, err)
	assert.NotNil(t, p.MotivationScore)

	got, err := store.GetWatchlist(ctx, w.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastScrapedAt)
}

func TestRunner_Run_FetchFailureIsNotFatal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := &models.Watchlist{Name: "Austin", IsActive: true}
	require.NoError(t, store.CreateWatchlist(ctx, w))

	source := &stubSource{err: assert.AnError}
	runner := NewRunner(store, source, batch.NewCoordinator(store, logrus.New()), logrus.New())

	runner.Run(queue.NewScanJob(w.ID, queue.ScanForSale))

	// Nothing stored, nothing stamped.
	props, err := store.ListProperties(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestRunner_Run_UnknownWatchlist(t *testing.T) {
	store := newTestStore(t)
	source := &stubSource{}
	runner := NewRunner(store, source, batch.NewCoordinator(store, logrus.New()), logrus.New())

	runner.Run(queue.NewScanJob(999, queue.ScanForSale))
	assert.Empty(t, source.scanTypes)
}
