// Package batch applies the reconciler and the scoring engine across the
// snapshots and properties of one watchlist. Per-item failures are folded
// into the summary; a batch never aborts because one item failed.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"homewatch/server/internal/models"
	"homewatch/server/internal/reconciler"
	"homewatch/server/internal/scoring"
	"homewatch/server/internal/storage"
)

// IngestSummary is the outcome of one ingestion batch.
type IngestSummary struct {
	NewCount       int      `json:"new_count"`
	UpdatedCount   int      `json:"updated_count"`
	TotalProcessed int      `json:"total_processed"`
	Errors         []string `json:"errors,omitempty"`
}

// ScoreSummary is the outcome of one scoring pass.
type ScoreSummary struct {
	ScoredCount     int      `json:"scored_count"`
	TotalProperties int      `json:"total_properties"`
	Errors          []string `json:"errors,omitempty"`
}

type Coordinator struct {
	store      storage.Store
	reconciler *reconciler.Reconciler
	logger     *logrus.Logger
	now        func() time.Time
}

func NewCoordinator(store storage.Store, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{
		store:      store,
		reconciler: reconciler.New(store, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest reconciles each snapshot against the store, one at a time in input
// order. The watchlist must exist; a missing watchlist aborts the whole call.
// Individual snapshot failures are recorded and processing continues. The
// watchlist's last-scraped timestamp is stamped after the fold.
func (c *Coordinator) Ingest(ctx context.Context, watchlistID int64, snapshots []models.Snapshot) (IngestSummary, error) {
	if _, err := c.store.GetWatchlist(ctx, watchlistID); err != nil {
		return IngestSummary{}, err
	}

	summary := IngestSummary{TotalProcessed: len(snapshots)}
	observedAt := c.now().UTC()

	for _, snap := range snapshots {
		outcome, err := c.reconciler.Reconcile(ctx, watchlistID, snap, observedAt)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"listing_id":   snap.ListingID,
				"watchlist_id": watchlistID,
			}).Error("Failed to reconcile snapshot")
			summary.Errors = append(summary.Errors, ingestErrorMessage(snap, err))
			continue
		}
		switch outcome {
		case reconciler.OutcomeCreated:
			summary.NewCount++
		case reconciler.OutcomeUpdated:
			summary.UpdatedCount++
		}
	}

	if err := c.store.TouchWatchlist(ctx, watchlistID, observedAt); err != nil {
		c.logger.WithError(err).WithField("watchlist_id", watchlistID).
			Warn("Failed to stamp watchlist scrape time")
	}

	c.logger.WithFields(logrus.Fields{
		"watchlist_id": watchlistID,
		"new":          summary.NewCount,
		"updated":      summary.UpdatedCount,
		"errors":       len(summary.Errors),
	}).Info("Ingest batch completed")

	return summary, nil
}

func ingestErrorMessage(snap models.Snapshot, err error) string {
	if snap.ListingID == "" {
		return "snapshot missing listing id"
	}
	return fmt.Sprintf("listing %s: %v", snap.ListingID, err)
}

// ScoreWatchlist scores every property in the watchlist and writes the
// results back. When market is nil the baseline is the watchlist's own
// average days on market, defaulting to 60 when no payload carries one.
func (c *Coordinator) ScoreWatchlist(ctx context.Context, watchlistID int64, market *scoring.Market) (ScoreSummary, error) {
	if _, err := c.store.GetWatchlist(ctx, watchlistID); err != nil {
		return ScoreSummary{}, err
	}

	props, err := c.store.ListProperties(ctx, watchlistID)
	if err != nil {
		return ScoreSummary{}, fmt.Errorf("list properties: %w", err)
	}

	m := scoring.Market{AvgDaysOnMarket: scoring.DefaultAvgDaysOnMarket}
	if market != nil {
		m = *market
	} else if avg := averageDaysOnMarket(props); avg > 0 {
		m.AvgDaysOnMarket = avg
	}

	summary := ScoreSummary{TotalProperties: len(props)}
	now := c.now().UTC()

	for _, p := range props {
		if err := c.scoreOne(ctx, p, m, now); err != nil {
			c.logger.WithError(err).WithField("property_id", p.ID).Error("Failed to score property")
			summary.Errors = append(summary.Errors, fmt.Sprintf("property %d: %v", p.ID, err))
			continue
		}
		summary.ScoredCount++
	}

	c.logger.WithFields(logrus.Fields{
		"watchlist_id": watchlistID,
		"scored":       summary.ScoredCount,
		"total":        summary.TotalProperties,
	}).Info("Scoring pass completed")

	return summary, nil
}

// ScoreProperty scores a single property. The baseline comes from the
// property's own watchlist unless the caller supplies one.
func (c *Coordinator) ScoreProperty(ctx context.Context, propertyID int64, market *scoring.Market) error {
	p, err := c.store.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	m := scoring.Market{AvgDaysOnMarket: scoring.DefaultAvgDaysOnMarket}
	if market != nil {
		m = *market
	} else if props, err := c.store.ListProperties(ctx, p.WatchlistID); err == nil {
		if avg := averageDaysOnMarket(props); avg > 0 {
			m.AvgDaysOnMarket = avg
		}
	}

	return c.scoreOne(ctx, *p, m, c.now().UTC())
}

func (c *Coordinator) scoreOne(ctx context.Context, p models.Property, m scoring.Market, now time.Time) error {
	history, err := c.store.ListHistory(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	score := scoring.Compute(p, history, m, now)
	return c.store.UpdatePropertyScores(ctx, p.ID, score)
}

// averageDaysOnMarket is the mean of the days_on_market values present in
// the stored raw payloads. Zero when no payload carries one.
func averageDaysOnMarket(props []models.Property) float64 {
	var sum float64
	var n int
	for _, p := range props {
		if dom := scoring.DaysOnMarket(p.RawData); dom > 0 {
			sum += dom
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
