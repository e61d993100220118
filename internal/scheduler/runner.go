package scheduler

import (
	"context"

	"github.com/sirupsen/logrus"

	"homewatch/server/internal/batch"
	"homewatch/server/internal/queue"
	"homewatch/server/internal/scraper"
	"homewatch/server/internal/storage"
)

// Runner executes one scan job end to end: fetch snapshots from the source,
// ingest them, then score the watchlist. Failures are logged, never fatal;
// the queue keeps draining.
type Runner struct {
	store       storage.Store
	source      scraper.Source
	coordinator *batch.Coordinator
	logger      *logrus.Logger
}

func NewRunner(store storage.Store, source scraper.Source, coordinator *batch.Coordinator, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		store:       store,
		source:      source,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Run processes a single scan job.
func (r *Runner) Run(job queue.ScanJob) {
	ctx := context.Background()
	log := r.logger.WithFields(logrus.Fields{
		"job_id":       job.ID,
		"watchlist_id": job.WatchlistID,
		"kind":         job.Kind,
	})

	w, err := r.store.GetWatchlist(ctx, job.WatchlistID)
	if err != nil {
		log.WithError(err).Error("Scan job aborted, watchlist lookup failed")
		return
	}

	snapshots, err := r.source.Fetch(ctx, string(job.Kind), scraper.CriteriaFor(*w))
	if err != nil {
		log.WithError(err).Error("Scan job aborted, snapshot fetch failed")
		return
	}

	ingest, err := r.coordinator.Ingest(ctx, job.WatchlistID, snapshots)
	if err != nil {
		log.WithError(err).Error("Scan job aborted, ingest failed")
		return
	}

	score, err := r.coordinator.ScoreWatchlist(ctx, job.WatchlistID, nil)
	if err != nil {
		log.WithError(err).Error("Scoring failed after ingest")
		return
	}

	log.WithFields(logrus.Fields{
		"new":     ingest.NewCount,
		"updated": ingest.UpdatedCount,
		"scored":  score.ScoredCount,
		"errors":  len(ingest.Errors) + len(score.Errors),
	}).Info("Scan job completed")
}
