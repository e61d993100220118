// Package scheduler enqueues periodic watchlist scans. The cadence lives
// here; what a scan does lives in the Runner.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"homewatch/server/internal/queue"
	"homewatch/server/internal/storage"
)

// Scheduler registers the hourly status check and the daily off-market scan
// and feeds the resulting jobs into the scan queue.
type Scheduler struct {
	store      storage.Store
	queue      *queue.ScanQueue
	cron       *cron.Cron
	logger     *logrus.Logger
	hourlySpec string
	dailySpec  string
}

func New(store storage.Store, q *queue.ScanQueue, hourlySpec, dailySpec string, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		store:      store,
		queue:      q,
		cron:       cron.New(),
		logger:     logger,
		hourlySpec: hourlySpec,
		dailySpec:  dailySpec,
	}
}

// Start registers the cron entries and begins scheduling.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.hourlySpec, func() {
		s.EnqueueScans(queue.ScanForSale)
	}); err != nil {
		return fmt.Errorf("failed to schedule status check: %w", err)
	}

	if _, err := s.cron.AddFunc(s.dailySpec, func() {
		s.EnqueueScans(queue.ScanOffMarket)
	}); err != nil {
		return fmt.Errorf("failed to schedule off-market scan: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"status_check":    s.hourlySpec,
		"off_market_scan": s.dailySpec,
	}).Info("Scheduler started")
	return nil
}

// Stop halts scheduling and waits for any in-flight cron callback.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// EnqueueScans queues one scan job per active watchlist, least recently
// scraped first. Off-market scans skip watchlists that do not track
// off-market listings. A full queue drops the remaining jobs for this tick;
// the next tick picks the watchlists up again in staleness order.
func (s *Scheduler) EnqueueScans(kind queue.ScanKind) {
	watchlists, err := s.store.ListActiveWatchlists(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list active watchlists")
		return
	}

	for _, w := range watchlists {
		if kind == queue.ScanOffMarket && !w.TrackOffMarket {
			s.logger.WithField("watchlist_id", w.ID).Debug("Skipping watchlist, off-market tracking disabled")
			continue
		}

		job := queue.NewScanJob(w.ID, kind)
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"watchlist_id": w.ID,
				"kind":         kind,
			}).Error("Failed to enqueue scan job")
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"job_id":       job.ID,
			"watchlist_id": w.ID,
			"kind":         kind,
		}).Info("Scheduled watchlist scan")
	}
}
