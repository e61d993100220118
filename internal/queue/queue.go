package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ScanKind selects which side of the market a scan covers.
type ScanKind string

const (
	ScanForSale   ScanKind = "for_sale"
	ScanOffMarket ScanKind = "off_market"
)

// ScanJob is one queued request to scan a watchlist.
type ScanJob struct {
	ID          uuid.UUID
	WatchlistID int64
	Kind        ScanKind
	EnqueuedAt  time.Time
}

// NewScanJob builds a job with a fresh run id.
func NewScanJob(watchlistID int64, kind ScanKind) ScanJob {
	return ScanJob{
		ID:          uuid.New(),
		WatchlistID: watchlistID,
		Kind:        kind,
		EnqueuedAt:  time.Now(),
	}
}

// ScanQueue is an in-memory queue of scan jobs drained by a single worker.
// Serializing jobs through one worker guarantees that reconciliations for
// the same watchlist never interleave.
type ScanQueue struct {
	jobs    chan ScanJob
	done    chan struct{}
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
	wg      sync.WaitGroup
}

// NewScanQueue creates a new scan queue with the specified buffer size.
func NewScanQueue(bufferSize int, logger *logrus.Logger) *ScanQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScanQueue{
		jobs:    make(chan ScanJob, bufferSize),
		done:    make(chan struct{}),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Enqueue adds a job to the queue. The send is non-blocking so a slow worker
// cannot deadlock the scheduler; a full queue is reported to the caller.
func (q *ScanQueue) Enqueue(job ScanJob) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	select {
	case q.jobs <- job:
		q.logger.WithFields(logrus.Fields{
			"job_id":       job.ID,
			"watchlist_id": job.WatchlistID,
			"kind":         job.Kind,
		}).Debug("Enqueued scan job")
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the single worker that drains the queue in order, calling
// handler for each job.
func (q *ScanQueue) Start(handler func(ScanJob)) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-q.done:
				return
			case job := <-q.jobs:
				handler(job)
			}
		}
	}()
}

// Close stops the worker and prevents new jobs from being added.
func (q *ScanQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Len returns the current number of queued jobs.
func (q *ScanQueue) Len() int {
	return len(q.jobs)
}

// IsClosed returns whether the queue has been closed.
func (q *ScanQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
