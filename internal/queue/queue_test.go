package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewScanQueue(t *testing.T) {
	logger := logrus.New()
	q := NewScanQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestScanQueue_Enqueue(t *testing.T) {
	logger := logrus.New()
	q := NewScanQueue(2, logger)

	// Test successful enqueue
	err := q.Enqueue(NewScanJob(1, ScanForSale))
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	_ = q.Enqueue(NewScanJob(2, ScanForSale))
	err = q.Enqueue(NewScanJob(3, ScanForSale))
	assert.Equal(t, ErrQueueFull, err)

	// Test closed queue
	q.Close()
	err = q.Enqueue(NewScanJob(4, ScanForSale))
	assert.Equal(t, ErrQueueClosed, err)
}

func TestScanQueue_Start(t *testing.T) {
	logger := logrus.New()
	q := NewScanQueue(10, logger)

	var processed []ScanJob
	var mu sync.Mutex

	q.Start(func(job ScanJob) {
		mu.Lock()
		processed = append(processed, job)
		mu.Unlock()
	})

	first := NewScanJob(1, ScanForSale)
	second := NewScanJob(2, ScanOffMarket)
	assert.NoError(t, q.Enqueue(first))
	assert.NoError(t, q.Enqueue(second))

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Jobs come out in order, through one worker
	mu.Lock()
	assert.Equal(t, 2, len(processed))
	assert.Equal(t, first.ID, processed[0].ID)
	assert.Equal(t, second.ID, processed[1].ID)
	mu.Unlock()

	q.Close()
}

func TestScanQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewScanQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestNewScanJob(t *testing.T) {
	job := NewScanJob(7, ScanOffMarket)
	assert.Equal(t, int64(7), job.WatchlistID)
	assert.Equal(t, ScanOffMarket, job.Kind)
	assert.NotEqual(t, NewScanJob(7, ScanOffMarket).ID, job.ID)
	assert.False(t, job.EnqueuedAt.IsZero())
}
