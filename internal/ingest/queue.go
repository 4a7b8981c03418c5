package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/retry"
	"github.com/wallet-feed/internal/storage"
	"github.com/wallet-feed/internal/types"
)

// RefreshScheduler receives the provider's next-update hint after a
// successful run.
type RefreshScheduler interface {
	EnsureRefreshScheduled(ctx context.Context, runAt time.Time) (bool, error)
}

// Queue runs ingestion jobs with a bounded worker pool. Jobs are stored
// in Postgres; a dispatcher tick claims queued rows so restarts never
// lose work and multiple processes can share the table.
type Queue struct {
	mu sync.Mutex

	jobs   *storage.IngestJobRepository
	engine *Engine

	workers          int
	workerSem        chan struct{}
	dispatchInterval time.Duration
	maxRetries       int

	scheduler RefreshScheduler

	stopCh  chan struct{}
	stopped bool

	logger *logging.Logger
}

// NewQueue creates an ingestion job queue
func NewQueue(jobs *storage.IngestJobRepository, engine *Engine, workers int, dispatchInterval time.Duration, maxRetries int, logger *logging.Logger) *Queue {
	if workers <= 0 {
		workers = 5
	}
	if dispatchInterval <= 0 {
		dispatchInterval = time.Second
	}

	return &Queue{
		jobs:             jobs,
		engine:           engine,
		workers:          workers,
		workerSem:        make(chan struct{}, workers),
		dispatchInterval: dispatchInterval,
		maxRetries:       maxRetries,
		stopCh:           make(chan struct{}),
		stopped:          true,
		logger:           logger,
	}
}

// SetScheduler wires the refresh scheduler. Must be called before Start.
func (q *Queue) SetScheduler(s RefreshScheduler) {
	q.scheduler = s
}

// Start begins claiming and running jobs
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.mu.Unlock()
		return fmt.Errorf("queue already started")
	}
	q.stopped = false
	q.stopCh = make(chan struct{})
	q.mu.Unlock()

	go q.dispatchLoop(ctx)

	return nil
}

// Stop gracefully stops the queue. Running jobs finish their current
// attempt.
func (q *Queue) Stop() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return fmt.Errorf("queue already stopped")
	}

	close(q.stopCh)
	q.stopped = true

	return nil
}

// Enqueue records a new ingestion job for an address
func (q *Queue) Enqueue(ctx context.Context, address string) (*models.IngestJob, error) {
	job, err := q.jobs.Create(ctx, types.ChecksumAddress(address))
	if err != nil {
		return nil, err
	}

	q.logger.WithFields(map[string]interface{}{
		"jobId":   job.JobID,
		"address": job.Address,
	}).Debug("Ingestion job enqueued")

	return job, nil
}

// ActiveWorkers returns the number of jobs currently running
func (q *Queue) ActiveWorkers() int {
	return len(q.workerSem)
}

func (q *Queue) dispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(q.dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.dispatchNext(ctx)
		}
	}
}

// dispatchNext claims queued jobs until the worker pool is full or the
// queue is drained.
func (q *Queue) dispatchNext(ctx context.Context) {
	for {
		select {
		case q.workerSem <- struct{}{}:
		default:
			return
		}

		job, err := q.jobs.ClaimNext(ctx)
		if err != nil {
			q.logger.WithError(err).Error("Failed to claim ingestion job")
			<-q.workerSem
			return
		}
		if job == nil {
			<-q.workerSem
			return
		}

		go func(job *models.IngestJob) {
			defer func() {
				<-q.workerSem
			}()
			q.runJob(ctx, job)
		}(job)
	}
}

func (q *Queue) runJob(ctx context.Context, job *models.IngestJob) {
	logger := q.logger.WithFields(map[string]interface{}{
		"jobId":   job.JobID,
		"address": job.Address,
	})

	var result *Result
	var permanentErr error
	retryResult := retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		r, err := q.engine.IngestAddress(ctx, job.Address, 0)
		if err != nil {
			if !apperrors.IsRetryable(err) {
				// Stop the backoff loop; handled below.
				permanentErr = err
				return nil
			}
			return err
		}
		result = r
		return nil
	})

	if permanentErr != nil || !retryResult.Success {
		err := permanentErr
		if err == nil {
			err = retryResult.LastError
		}
		logger.WithError(err).Error("Ingestion job failed")

		if apperrors.IsRetryable(err) && job.RetryCount < q.maxRetries {
			if requeueErr := q.jobs.Requeue(ctx, job.JobID); requeueErr != nil {
				logger.WithError(requeueErr).Error("Failed to requeue ingestion job")
			}
			return
		}

		if failErr := q.jobs.Fail(ctx, job.JobID, err.Error()); failErr != nil {
			logger.WithError(failErr).Error("Failed to record job failure")
		}
		return
	}

	if err := q.jobs.Complete(ctx, job.JobID, result.TxSeen, result.TxCreated, result.PostsCreated); err != nil {
		logger.WithError(err).Error("Failed to record job completion")
		return
	}

	logger.WithFields(map[string]interface{}{
		"txSeen":       result.TxSeen,
		"txCreated":    result.TxCreated,
		"postsCreated": result.PostsCreated,
	}).Info("Ingestion job completed")

	if q.scheduler != nil && !result.NextUpdateAt.IsZero() {
		if _, err := q.scheduler.EnsureRefreshScheduled(ctx, result.NextUpdateAt); err != nil {
			logger.WithError(err).Warn("Failed to schedule refresh")
		}
	}
}
