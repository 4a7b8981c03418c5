package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// IngestJobRepository handles ingestion job persistence. Jobs live in
// Postgres so a restart never loses queued work.
type IngestJobRepository struct {
	db *PostgresDB
}

// NewIngestJobRepository creates a new ingest job repository
func NewIngestJobRepository(db *PostgresDB) *IngestJobRepository {
	return &IngestJobRepository{db: db}
}

// Create enqueues a new job for an address
func (r *IngestJobRepository) Create(ctx context.Context, address string) (*models.IngestJob, error) {
	job := &models.IngestJob{
		JobID:     uuid.New().String(),
		Address:   address,
		Status:    types.IngestStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO ingest_jobs (job_id, address, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool().Exec(ctx, query, job.JobID, job.Address, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest job: %w", err)
	}

	return job, nil
}

// GetByID retrieves a job by id
func (r *IngestJobRepository) GetByID(ctx context.Context, jobID string) (*models.IngestJob, error) {
	query := `
		SELECT job_id, address, status, tx_seen, tx_created, posts_created,
			error, retry_count, created_at, started_at, completed_at
		FROM ingest_jobs
		WHERE job_id = $1
	`

	var job models.IngestJob
	err := r.db.Pool().QueryRow(ctx, query, jobID).Scan(
		&job.JobID,
		&job.Address,
		&job.Status,
		&job.TxSeen,
		&job.TxCreated,
		&job.PostsCreated,
		&job.Error,
		&job.RetryCount,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("ingest job", jobID)
		}
		return nil, fmt.Errorf("failed to get ingest job: %w", err)
	}

	return &job, nil
}

// ClaimNext atomically claims the oldest queued job and marks it
// in_progress. Returns nil when the queue is empty. SKIP LOCKED keeps
// concurrent workers from claiming the same row.
func (r *IngestJobRepository) ClaimNext(ctx context.Context) (*models.IngestJob, error) {
	query := `
		UPDATE ingest_jobs
		SET status = $1, started_at = $2
		WHERE job_id = (
			SELECT job_id FROM ingest_jobs
			WHERE status = $3
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING job_id, address, status, tx_seen, tx_created, posts_created,
			error, retry_count, created_at, started_at, completed_at
	`

	var job models.IngestJob
	err := r.db.Pool().QueryRow(ctx, query,
		types.IngestStatusInProgress, time.Now().UTC(), types.IngestStatusQueued,
	).Scan(
		&job.JobID,
		&job.Address,
		&job.Status,
		&job.TxSeen,
		&job.TxCreated,
		&job.PostsCreated,
		&job.Error,
		&job.RetryCount,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim ingest job: %w", err)
	}

	return &job, nil
}

// Complete marks a job completed and records its counters
func (r *IngestJobRepository) Complete(ctx context.Context, jobID string, txSeen, txCreated, postsCreated int) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2, tx_seen = $3, tx_created = $4, posts_created = $5,
			completed_at = $6
		WHERE job_id = $1
	`

	_, err := r.db.Pool().Exec(ctx, query,
		jobID, types.IngestStatusCompleted, txSeen, txCreated, postsCreated,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete ingest job: %w", err)
	}

	return nil
}

// Fail marks a job failed with an error message
func (r *IngestJobRepository) Fail(ctx context.Context, jobID string, message string) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2, error = $3, completed_at = $4
		WHERE job_id = $1
	`

	_, err := r.db.Pool().Exec(ctx, query,
		jobID, types.IngestStatusFailed, message, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to fail ingest job: %w", err)
	}

	return nil
}

// Requeue puts a failed attempt back in the queue with an incremented
// retry count.
func (r *IngestJobRepository) Requeue(ctx context.Context, jobID string) error {
	query := `
		UPDATE ingest_jobs
		SET status = $2, retry_count = retry_count + 1, started_at = NULL
		WHERE job_id = $1
	`

	_, err := r.db.Pool().Exec(ctx, query, jobID, types.IngestStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to requeue ingest job: %w", err)
	}

	return nil
}

// ListByAddress returns an address's jobs, newest first
func (r *IngestJobRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*models.IngestJob, error) {
	query := `
		SELECT job_id, address, status, tx_seen, tx_created, posts_created,
			error, retry_count, created_at, started_at, completed_at
		FROM ingest_jobs
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.IngestJob
	for rows.Next() {
		var job models.IngestJob
		err := rows.Scan(
			&job.JobID,
			&job.Address,
			&job.Status,
			&job.TxSeen,
			&job.TxCreated,
			&job.PostsCreated,
			&job.Error,
			&job.RetryCount,
			&job.CreatedAt,
			&job.StartedAt,
			&job.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingest job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingest jobs: %w", err)
	}

	return jobs, nil
}
