package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
)

// FollowRepository handles follow edge persistence
type FollowRepository struct {
	db *PostgresDB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *PostgresDB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts a follow edge. A second follow of the same pair surfaces
// as a duplicate-action error via the unique constraint.
func (r *FollowRepository) Create(ctx context.Context, src, dest string) (*models.Follow, error) {
	follow := &models.Follow{
		Src:       src,
		Dest:      dest,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO follows (src, dest, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Pool().Exec(ctx, query, follow.Src, follow.Dest, follow.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewDuplicateActionError("already following this user")
		}
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	return follow, nil
}

// Delete removes a follow edge
func (r *FollowRepository) Delete(ctx context.Context, src, dest string) error {
	query := `DELETE FROM follows WHERE src = $1 AND dest = $2`

	result, err := r.db.Pool().Exec(ctx, query, src, dest)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("follow", fmt.Sprintf("%s->%s", src, dest))
	}

	return nil
}

// Exists checks whether src follows dest
func (r *FollowRepository) Exists(ctx context.Context, src, dest string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE src = $1 AND dest = $2)`

	err := r.db.Pool().QueryRow(ctx, query, src, dest).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}

	return exists, nil
}

// ListFollowers returns the addresses following dest, newest first
func (r *FollowRepository) ListFollowers(ctx context.Context, dest string, limit, offset int) ([]string, error) {
	query := `
		SELECT src FROM follows
		WHERE dest = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.listAddresses(ctx, query, dest, limit, offset)
}

// ListFollowing returns the addresses src follows, newest first
func (r *FollowRepository) ListFollowing(ctx context.Context, src string, limit, offset int) ([]string, error) {
	query := `
		SELECT dest FROM follows
		WHERE src = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.listAddresses(ctx, query, src, limit, offset)
}

func (r *FollowRepository) listAddresses(ctx context.Context, query, address string, limit, offset int) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follows: %w", err)
	}

	return addresses, nil
}
