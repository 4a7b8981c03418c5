package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
)

// UserRepository handles user and profile persistence
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate returns the user for an address, creating the user and an
// empty profile on first sight. Addresses must already be checksummed.
// Returns (user, created, error).
func (r *UserRepository) GetOrCreate(ctx context.Context, address string) (*models.User, bool, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO users (address, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (address) DO NOTHING
		RETURNING address, created_at, updated_at
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, address, now).Scan(
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == nil {
		// First sight of this wallet: seed an empty profile alongside.
		profileQuery := `
			INSERT INTO profiles (address, updated_at)
			VALUES ($1, $2)
			ON CONFLICT (address) DO NOTHING
		`
		if _, err := r.db.Pool().Exec(ctx, profileQuery, address, now); err != nil {
			return nil, false, fmt.Errorf("failed to seed profile: %w", err)
		}
		return &user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	existing, err := r.GetByAddress(ctx, address)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByAddress retrieves a user by wallet address
func (r *UserRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	query := `
		SELECT address, created_at, updated_at
		FROM users
		WHERE address = $1
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, address).Scan(
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user", address)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Exists checks if a user exists by address
func (r *UserRepository) Exists(ctx context.Context, address string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE address = $1)`

	err := r.db.Pool().QueryRow(ctx, query, address).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

// ListAddresses returns every known wallet address. Used by the scheduler
// when fanning out refresh jobs.
func (r *UserRepository) ListAddresses(ctx context.Context) ([]string, error) {
	query := `SELECT address FROM users ORDER BY created_at`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM users`

	err := r.db.Pool().QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
