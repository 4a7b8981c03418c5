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

// ProfileRepository handles profile persistence
type ProfileRepository struct {
	db *PostgresDB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *PostgresDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `address, bio, image,
	website, telegram, discord, twitter, opensea, looksrare, snapshot,
	updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.Address,
		&p.Bio,
		&p.Image,
		&p.Socials.Website,
		&p.Socials.Telegram,
		&p.Socials.Discord,
		&p.Socials.Twitter,
		&p.Socials.Opensea,
		&p.Socials.Looksrare,
		&p.Socials.Snapshot,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByAddress retrieves a profile by wallet address
func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE address = $1`, profileColumns)

	profile, err := scanProfile(r.db.Pool().QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("profile", address)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Update replaces the editable profile fields for an address
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE profiles
		SET bio = $2, image = $3,
			website = $4, telegram = $5, discord = $6, twitter = $7,
			opensea = $8, looksrare = $9, snapshot = $10,
			updated_at = $11
		WHERE address = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		profile.Address,
		profile.Bio,
		profile.Image,
		profile.Socials.Website,
		profile.Socials.Telegram,
		profile.Socials.Discord,
		profile.Socials.Twitter,
		profile.Socials.Opensea,
		profile.Socials.Looksrare,
		profile.Socials.Snapshot,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("profile", profile.Address)
	}

	return nil
}

// GetView retrieves a profile with follower counts and the follow edge
// relative to viewer. viewer may be empty for anonymous requests.
func (r *ProfileRepository) GetView(ctx context.Context, address, viewer string) (*models.ProfileView, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM follows WHERE dest = p.address),
			(SELECT COUNT(*) FROM follows WHERE src = p.address),
			EXISTS(SELECT 1 FROM follows WHERE src = $2 AND dest = p.address)
		FROM profiles p
		WHERE p.address = $1
	`, profileColumns)

	var v models.ProfileView
	err := r.db.Pool().QueryRow(ctx, query, address, viewer).Scan(
		&v.Address,
		&v.Bio,
		&v.Image,
		&v.Socials.Website,
		&v.Socials.Telegram,
		&v.Socials.Discord,
		&v.Socials.Twitter,
		&v.Socials.Opensea,
		&v.Socials.Looksrare,
		&v.Socials.Snapshot,
		&v.UpdatedAt,
		&v.NumFollowers,
		&v.NumFollowing,
		&v.FollowedByMe,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("profile", address)
		}
		return nil, fmt.Errorf("failed to get profile view: %w", err)
	}

	return &v, nil
}

// Explore returns the top profiles ranked by follower count.
func (r *ProfileRepository) Explore(ctx context.Context, viewer string, limit int) ([]*models.ProfileView, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM follows WHERE dest = p.address) AS num_followers,
			(SELECT COUNT(*) FROM follows WHERE src = p.address),
			EXISTS(SELECT 1 FROM follows WHERE src = $1 AND dest = p.address)
		FROM profiles p
		ORDER BY num_followers DESC, p.address
		LIMIT $2
	`, profileColumns)

	rows, err := r.db.Pool().Query(ctx, query, viewer, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list explore profiles: %w", err)
	}
	defer rows.Close()

	var views []*models.ProfileView
	for rows.Next() {
		var v models.ProfileView
		err := rows.Scan(
			&v.Address,
			&v.Bio,
			&v.Image,
			&v.Socials.Website,
			&v.Socials.Telegram,
			&v.Socials.Discord,
			&v.Socials.Twitter,
			&v.Socials.Opensea,
			&v.Socials.Looksrare,
			&v.Socials.Snapshot,
			&v.UpdatedAt,
			&v.NumFollowers,
			&v.NumFollowing,
			&v.FollowedByMe,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		views = append(views, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return views, nil
}
