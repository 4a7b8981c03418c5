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

// CommentRepository handles comment persistence
type CommentRepository struct {
	db *PostgresDB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *PostgresDB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and its tag rows in one database transaction
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	dbTx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx) // nolint:errcheck // no-op after commit

	query := `
		INSERT INTO comments (post_id, author, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err = dbTx.QueryRow(ctx, query,
		comment.PostID,
		comment.Author,
		comment.Text,
		comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	for _, tagged := range comment.TaggedUsers {
		tagQuery := `
			INSERT INTO comment_tags (comment_id, tagged)
			VALUES ($1, $2)
			ON CONFLICT (comment_id, tagged) DO NOTHING
		`
		if _, err := dbTx.Exec(ctx, tagQuery, comment.ID, tagged); err != nil {
			return fmt.Errorf("failed to tag user: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// GetByID retrieves a comment with its tagged users
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT id, post_id, author, text, created_at
		FROM comments
		WHERE id = $1
	`

	var comment models.Comment
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.Author,
		&comment.Text,
		&comment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("comment", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if err := r.loadTags(ctx, &comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

// Delete removes a comment. Likes, tags and owning notification events
// cascade at the database level.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("comment", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListByPost returns a post's comments, newest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error) {
	query := `
		SELECT id, post_id, author, text, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.Author,
			&comment.Text,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	for _, comment := range comments {
		if err := r.loadTags(ctx, comment); err != nil {
			return nil, err
		}
	}

	return comments, nil
}

func (r *CommentRepository) loadTags(ctx context.Context, comment *models.Comment) error {
	query := `SELECT tagged FROM comment_tags WHERE comment_id = $1 ORDER BY id`

	rows, err := r.db.Pool().Query(ctx, query, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to load comment tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tagged string
		if err := rows.Scan(&tagged); err != nil {
			return fmt.Errorf("failed to scan comment tag: %w", err)
		}
		comment.TaggedUsers = append(comment.TaggedUsers, tagged)
	}

	return rows.Err()
}
