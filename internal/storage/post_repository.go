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

// PostRepository handles post persistence
type PostRepository struct {
	db *PostgresDB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *PostgresDB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and its tag rows in one database transaction.
// Duplicate shares of the same post by the same author surface as
// duplicate-action errors via the partial unique index.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	dbTx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx) // nolint:errcheck // no-op after commit

	query := `
		INSERT INTO posts (author, text, image_url, is_share, is_quote,
			ref_post, ref_tx, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = dbTx.QueryRow(ctx, query,
		post.Author,
		post.Text,
		post.ImageURL,
		post.IsShare,
		post.IsQuote,
		post.RefPost,
		post.RefTx,
		post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateActionError("post already exists for this reference")
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	for _, tagged := range post.TaggedUsers {
		tagQuery := `
			INSERT INTO post_tags (post_id, tagged)
			VALUES ($1, $2)
			ON CONFLICT (post_id, tagged) DO NOTHING
		`
		if _, err := dbTx.Exec(ctx, tagQuery, post.ID, tagged); err != nil {
			return fmt.Errorf("failed to tag user: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// CreateDerived inserts a post derived from an on-chain transaction.
// Idempotent per (author, ref_tx): re-deriving the same transaction is a
// no-op. Returns true when a row was written.
func (r *PostRepository) CreateDerived(ctx context.Context, post *models.Post) (bool, error) {
	query := `
		INSERT INTO posts (author, text, image_url, is_share, is_quote,
			ref_post, ref_tx, created_at)
		VALUES ($1, $2, $3, FALSE, FALSE, NULL, $4, $5)
		ON CONFLICT (author, ref_tx) WHERE ref_tx IS NOT NULL DO NOTHING
		RETURNING id
	`

	err := r.db.Pool().QueryRow(ctx, query,
		post.Author,
		post.Text,
		post.ImageURL,
		post.RefTx,
		post.CreatedAt,
	).Scan(&post.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create derived post: %w", err)
	}

	return true, nil
}

const postColumns = `p.id, p.author, p.text, p.image_url, p.is_share,
	p.is_quote, p.ref_post, p.ref_tx, p.created_at,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID,
		&p.Author,
		&p.Text,
		&p.ImageURL,
		&p.IsShare,
		&p.IsQuote,
		&p.RefPost,
		&p.RefTx,
		&p.CreatedAt,
		&p.NumComments,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a post with its tagged users
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts p WHERE p.id = $1`, postColumns)

	post, err := scanPost(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("post", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := r.loadTags(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Update replaces the text and image of an existing post
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `UPDATE posts SET text = $2, image_url = $3 WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, post.ID, post.Text, post.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("post", fmt.Sprintf("%d", post.ID))
	}

	return nil
}

// Delete removes a post. Comments, likes, tags, shares and owning
// notification events cascade at the database level.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("post", fmt.Sprintf("%d", id))
	}

	return nil
}

// ListByAuthor returns an author's posts, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, author string, limit, offset int) ([]*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM posts p
		WHERE p.author = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, postColumns)

	return r.listPosts(ctx, query, author, limit, offset)
}

// ListFeed returns posts authored by the viewer or anyone the viewer
// follows, newest first.
func (r *PostRepository) ListFeed(ctx context.Context, viewer string, limit, offset int) ([]*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM posts p
		WHERE p.author = $1
			OR p.author IN (SELECT dest FROM follows WHERE src = $1)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`, postColumns)

	return r.listPosts(ctx, query, viewer, limit, offset)
}

func (r *PostRepository) listPosts(ctx context.Context, query, address string, limit, offset int) ([]*models.Post, error) {
	rows, err := r.db.Pool().Query(ctx, query, address, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	for _, post := range posts {
		if err := r.loadTags(ctx, post); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// HasShare checks whether author already shared refPost
func (r *PostRepository) HasShare(ctx context.Context, author string, refPost int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(SELECT 1 FROM posts
			WHERE author = $1 AND ref_post = $2 AND is_share AND NOT is_quote)
	`

	err := r.db.Pool().QueryRow(ctx, query, author, refPost).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check share existence: %w", err)
	}

	return exists, nil
}

// GetShare returns author's plain (non-quote) share of refPost
func (r *PostRepository) GetShare(ctx context.Context, author string, refPost int64) (*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM posts p
		WHERE p.author = $1 AND p.ref_post = $2 AND p.is_share AND NOT p.is_quote
	`, postColumns)

	post, err := scanPost(r.db.Pool().QueryRow(ctx, query, author, refPost))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("repost", fmt.Sprintf("%d", refPost))
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}

	return post, nil
}

func (r *PostRepository) loadTags(ctx context.Context, post *models.Post) error {
	query := `SELECT tagged FROM post_tags WHERE post_id = $1 ORDER BY id`

	rows, err := r.db.Pool().Query(ctx, query, post.ID)
	if err != nil {
		return fmt.Errorf("failed to load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tagged string
		if err := rows.Scan(&tagged); err != nil {
			return fmt.Errorf("failed to scan post tag: %w", err)
		}
		post.TaggedUsers = append(post.TaggedUsers, tagged)
	}

	return rows.Err()
}
