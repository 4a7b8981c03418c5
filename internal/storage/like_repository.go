package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
)

// LikeRepository handles post and comment like persistence
type LikeRepository struct {
	db *PostgresDB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *PostgresDB) *LikeRepository {
	return &LikeRepository{db: db}
}

// CreatePostLike inserts a like on a post. A second like by the same
// wallet surfaces as a duplicate-action error via the unique constraint.
func (r *LikeRepository) CreatePostLike(ctx context.Context, postID int64, liker string) (*models.PostLike, error) {
	like := &models.PostLike{
		PostID:    postID,
		Liker:     liker,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO post_likes (post_id, liker, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.Pool().QueryRow(ctx, query, like.PostID, like.Liker, like.CreatedAt).Scan(&like.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewDuplicateActionError("post already liked")
		}
		return nil, fmt.Errorf("failed to like post: %w", err)
	}

	return like, nil
}

// DeletePostLike removes a like from a post
func (r *LikeRepository) DeletePostLike(ctx context.Context, postID int64, liker string) error {
	query := `DELETE FROM post_likes WHERE post_id = $1 AND liker = $2`

	result, err := r.db.Pool().Exec(ctx, query, postID, liker)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("post like", fmt.Sprintf("%d", postID))
	}

	return nil
}

// CountPostLikes returns the number of likes on a post and whether viewer
// is among the likers.
func (r *LikeRepository) CountPostLikes(ctx context.Context, postID int64, viewer string) (int, bool, error) {
	var count int
	var likedByMe bool

	query := `
		SELECT COUNT(*),
			COALESCE(bool_or(liker = $2), FALSE)
		FROM post_likes
		WHERE post_id = $1
	`

	err := r.db.Pool().QueryRow(ctx, query, postID, viewer).Scan(&count, &likedByMe)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count post likes: %w", err)
	}

	return count, likedByMe, nil
}

// ListPostLikes returns the likes on a post, newest first
func (r *LikeRepository) ListPostLikes(ctx context.Context, postID int64, limit, offset int) ([]*models.PostLike, error) {
	query := `
		SELECT id, post_id, liker, created_at
		FROM post_likes
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list post likes: %w", err)
	}
	defer rows.Close()

	var likes []*models.PostLike
	for rows.Next() {
		var like models.PostLike
		if err := rows.Scan(&like.ID, &like.PostID, &like.Liker, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post like: %w", err)
		}
		likes = append(likes, &like)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post likes: %w", err)
	}

	return likes, nil
}

// CreateCommentLike inserts a like on a comment. A second like by the same
// wallet surfaces as a duplicate-action error via the unique constraint.
func (r *LikeRepository) CreateCommentLike(ctx context.Context, commentID int64, liker string) (*models.CommentLike, error) {
	like := &models.CommentLike{
		CommentID: commentID,
		Liker:     liker,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO comment_likes (comment_id, liker, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.Pool().QueryRow(ctx, query, like.CommentID, like.Liker, like.CreatedAt).Scan(&like.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewDuplicateActionError("comment already liked")
		}
		return nil, fmt.Errorf("failed to like comment: %w", err)
	}

	return like, nil
}

// DeleteCommentLike removes a like from a comment
func (r *LikeRepository) DeleteCommentLike(ctx context.Context, commentID int64, liker string) error {
	query := `DELETE FROM comment_likes WHERE comment_id = $1 AND liker = $2`

	result, err := r.db.Pool().Exec(ctx, query, commentID, liker)
	if err != nil {
		return fmt.Errorf("failed to unlike comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("comment like", fmt.Sprintf("%d", commentID))
	}

	return nil
}

// CountCommentLikes returns the number of likes on a comment and whether
// viewer is among the likers.
func (r *LikeRepository) CountCommentLikes(ctx context.Context, commentID int64, viewer string) (int, bool, error) {
	var count int
	var likedByMe bool

	query := `
		SELECT COUNT(*),
			COALESCE(bool_or(liker = $2), FALSE)
		FROM comment_likes
		WHERE comment_id = $1
	`

	err := r.db.Pool().QueryRow(ctx, query, commentID, viewer).Scan(&count, &likedByMe)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count comment likes: %w", err)
	}

	return count, likedByMe, nil
}
