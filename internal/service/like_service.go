package service

import (
	"context"

	"github.com/wallet-feed/internal/models"
)

// LikeRepository interface for like data operations
type LikeRepository interface {
	CreatePostLike(ctx context.Context, postID int64, liker string) (*models.PostLike, error)
	DeletePostLike(ctx context.Context, postID int64, liker string) error
	CountPostLikes(ctx context.Context, postID int64, viewer string) (int, bool, error)
	ListPostLikes(ctx context.Context, postID int64, limit, offset int) ([]*models.PostLike, error)
	CreateCommentLike(ctx context.Context, commentID int64, liker string) (*models.CommentLike, error)
	DeleteCommentLike(ctx context.Context, commentID int64, liker string) error
	CountCommentLikes(ctx context.Context, commentID int64, viewer string) (int, bool, error)
}

// LikeService handles likes on posts and comments. Unlike-then-relike is
// allowed; a second like without an unlike surfaces the repository's
// duplicate-action error.
type LikeService struct {
	likes         LikeRepository
	posts         PostRepository
	comments      CommentRepository
	notifications *NotificationService
}

// NewLikeService creates a new like service
func NewLikeService(likes LikeRepository, posts PostRepository, comments CommentRepository, notifications *NotificationService) *LikeService {
	return &LikeService{
		likes:         likes,
		posts:         posts,
		comments:      comments,
		notifications: notifications,
	}
}

// LikePost records a like on a post and notifies its author
func (s *LikeService) LikePost(ctx context.Context, postID int64, liker string) (*models.PostLike, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	like, err := s.likes.CreatePostLike(ctx, postID, liker)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyLikedPost(ctx, post.Author, liker, postID)

	return like, nil
}

// UnlikePost removes the caller's like from a post
func (s *LikeService) UnlikePost(ctx context.Context, postID int64, liker string) error {
	return s.likes.DeletePostLike(ctx, postID, liker)
}

// ListPostLikes returns a post's likes, newest first
func (s *LikeService) ListPostLikes(ctx context.Context, postID int64, page int) ([]*models.PostLike, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	limit, offset := pageBounds(page, DefaultPageSize)
	likes, err := s.likes.ListPostLikes(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	if likes == nil {
		likes = []*models.PostLike{}
	}
	return likes, nil
}

// LikeComment records a like on a comment and notifies its author
func (s *LikeService) LikeComment(ctx context.Context, commentID int64, liker string) (*models.CommentLike, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	like, err := s.likes.CreateCommentLike(ctx, commentID, liker)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyLikedComment(ctx, comment.Author, liker, comment.PostID, commentID)

	return like, nil
}

// UnlikeComment removes the caller's like from a comment
func (s *LikeService) UnlikeComment(ctx context.Context, commentID int64, liker string) error {
	return s.likes.DeleteCommentLike(ctx, commentID, liker)
}
