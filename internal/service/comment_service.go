package service

import (
	"context"
	"strings"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// CommentRepository interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Delete(ctx context.Context, id int64) error
	ListByPost(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error)
}

// CommentLikeCounter reads comment like counts for enrichment
type CommentLikeCounter interface {
	CountCommentLikes(ctx context.Context, commentID int64, viewer string) (int, bool, error)
}

// CommentView is a comment enriched with like data relative to the viewer
type CommentView struct {
	models.Comment
	NumLikes  int  `json:"numLikes"`
	LikedByMe bool `json:"likedByMe"`
}

// CommentService handles comments on posts
type CommentService struct {
	comments      CommentRepository
	posts         PostRepository
	likes         CommentLikeCounter
	notifications *NotificationService
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentRepository, posts PostRepository, likes CommentLikeCounter, notifications *NotificationService) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		likes:         likes,
		notifications: notifications,
	}
}

// CreateCommentInput represents input for creating a comment
type CreateCommentInput struct {
	Text        string   `json:"text"`
	TaggedUsers []string `json:"taggedUsers"`
}

// Create attaches a comment to a post. The post's author is notified
// unless they are the commenter; tagged users are notified as mentions.
func (s *CommentService) Create(ctx context.Context, postID int64, author string, input CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewInvalidParameterError("text", "comment text is required")
	}
	if len(text) > MaxPostTextLen {
		return nil, apperrors.NewInvalidParameterError("text", "too long")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	tagged, err := normalizeTags(input.TaggedUsers, author)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:      postID,
		Author:      author,
		Text:        text,
		TaggedUsers: tagged,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.notifications.NotifyCommentOnPost(ctx, post.Author, author, postID, comment.ID)
	s.notifications.NotifyMentionedInComment(ctx, tagged, author, postID, comment.ID)

	return comment, nil
}

// Get returns one comment enriched for the viewer
func (s *CommentService) Get(ctx context.Context, id int64, viewer string) (*CommentView, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, comment, viewer)
}

// Delete removes a comment. Author-owned. Notifications referencing the
// comment go first so none outlives its event.
func (s *CommentService) Delete(ctx context.Context, id int64, caller string) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !types.SameAddress(comment.Author, caller) {
		return apperrors.NewPermissionError("only the author can delete a comment")
	}

	if err := s.notifications.DeleteForComment(ctx, id); err != nil {
		return err
	}

	return s.comments.Delete(ctx, id)
}

// ListByPost returns a post's comments, newest first
func (s *CommentService) ListByPost(ctx context.Context, postID int64, viewer string, page int) ([]*CommentView, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	limit, offset := pageBounds(page, DefaultPageSize)
	comments, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]*CommentView, 0, len(comments))
	for _, comment := range comments {
		view, err := s.enrich(ctx, comment, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CommentService) enrich(ctx context.Context, comment *models.Comment, viewer string) (*CommentView, error) {
	numLikes, likedByMe, err := s.likes.CountCommentLikes(ctx, comment.ID, viewer)
	if err != nil {
		return nil, err
	}
	return &CommentView{Comment: *comment, NumLikes: numLikes, LikedByMe: likedByMe}, nil
}
