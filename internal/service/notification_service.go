// Package service implements the social feed's business logic on top of
// the storage repositories.
package service

import (
	"context"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// Repository interfaces for dependency injection

// NotificationRepository interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*models.Notification, error)
	CountUnviewed(ctx context.Context, recipient string) (int, error)
	CountOwned(ctx context.Context, recipient string, ids []int64) (int, error)
	MarkViewed(ctx context.Context, recipient string, ids []int64) error
	DeleteForPost(ctx context.Context, postID int64) error
	DeleteForComment(ctx context.Context, commentID int64) error
}

// NotificationService fans actions out into per-recipient notifications
// and serves the notification feed. Action services call the typed
// notify methods explicitly; there is no implicit event wiring. Dedup is
// not done here: the uniqueness of the underlying action (one like per
// target, one follow per pair, one share per reference) bounds how many
// notifications an actor can generate.
type NotificationService struct {
	notifications NotificationRepository
	logger        *logging.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications NotificationRepository, logger *logging.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// notify writes one notification owning one typed event. Self-directed
// events are dropped. Fanout failures are logged, not returned: the
// action that triggered them has already committed.
func (s *NotificationService) notify(ctx context.Context, recipient string, event models.Event) {
	if types.SameAddress(recipient, event.Actor) {
		return
	}

	n := &models.Notification{
		Recipient: recipient,
		Event:     event,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"recipient": recipient,
			"kind":      event.Kind,
		}).Error("Failed to create notification")
	}
}

// NotifyCommentOnPost tells a post's author about a new comment
func (s *NotificationService) NotifyCommentOnPost(ctx context.Context, postAuthor, actor string, postID, commentID int64) {
	s.notify(ctx, postAuthor, models.Event{
		Kind:      types.EventCommentOnPost,
		Actor:     actor,
		PostID:    &postID,
		CommentID: &commentID,
	})
}

// NotifyMentionedInPost tells each tagged user about a post mention
func (s *NotificationService) NotifyMentionedInPost(ctx context.Context, tagged []string, actor string, postID int64) {
	for _, recipient := range tagged {
		s.notify(ctx, recipient, models.Event{
			Kind:   types.EventMentionedInPost,
			Actor:  actor,
			PostID: &postID,
		})
	}
}

// NotifyMentionedInComment tells each tagged user about a comment mention
func (s *NotificationService) NotifyMentionedInComment(ctx context.Context, tagged []string, actor string, postID, commentID int64) {
	for _, recipient := range tagged {
		s.notify(ctx, recipient, models.Event{
			Kind:      types.EventMentionedInComment,
			Actor:     actor,
			PostID:    &postID,
			CommentID: &commentID,
		})
	}
}

// NotifyFollowed tells a user about a new follower
func (s *NotificationService) NotifyFollowed(ctx context.Context, followee, actor string) {
	s.notify(ctx, followee, models.Event{
		Kind:  types.EventFollowed,
		Actor: actor,
	})
}

// NotifyLikedPost tells a post's author about a like
func (s *NotificationService) NotifyLikedPost(ctx context.Context, postAuthor, actor string, postID int64) {
	s.notify(ctx, postAuthor, models.Event{
		Kind:   types.EventLikedPost,
		Actor:  actor,
		PostID: &postID,
	})
}

// NotifyLikedComment tells a comment's author about a like
func (s *NotificationService) NotifyLikedComment(ctx context.Context, commentAuthor, actor string, postID, commentID int64) {
	s.notify(ctx, commentAuthor, models.Event{
		Kind:      types.EventLikedComment,
		Actor:     actor,
		PostID:    &postID,
		CommentID: &commentID,
	})
}

// NotifyRepost tells a post's author about a repost. postID references
// the share so the recipient can navigate to it.
func (s *NotificationService) NotifyRepost(ctx context.Context, originalAuthor, actor string, sharePostID int64) {
	s.notify(ctx, originalAuthor, models.Event{
		Kind:   types.EventRepost,
		Actor:  actor,
		PostID: &sharePostID,
	})
}

// List returns the caller's notifications, newest first
func (s *NotificationService) List(ctx context.Context, recipient string, page, pageSize int) ([]*models.Notification, error) {
	limit, offset := pageBounds(page, pageSize)

	notifications, err := s.notifications.ListByRecipient(ctx, recipient, limit, offset)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

// CountUnviewed returns the caller's unviewed notification count
func (s *NotificationService) CountUnviewed(ctx context.Context, recipient string) (int, error) {
	return s.notifications.CountUnviewed(ctx, recipient)
}

// MarkViewed flips viewed on the given notifications. All-or-nothing: if
// any id belongs to someone else the whole call is rejected.
func (s *NotificationService) MarkViewed(ctx context.Context, recipient string, ids []int64) error {
	// Repeated ids collapse to one row in the ownership count, so compare
	// against the distinct set.
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	owned, err := s.notifications.CountOwned(ctx, recipient, ids)
	if err != nil {
		return err
	}
	if owned != len(ids) {
		return apperrors.NewPermissionError("cannot mark notifications you do not own")
	}

	return s.notifications.MarkViewed(ctx, recipient, ids)
}

// DeleteForPost removes notifications referencing a post. Called by the
// post service before deleting the post itself.
func (s *NotificationService) DeleteForPost(ctx context.Context, postID int64) error {
	return s.notifications.DeleteForPost(ctx, postID)
}

// DeleteForComment removes notifications referencing a comment
func (s *NotificationService) DeleteForComment(ctx context.Context, commentID int64) error {
	return s.notifications.DeleteForComment(ctx, commentID)
}

// uniqueIDs drops repeated ids, preserving first-seen order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DefaultPageSize is the feed page length
const DefaultPageSize = 20

// pageBounds converts 1-based page / pageSize into limit and offset
func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
