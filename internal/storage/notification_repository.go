package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/wallet-feed/internal/models"
)

// NotificationRepository handles notification and event persistence
type NotificationRepository struct {
	db *PostgresDB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *PostgresDB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification and its owning event in one database
// transaction. A notification never exists without its event.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.Event.CreatedAt = now

	dbTx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx) // nolint:errcheck // no-op after commit

	notifQuery := `
		INSERT INTO notifications (recipient, viewed, created_at)
		VALUES ($1, FALSE, $2)
		RETURNING id
	`
	if err := dbTx.QueryRow(ctx, notifQuery, n.Recipient, n.CreatedAt).Scan(&n.ID); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	eventQuery := `
		INSERT INTO events (notification_id, kind, actor, post_id, comment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = dbTx.QueryRow(ctx, eventQuery,
		n.ID,
		n.Event.Kind,
		n.Event.Actor,
		n.Event.PostID,
		n.Event.CommentID,
		n.Event.CreatedAt,
	).Scan(&n.Event.ID)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	n.Event.NotificationID = n.ID

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// ListByRecipient returns a recipient's notifications with their events,
// newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT n.id, n.recipient, n.viewed, n.created_at,
			e.id, e.kind, e.actor, e.post_id, e.comment_id, e.created_at
		FROM notifications n
		JOIN events e ON e.notification_id = n.id
		WHERE n.recipient = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, recipient, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.Recipient,
			&n.Viewed,
			&n.CreatedAt,
			&n.Event.ID,
			&n.Event.Kind,
			&n.Event.Actor,
			&n.Event.PostID,
			&n.Event.CommentID,
			&n.Event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Event.NotificationID = n.ID
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnviewed returns the number of unviewed notifications for a recipient
func (r *NotificationRepository) CountUnviewed(ctx context.Context, recipient string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND NOT viewed`

	err := r.db.Pool().QueryRow(ctx, query, recipient).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unviewed notifications: %w", err)
	}

	return count, nil
}

// CountOwned returns how many of the given notification ids belong to
// recipient.
func (r *NotificationRepository) CountOwned(ctx context.Context, recipient string, ids []int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND id = ANY($2)`

	err := r.db.Pool().QueryRow(ctx, query, recipient, ids).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned notifications: %w", err)
	}

	return count, nil
}

// DeleteForPost removes notifications whose event references a post.
// Called before post deletion so no notification outlives its event.
func (r *NotificationRepository) DeleteForPost(ctx context.Context, postID int64) error {
	query := `
		DELETE FROM notifications
		WHERE id IN (SELECT notification_id FROM events WHERE post_id = $1)
	`

	if _, err := r.db.Pool().Exec(ctx, query, postID); err != nil {
		return fmt.Errorf("failed to delete notifications for post: %w", err)
	}

	return nil
}

// DeleteForComment removes notifications whose event references a comment
func (r *NotificationRepository) DeleteForComment(ctx context.Context, commentID int64) error {
	query := `
		DELETE FROM notifications
		WHERE id IN (SELECT notification_id FROM events WHERE comment_id = $1)
	`

	if _, err := r.db.Pool().Exec(ctx, query, commentID); err != nil {
		return fmt.Errorf("failed to delete notifications for comment: %w", err)
	}

	return nil
}

// MarkViewed flips viewed on the given notifications for recipient
func (r *NotificationRepository) MarkViewed(ctx context.Context, recipient string, ids []int64) error {
	query := `UPDATE notifications SET viewed = TRUE WHERE recipient = $1 AND id = ANY($2)`

	if _, err := r.db.Pool().Exec(ctx, query, recipient, ids); err != nil {
		return fmt.Errorf("failed to mark notifications viewed: %w", err)
	}

	return nil
}
