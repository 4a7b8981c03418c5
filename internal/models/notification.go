package models

import (
	"time"

	"github.com/wallet-feed/internal/types"
)

// Event is the typed payload owned by exactly one notification. Kind is the
// discriminant; Actor is the wallet that performed the action. PostID and
// CommentID are populated per kind:
//
//	comment_on_post      post + comment
//	mentioned_in_post    post
//	mentioned_in_comment post + comment
//	followed             (neither)
//	liked_post           post
//	liked_comment        post + comment
//	repost               post (the share), CommentID unused
type Event struct {
	ID             int64           `json:"id"`
	NotificationID int64           `json:"-"`
	Kind           types.EventKind `json:"kind"`
	Actor          string          `json:"actor"`
	PostID         *int64          `json:"post,omitempty"`
	CommentID      *int64          `json:"comment,omitempty"`
	CreatedAt      time.Time       `json:"created"`
}

// Notification is a per-recipient feed entry owning exactly one event.
// Mutated only to flip Viewed.
type Notification struct {
	ID        int64     `json:"id"`
	Recipient string    `json:"-"`
	Viewed    bool      `json:"viewed"`
	CreatedAt time.Time `json:"created"`
	Event     Event     `json:"event"`
}
