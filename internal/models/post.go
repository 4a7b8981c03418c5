package models

import "time"

// Post is a feed entry authored by a wallet. Posts either carry original
// content, reference another post (quote or share) or reference an on-chain
// transaction (derived at ingestion time).
//
// Invariants enforced by service + storage:
//   - IsShare implies exactly one RefPost that is itself not a share
//   - at most one share of a given RefPost per author
//   - a post never references itself, and a share never targets the
//     author's own post
//   - at most one derived (non-share) post per (author, RefTx)
type Post struct {
	ID          int64     `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	ImageURL    string    `json:"imgUrl"`
	IsShare     bool      `json:"isShare"`
	IsQuote     bool      `json:"isQuote"`
	RefPost     *int64    `json:"refPost"`
	RefTx       *int64    `json:"refTx"`
	CreatedAt   time.Time `json:"created"`
	TaggedUsers []string  `json:"taggedUsers"`

	NumComments int `json:"numComments"`
}

// Comment is a reply attached to a post
type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created"`
	TaggedUsers []string  `json:"taggedUsers"`
}

// PostLike records one wallet liking one post. Unique on (post, liker).
type PostLike struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post"`
	Liker     string    `json:"liker"`
	CreatedAt time.Time `json:"created"`
}

// CommentLike records one wallet liking one comment. Unique on
// (comment, liker).
type CommentLike struct {
	ID        int64     `json:"id"`
	CommentID int64     `json:"comment"`
	Liker     string    `json:"liker"`
	CreatedAt time.Time `json:"created"`
}
