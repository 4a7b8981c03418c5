package service

import (
	"context"
	"strings"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// MaxPostTextLen bounds post and comment bodies
const MaxPostTextLen = 4096

// PostRepository interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
	ListByAuthor(ctx context.Context, author string, limit, offset int) ([]*models.Post, error)
	ListFeed(ctx context.Context, viewer string, limit, offset int) ([]*models.Post, error)
	HasShare(ctx context.Context, author string, refPost int64) (bool, error)
	GetShare(ctx context.Context, author string, refPost int64) (*models.Post, error)
}

// LikeCounter reads like counts for feed enrichment
type LikeCounter interface {
	CountPostLikes(ctx context.Context, postID int64, viewer string) (int, bool, error)
}

// PostView is a post enriched with like data relative to the viewer
type PostView struct {
	models.Post
	NumLikes  int  `json:"numLikes"`
	LikedByMe bool `json:"likedByMe"`
}

// PostService handles post creation, editing and reposting
type PostService struct {
	posts         PostRepository
	likes         LikeCounter
	notifications *NotificationService
}

// NewPostService creates a new post service
func NewPostService(posts PostRepository, likes LikeCounter, notifications *NotificationService) *PostService {
	return &PostService{
		posts:         posts,
		likes:         likes,
		notifications: notifications,
	}
}

// CreatePostInput represents input for creating a post
type CreatePostInput struct {
	Text        string   `json:"text"`
	ImageURL    string   `json:"imgUrl"`
	TaggedUsers []string `json:"taggedUsers"`
}

// Create publishes an original post and notifies tagged users
func (s *PostService) Create(ctx context.Context, author string, input CreatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.ImageURL == "" {
		return nil, apperrors.NewInvalidParameterError("text", "post needs text or an image")
	}
	if len(text) > MaxPostTextLen {
		return nil, apperrors.NewInvalidParameterError("text", "too long")
	}

	tagged, err := normalizeTags(input.TaggedUsers, author)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Author:      author,
		Text:        text,
		ImageURL:    input.ImageURL,
		TaggedUsers: tagged,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.notifications.NotifyMentionedInPost(ctx, tagged, author, post.ID)

	return post, nil
}

// Get returns one post enriched for the viewer
func (s *PostService) Get(ctx context.Context, id int64, viewer string) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, post, viewer)
}

// UpdatePostInput represents input for editing a post
type UpdatePostInput struct {
	Text     string `json:"text"`
	ImageURL string `json:"imgUrl"`
}

// Update edits a post's text and image. Author-owned; shares and derived
// posts keep their references either way.
func (s *PostService) Update(ctx context.Context, id int64, caller string, input UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !types.SameAddress(post.Author, caller) {
		return nil, apperrors.NewPermissionError("only the author can edit a post")
	}

	text := strings.TrimSpace(input.Text)
	if len(text) > MaxPostTextLen {
		return nil, apperrors.NewInvalidParameterError("text", "too long")
	}

	post.Text = text
	post.ImageURL = input.ImageURL
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Delete removes a post. Author-owned. Notifications referencing the
// post go first so none outlives its event.
func (s *PostService) Delete(ctx context.Context, id int64, caller string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !types.SameAddress(post.Author, caller) {
		return apperrors.NewPermissionError("only the author can delete a post")
	}

	if err := s.notifications.DeleteForPost(ctx, id); err != nil {
		return err
	}

	return s.posts.Delete(ctx, id)
}

// ListByAuthor returns a wallet's posts, newest first
func (s *PostService) ListByAuthor(ctx context.Context, author, viewer string, page int) ([]*PostView, error) {
	if !types.IsValidAddress(author) {
		return nil, apperrors.NewInvalidAddressError(author)
	}

	limit, offset := pageBounds(page, DefaultPageSize)
	posts, err := s.posts.ListByAuthor(ctx, types.ChecksumAddress(author), limit, offset)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, posts, viewer)
}

// Repost shares an existing post. A share targets an original (never
// another share, never the caller's own post). A plain share carries no
// text and is unique per (caller, refPost); a quote adds commentary and
// is not deduplicated.
func (s *PostService) Repost(ctx context.Context, refPostID int64, caller string, quoteText string) (*models.Post, error) {
	ref, err := s.posts.GetByID(ctx, refPostID)
	if err != nil {
		return nil, err
	}

	if ref.IsShare {
		return nil, apperrors.NewInvalidParameterError("refPost", "cannot repost a repost")
	}
	if types.SameAddress(ref.Author, caller) {
		return nil, apperrors.NewInvalidParameterError("refPost", "cannot repost your own post")
	}

	quoteText = strings.TrimSpace(quoteText)
	if len(quoteText) > MaxPostTextLen {
		return nil, apperrors.NewInvalidParameterError("text", "too long")
	}

	// One plain share per (author, refPost). Quotes are exempt here and
	// in the partial unique index on posts(author, ref_post).
	isQuote := quoteText != ""
	if !isQuote {
		exists, err := s.posts.HasShare(ctx, caller, refPostID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewDuplicateActionError("post already reposted")
		}
	}

	share := &models.Post{
		Author:  caller,
		Text:    quoteText,
		IsShare: true,
		IsQuote: isQuote,
		RefPost: &refPostID,
	}
	if err := s.posts.Create(ctx, share); err != nil {
		return nil, err
	}

	s.notifications.NotifyRepost(ctx, ref.Author, caller, share.ID)

	return share, nil
}

// DeleteRepost removes the caller's plain share of refPost
func (s *PostService) DeleteRepost(ctx context.Context, refPostID int64, caller string) error {
	share, err := s.posts.GetShare(ctx, caller, refPostID)
	if err != nil {
		return err
	}
	return s.Delete(ctx, share.ID, caller)
}

func (s *PostService) enrich(ctx context.Context, post *models.Post, viewer string) (*PostView, error) {
	numLikes, likedByMe, err := s.likes.CountPostLikes(ctx, post.ID, viewer)
	if err != nil {
		return nil, err
	}
	return &PostView{Post: *post, NumLikes: numLikes, LikedByMe: likedByMe}, nil
}

func (s *PostService) enrichAll(ctx context.Context, posts []*models.Post, viewer string) ([]*PostView, error) {
	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		view, err := s.enrich(ctx, post, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// normalizeTags validates and checksums tagged addresses, dropping
// duplicates and self-tags.
func normalizeTags(tags []string, author string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !types.IsValidAddress(tag) {
			return nil, apperrors.NewInvalidAddressError(tag)
		}
		addr := types.ChecksumAddress(tag)
		if types.SameAddress(addr, author) || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}
