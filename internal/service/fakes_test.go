package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/logging"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// In-memory repository fakes shared by the service tests. They mirror
// the constraints the real schema enforces: unique actions surface
// duplicate errors, deletes cascade.

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	carol = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, logging.FormatText)
}

type memNotificationRepo struct {
	notifications []*models.Notification
	nextID        int64
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{nextID: 1}
}

func (m *memNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = m.nextID
	m.nextID++
	n.Event.ID = n.ID
	n.Event.NotificationID = n.ID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memNotificationRepo) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotificationRepo) CountUnviewed(ctx context.Context, recipient string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.Recipient == recipient && !n.Viewed {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) CountOwned(ctx context.Context, recipient string, ids []int64) (int, error) {
	// Counts matching rows, like the id = ANY(...) query: a repeated id
	// still matches one row.
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	owned := 0
	for _, n := range m.notifications {
		if _, ok := want[n.ID]; ok && n.Recipient == recipient {
			owned++
		}
	}
	return owned, nil
}

func (m *memNotificationRepo) MarkViewed(ctx context.Context, recipient string, ids []int64) error {
	for _, id := range ids {
		for _, n := range m.notifications {
			if n.ID == id && n.Recipient == recipient {
				n.Viewed = true
			}
		}
	}
	return nil
}

func (m *memNotificationRepo) DeleteForPost(ctx context.Context, postID int64) error {
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.Event.PostID != nil && *n.Event.PostID == postID {
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return nil
}

func (m *memNotificationRepo) DeleteForComment(ctx context.Context, commentID int64) error {
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.Event.CommentID != nil && *n.Event.CommentID == commentID {
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return nil
}

// byKind filters stored notifications for assertions
func (m *memNotificationRepo) byKind(kind types.EventKind) []*models.Notification {
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.Event.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type memPostRepo struct {
	posts   map[int64]*models.Post
	follows map[string][]string
	nextID  int64
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{
		posts:   make(map[int64]*models.Post),
		follows: make(map[string][]string),
		nextID:  1,
	}
}

func (m *memPostRepo) Create(ctx context.Context, post *models.Post) error {
	if post.IsShare && !post.IsQuote && post.RefPost != nil {
		for _, p := range m.posts {
			if p.Author == post.Author && p.IsShare && !p.IsQuote && p.RefPost != nil && *p.RefPost == *post.RefPost {
				return apperrors.NewDuplicateActionError("post already reposted")
			}
		}
	}
	post.ID = m.nextID
	m.nextID++
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	m.posts[post.ID] = post
	return nil
}

func (m *memPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("post", fmt.Sprintf("%d", id))
	}
	copied := *post
	return &copied, nil
}

func (m *memPostRepo) Update(ctx context.Context, post *models.Post) error {
	stored, ok := m.posts[post.ID]
	if !ok {
		return apperrors.NewNotFoundError("post", fmt.Sprintf("%d", post.ID))
	}
	stored.Text = post.Text
	stored.ImageURL = post.ImageURL
	return nil
}

func (m *memPostRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return apperrors.NewNotFoundError("post", fmt.Sprintf("%d", id))
	}
	delete(m.posts, id)
	// Cascade shares of the deleted post.
	for shareID, p := range m.posts {
		if p.RefPost != nil && *p.RefPost == id {
			delete(m.posts, shareID)
		}
	}
	return nil
}

func (m *memPostRepo) ListByAuthor(ctx context.Context, author string, limit, offset int) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range m.posts {
		if p.Author == author {
			out = append(out, p)
		}
	}
	return sortPaginate(out, limit, offset), nil
}

func (m *memPostRepo) ListFeed(ctx context.Context, viewer string, limit, offset int) ([]*models.Post, error) {
	var out []*models.Post
	for _, p := range m.posts {
		if p.Author == viewer || m.followed(viewer, p.Author) {
			out = append(out, p)
		}
	}
	return sortPaginate(out, limit, offset), nil
}

func (m *memPostRepo) followed(viewer, author string) bool {
	for _, dest := range m.follows[viewer] {
		if dest == author {
			return true
		}
	}
	return false
}

func (m *memPostRepo) HasShare(ctx context.Context, author string, refPost int64) (bool, error) {
	for _, p := range m.posts {
		if p.Author == author && p.IsShare && !p.IsQuote && p.RefPost != nil && *p.RefPost == refPost {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPostRepo) GetShare(ctx context.Context, author string, refPost int64) (*models.Post, error) {
	for _, p := range m.posts {
		if p.Author == author && p.IsShare && !p.IsQuote && p.RefPost != nil && *p.RefPost == refPost {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("repost", fmt.Sprintf("%d", refPost))
}

func sortPaginate(posts []*models.Post, limit, offset int) []*models.Post {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if offset >= len(posts) {
		return nil
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}

type memCommentRepo struct {
	comments map[int64]*models.Comment
	nextID   int64
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[int64]*models.Comment), nextID: 1}
}

func (m *memCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = m.nextID
	m.nextID++
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	m.comments[comment.ID] = comment
	return nil
}

func (m *memCommentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("comment", fmt.Sprintf("%d", id))
	}
	copied := *comment
	return &copied, nil
}

func (m *memCommentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return apperrors.NewNotFoundError("comment", fmt.Sprintf("%d", id))
	}
	delete(m.comments, id)
	return nil
}

func (m *memCommentRepo) ListByPost(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memLikeRepo struct {
	postLikes    map[string]*models.PostLike
	commentLikes map[string]*models.CommentLike
	nextID       int64
}

func newMemLikeRepo() *memLikeRepo {
	return &memLikeRepo{
		postLikes:    make(map[string]*models.PostLike),
		commentLikes: make(map[string]*models.CommentLike),
		nextID:       1,
	}
}

func postLikeKey(postID int64, liker string) string {
	return fmt.Sprintf("%d:%s", postID, liker)
}

func (m *memLikeRepo) CreatePostLike(ctx context.Context, postID int64, liker string) (*models.PostLike, error) {
	key := postLikeKey(postID, liker)
	if _, ok := m.postLikes[key]; ok {
		return nil, apperrors.NewDuplicateActionError("post already liked")
	}
	like := &models.PostLike{ID: m.nextID, PostID: postID, Liker: liker, CreatedAt: time.Now().UTC()}
	m.nextID++
	m.postLikes[key] = like
	return like, nil
}

func (m *memLikeRepo) DeletePostLike(ctx context.Context, postID int64, liker string) error {
	key := postLikeKey(postID, liker)
	if _, ok := m.postLikes[key]; !ok {
		return apperrors.NewNotFoundError("post like", fmt.Sprintf("%d", postID))
	}
	delete(m.postLikes, key)
	return nil
}

func (m *memLikeRepo) CountPostLikes(ctx context.Context, postID int64, viewer string) (int, bool, error) {
	count := 0
	liked := false
	for _, like := range m.postLikes {
		if like.PostID == postID {
			count++
			if like.Liker == viewer {
				liked = true
			}
		}
	}
	return count, liked, nil
}

func (m *memLikeRepo) ListPostLikes(ctx context.Context, postID int64, limit, offset int) ([]*models.PostLike, error) {
	var out []*models.PostLike
	for _, like := range m.postLikes {
		if like.PostID == postID {
			out = append(out, like)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memLikeRepo) CreateCommentLike(ctx context.Context, commentID int64, liker string) (*models.CommentLike, error) {
	key := postLikeKey(commentID, liker)
	if _, ok := m.commentLikes[key]; ok {
		return nil, apperrors.NewDuplicateActionError("comment already liked")
	}
	like := &models.CommentLike{ID: m.nextID, CommentID: commentID, Liker: liker, CreatedAt: time.Now().UTC()}
	m.nextID++
	m.commentLikes[key] = like
	return like, nil
}

func (m *memLikeRepo) DeleteCommentLike(ctx context.Context, commentID int64, liker string) error {
	key := postLikeKey(commentID, liker)
	if _, ok := m.commentLikes[key]; !ok {
		return apperrors.NewNotFoundError("comment like", fmt.Sprintf("%d", commentID))
	}
	delete(m.commentLikes, key)
	return nil
}

func (m *memLikeRepo) CountCommentLikes(ctx context.Context, commentID int64, viewer string) (int, bool, error) {
	count := 0
	liked := false
	for _, like := range m.commentLikes {
		if like.CommentID == commentID {
			count++
			if like.Liker == viewer {
				liked = true
			}
		}
	}
	return count, liked, nil
}

type memFollowRepo struct {
	follows map[string]*models.Follow
}

func newMemFollowRepo() *memFollowRepo {
	return &memFollowRepo{follows: make(map[string]*models.Follow)}
}

func followKey(src, dest string) string {
	return src + "->" + dest
}

func (m *memFollowRepo) Create(ctx context.Context, src, dest string) (*models.Follow, error) {
	key := followKey(src, dest)
	if _, ok := m.follows[key]; ok {
		return nil, apperrors.NewDuplicateActionError("already following this user")
	}
	follow := &models.Follow{Src: src, Dest: dest, CreatedAt: time.Now().UTC()}
	m.follows[key] = follow
	return follow, nil
}

func (m *memFollowRepo) Delete(ctx context.Context, src, dest string) error {
	key := followKey(src, dest)
	if _, ok := m.follows[key]; !ok {
		return apperrors.NewNotFoundError("follow", key)
	}
	delete(m.follows, key)
	return nil
}

func (m *memFollowRepo) Exists(ctx context.Context, src, dest string) (bool, error) {
	_, ok := m.follows[followKey(src, dest)]
	return ok, nil
}

func (m *memFollowRepo) ListFollowers(ctx context.Context, dest string, limit, offset int) ([]string, error) {
	var out []string
	for _, f := range m.follows {
		if f.Dest == dest {
			out = append(out, f.Src)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memFollowRepo) ListFollowing(ctx context.Context, src string, limit, offset int) ([]string, error) {
	var out []string
	for _, f := range m.follows {
		if f.Src == src {
			out = append(out, f.Dest)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memUserChecker struct {
	users map[string]bool
}

func newMemUserChecker(addresses ...string) *memUserChecker {
	users := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		users[a] = true
	}
	return &memUserChecker{users: users}
}

func (m *memUserChecker) Exists(ctx context.Context, address string) (bool, error) {
	return m.users[address], nil
}
