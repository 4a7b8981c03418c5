package service

import (
	"context"
)

// FeedService assembles the authed user's home feed
type FeedService struct {
	posts PostRepository
	likes LikeCounter
}

// NewFeedService creates a new feed service
func NewFeedService(posts PostRepository, likes LikeCounter) *FeedService {
	return &FeedService{
		posts: posts,
		likes: likes,
	}
}

// Get returns the viewer's posts plus posts from everyone they follow,
// newest first, twenty per page.
func (s *FeedService) Get(ctx context.Context, viewer string, page int) ([]*PostView, error) {
	limit, offset := pageBounds(page, DefaultPageSize)

	posts, err := s.posts.ListFeed(ctx, viewer, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		numLikes, likedByMe, err := s.likes.CountPostLikes(ctx, post.ID, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, &PostView{Post: *post, NumLikes: numLikes, LikedByMe: likedByMe})
	}
	return views, nil
}
