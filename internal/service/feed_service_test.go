package service

import (
	"context"
	"testing"
)

func TestFeedIncludesOwnAndFollowedPosts(t *testing.T) {
	ctx := context.Background()
	posts := newMemPostRepo()
	likes := newMemLikeRepo()
	notifications := NewNotificationService(newMemNotificationRepo(), testLogger())
	postSvc := NewPostService(posts, likes, notifications)
	svc := NewFeedService(posts, likes)

	posts.follows[alice] = []string{bob}

	mine, err := postSvc.Create(ctx, alice, CreatePostInput{Text: "mine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	followed, err := postSvc.Create(ctx, bob, CreatePostInput{Text: "followed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Carol is not followed; her post stays out.
	if _, err := postSvc.Create(ctx, carol, CreatePostInput{Text: "stranger"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	feed, err := svc.Get(ctx, alice, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed = %d posts, want 2", len(feed))
	}
	seen := map[int64]bool{}
	for _, view := range feed {
		seen[view.ID] = true
	}
	if !seen[mine.ID] || !seen[followed.ID] {
		t.Errorf("feed missing expected posts, got ids %v", seen)
	}
}

func TestFeedEnrichesLikes(t *testing.T) {
	ctx := context.Background()
	posts := newMemPostRepo()
	likes := newMemLikeRepo()
	notifications := NewNotificationService(newMemNotificationRepo(), testLogger())
	postSvc := NewPostService(posts, likes, notifications)
	likeSvc := NewLikeService(likes, posts, newMemCommentRepo(), notifications)
	svc := NewFeedService(posts, likes)

	post, err := postSvc.Create(ctx, alice, CreatePostInput{Text: "mine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := likeSvc.LikePost(ctx, post.ID, alice); err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}

	feed, err := svc.Get(ctx, alice, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed = %d posts, want 1", len(feed))
	}
	if feed[0].NumLikes != 1 || !feed[0].LikedByMe {
		t.Errorf("enrichment = (%d,%v), want (1,true)", feed[0].NumLikes, feed[0].LikedByMe)
	}
}

func TestFeedPaginates(t *testing.T) {
	ctx := context.Background()
	posts := newMemPostRepo()
	likes := newMemLikeRepo()
	notifications := NewNotificationService(newMemNotificationRepo(), testLogger())
	postSvc := NewPostService(posts, likes, notifications)
	svc := NewFeedService(posts, likes)

	for i := 0; i < DefaultPageSize+5; i++ {
		if _, err := postSvc.Create(ctx, alice, CreatePostInput{Text: "post"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page1, err := svc.Get(ctx, alice, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(page1) != DefaultPageSize {
		t.Errorf("page 1 = %d, want %d", len(page1), DefaultPageSize)
	}
	page2, err := svc.Get(ctx, alice, 2)
	if err != nil {
		t.Fatalf("Get page 2 failed: %v", err)
	}
	if len(page2) != 5 {
		t.Errorf("page 2 = %d, want 5", len(page2))
	}
}
