package service

import (
	"context"
	"testing"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/types"
)

func newPostFixture() (*PostService, *memPostRepo, *memNotificationRepo) {
	posts := newMemPostRepo()
	likes := newMemLikeRepo()
	notifications := newMemNotificationRepo()
	svc := NewPostService(posts, likes, NewNotificationService(notifications, testLogger()))
	return svc, posts, notifications
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	svc, _, notifications := newPostFixture()

	post, err := svc.Create(ctx, alice, CreatePostInput{Text: "gm"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if post.ID == 0 {
		t.Error("expected post to get an id")
	}
	if post.Author != alice {
		t.Errorf("author = %q, want %q", post.Author, alice)
	}
	if len(notifications.notifications) != 0 {
		t.Errorf("expected no notifications for untagged post, got %d", len(notifications.notifications))
	}
}

func TestCreatePostRequiresContent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPostFixture()

	_, err := svc.Create(ctx, alice, CreatePostInput{Text: "   "})
	if err == nil {
		t.Fatal("expected error for empty post")
	}
	if apperrors.GetHTTPStatusCode(err) != 400 {
		t.Errorf("status = %d, want 400", apperrors.GetHTTPStatusCode(err))
	}

	// An image alone is enough.
	if _, err := svc.Create(ctx, alice, CreatePostInput{ImageURL: "https://img.example/x.png"}); err != nil {
		t.Fatalf("image-only post failed: %v", err)
	}
}

func TestCreatePostNotifiesTagged(t *testing.T) {
	ctx := context.Background()
	svc, _, notifications := newPostFixture()

	// Tags are checksummed, self-tags and duplicates dropped.
	post, err := svc.Create(ctx, alice, CreatePostInput{
		Text:        "hey",
		TaggedUsers: []string{bob, alice, bob},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(post.TaggedUsers) != 1 || post.TaggedUsers[0] != bob {
		t.Fatalf("tagged = %v, want [%s]", post.TaggedUsers, bob)
	}

	mentions := notifications.byKind(types.EventMentionedInPost)
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention notification, got %d", len(mentions))
	}
	if mentions[0].Recipient != bob {
		t.Errorf("recipient = %q, want %q", mentions[0].Recipient, bob)
	}
	if mentions[0].Event.Actor != alice {
		t.Errorf("actor = %q, want %q", mentions[0].Event.Actor, alice)
	}
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPostFixture()

	post, err := svc.Create(ctx, alice, CreatePostInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, post.ID, bob, UpdatePostInput{Text: "hijacked"}); !apperrors.IsPermission(err) {
		t.Errorf("expected permission error for non-author edit, got %v", err)
	}

	updated, err := svc.Update(ctx, post.ID, alice, UpdatePostInput{Text: "edited"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Text != "edited" {
		t.Errorf("text = %q, want %q", updated.Text, "edited")
	}
}

func TestDeletePostRemovesNotifications(t *testing.T) {
	ctx := context.Background()
	svc, _, notifications := newPostFixture()

	post, err := svc.Create(ctx, alice, CreatePostInput{Text: "hey", TaggedUsers: []string{bob}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(notifications.notifications) != 1 {
		t.Fatalf("expected 1 notification before delete, got %d", len(notifications.notifications))
	}

	if err := svc.Delete(ctx, post.ID, bob); !apperrors.IsPermission(err) {
		t.Fatalf("expected permission error for non-author delete, got %v", err)
	}
	if err := svc.Delete(ctx, post.ID, alice); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(notifications.notifications) != 0 {
		t.Errorf("expected notifications removed with the post, got %d", len(notifications.notifications))
	}
	if _, err := svc.Get(ctx, post.ID, alice); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestRepost(t *testing.T) {
	ctx := context.Background()
	svc, _, notifications := newPostFixture()

	original, err := svc.Create(ctx, alice, CreatePostInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	share, err := svc.Repost(ctx, original.ID, bob, "")
	if err != nil {
		t.Fatalf("Repost failed: %v", err)
	}
	if !share.IsShare || share.IsQuote {
		t.Errorf("share flags = (%v,%v), want (true,false)", share.IsShare, share.IsQuote)
	}
	if share.RefPost == nil || *share.RefPost != original.ID {
		t.Errorf("share refPost = %v, want %d", share.RefPost, original.ID)
	}

	reposts := notifications.byKind(types.EventRepost)
	if len(reposts) != 1 {
		t.Fatalf("expected 1 repost notification, got %d", len(reposts))
	}
	if reposts[0].Recipient != alice {
		t.Errorf("recipient = %q, want %q", reposts[0].Recipient, alice)
	}
	if reposts[0].Event.PostID == nil || *reposts[0].Event.PostID != share.ID {
		t.Errorf("event post = %v, want share id %d", reposts[0].Event.PostID, share.ID)
	}
}

func TestRepostRejections(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPostFixture()

	original, err := svc.Create(ctx, alice, CreatePostInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A wallet cannot share its own post.
	if _, err := svc.Repost(ctx, original.ID, alice, ""); err == nil {
		t.Error("expected error sharing own post")
	}

	share, err := svc.Repost(ctx, original.ID, bob, "")
	if err != nil {
		t.Fatalf("Repost failed: %v", err)
	}

	// A share of a share is rejected, quote or not.
	if _, err := svc.Repost(ctx, share.ID, carol, ""); err == nil {
		t.Error("expected error sharing a share")
	}
	if _, err := svc.Repost(ctx, share.ID, carol, "look at this"); err == nil {
		t.Error("expected error quoting a share")
	}

	// A second plain share by the same wallet is a duplicate.
	if _, err := svc.Repost(ctx, original.ID, bob, ""); !apperrors.IsDuplicateAction(err) {
		t.Errorf("expected duplicate action on second share, got %v", err)
	}

	// Quotes are not deduplicated.
	if _, err := svc.Repost(ctx, original.ID, bob, "first quote"); err != nil {
		t.Errorf("first quote failed: %v", err)
	}
	if _, err := svc.Repost(ctx, original.ID, bob, "second quote"); err != nil {
		t.Errorf("second quote failed: %v", err)
	}
}

func TestDeleteRepost(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPostFixture()

	original, err := svc.Create(ctx, alice, CreatePostInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Repost(ctx, original.ID, bob, ""); err != nil {
		t.Fatalf("Repost failed: %v", err)
	}

	if err := svc.DeleteRepost(ctx, original.ID, bob); err != nil {
		t.Fatalf("DeleteRepost failed: %v", err)
	}

	// The share is gone, so the same wallet can share again.
	if _, err := svc.Repost(ctx, original.ID, bob, ""); err != nil {
		t.Errorf("re-share after unshare failed: %v", err)
	}

	if err := svc.DeleteRepost(ctx, original.ID, carol); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found unsharing without a share, got %v", err)
	}
}

func TestDeletePostCascadesShares(t *testing.T) {
	ctx := context.Background()
	svc, posts, _ := newPostFixture()

	original, err := svc.Create(ctx, alice, CreatePostInput{Text: "original"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	share, err := svc.Repost(ctx, original.ID, bob, "")
	if err != nil {
		t.Fatalf("Repost failed: %v", err)
	}

	if err := svc.Delete(ctx, original.ID, alice); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := posts.posts[share.ID]; ok {
		t.Error("expected share removed when original is deleted")
	}
}

func TestListByAuthorPaginates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPostFixture()

	for i := 0; i < DefaultPageSize+3; i++ {
		if _, err := svc.Create(ctx, alice, CreatePostInput{Text: "post"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page1, err := svc.ListByAuthor(ctx, alice, alice, 1)
	if err != nil {
		t.Fatalf("ListByAuthor failed: %v", err)
	}
	if len(page1) != DefaultPageSize {
		t.Errorf("page 1 size = %d, want %d", len(page1), DefaultPageSize)
	}

	page2, err := svc.ListByAuthor(ctx, alice, alice, 2)
	if err != nil {
		t.Fatalf("ListByAuthor page 2 failed: %v", err)
	}
	if len(page2) != 3 {
		t.Errorf("page 2 size = %d, want 3", len(page2))
	}
}
