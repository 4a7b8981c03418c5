package service

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/types"
)

func newFollowFixture(known ...string) (*FollowService, *memFollowRepo, *memNotificationRepo) {
	follows := newMemFollowRepo()
	notificationRepo := newMemNotificationRepo()
	svc := NewFollowService(follows, newMemUserChecker(known...), NewNotificationService(notificationRepo, testLogger()))
	return svc, follows, notificationRepo
}

func TestFollowNotifiesFollowee(t *testing.T) {
	ctx := context.Background()
	svc, _, notifications := newFollowFixture(alice, bob)

	follow, err := svc.Follow(ctx, alice, bob)
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if follow.Src != alice || follow.Dest != bob {
		t.Errorf("follow = (%q,%q), want (%q,%q)", follow.Src, follow.Dest, alice, bob)
	}

	followed := notifications.byKind(types.EventFollowed)
	if len(followed) != 1 {
		t.Fatalf("expected 1 followed notification, got %d", len(followed))
	}
	if followed[0].Recipient != bob || followed[0].Event.Actor != alice {
		t.Errorf("notification = (%q,%q), want (%q,%q)", followed[0].Recipient, followed[0].Event.Actor, bob, alice)
	}
}

func TestFollowRejections(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFollowFixture(alice, bob)

	if _, err := svc.Follow(ctx, alice, "not-an-address"); err == nil {
		t.Error("expected error for malformed address")
	}
	if _, err := svc.Follow(ctx, alice, alice); err == nil {
		t.Error("expected error for self-follow")
	}
	// Mixed casing of the caller's own address is still a self-follow.
	if _, err := svc.Follow(ctx, alice, strings.ToLower(alice)); err == nil {
		t.Error("expected error for lowercase self-follow")
	}
	if _, err := svc.Follow(ctx, alice, carol); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found for unknown wallet, got %v", err)
	}

	if _, err := svc.Follow(ctx, alice, bob); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if _, err := svc.Follow(ctx, alice, bob); !apperrors.IsDuplicateAction(err) {
		t.Errorf("expected duplicate action on second follow, got %v", err)
	}
}

func TestUnfollow(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFollowFixture(alice, bob)

	if _, err := svc.Follow(ctx, alice, bob); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	// Address casing normalizes to the same edge.
	if err := svc.Unfollow(ctx, alice, strings.ToLower(bob)); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := svc.Unfollow(ctx, alice, bob); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found on second unfollow, got %v", err)
	}
}

func TestListFollowersAndFollowing(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFollowFixture(alice, bob, carol)

	if _, err := svc.Follow(ctx, alice, carol); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if _, err := svc.Follow(ctx, bob, carol); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	followers, err := svc.ListFollowers(ctx, carol, 1)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if len(followers) != 2 {
		t.Errorf("followers = %d, want 2", len(followers))
	}

	following, err := svc.ListFollowing(ctx, alice, 1)
	if err != nil {
		t.Fatalf("ListFollowing failed: %v", err)
	}
	if len(following) != 1 || following[0] != carol {
		t.Errorf("following = %v, want [%s]", following, carol)
	}

	// Empty results are empty slices, not nil.
	none, err := svc.ListFollowers(ctx, alice, 1)
	if err != nil {
		t.Fatalf("ListFollowers failed: %v", err)
	}
	if none == nil {
		t.Error("expected empty slice for wallet with no followers")
	}
}
