package service

import (
	"context"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// FollowRepository interface for follow data operations
type FollowRepository interface {
	Create(ctx context.Context, src, dest string) (*models.Follow, error)
	Delete(ctx context.Context, src, dest string) error
	Exists(ctx context.Context, src, dest string) (bool, error)
	ListFollowers(ctx context.Context, dest string, limit, offset int) ([]string, error)
	ListFollowing(ctx context.Context, src string, limit, offset int) ([]string, error)
}

// UserChecker verifies that a wallet has been seen
type UserChecker interface {
	Exists(ctx context.Context, address string) (bool, error)
}

// FollowService handles follow edges between wallets
type FollowService struct {
	follows       FollowRepository
	users         UserChecker
	notifications *NotificationService
}

// NewFollowService creates a new follow service
func NewFollowService(follows FollowRepository, users UserChecker, notifications *NotificationService) *FollowService {
	return &FollowService{
		follows:       follows,
		users:         users,
		notifications: notifications,
	}
}

// Follow makes src follow dest and notifies dest. Self-follows are
// rejected; a repeated follow surfaces the repository's duplicate error.
func (s *FollowService) Follow(ctx context.Context, src, dest string) (*models.Follow, error) {
	if !types.IsValidAddress(dest) {
		return nil, apperrors.NewInvalidAddressError(dest)
	}
	dest = types.ChecksumAddress(dest)

	if types.SameAddress(src, dest) {
		return nil, apperrors.NewInvalidParameterError("address", "cannot follow yourself")
	}

	exists, err := s.users.Exists(ctx, dest)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("user", dest)
	}

	follow, err := s.follows.Create(ctx, src, dest)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyFollowed(ctx, dest, src)

	return follow, nil
}

// Unfollow removes the follow edge from src to dest
func (s *FollowService) Unfollow(ctx context.Context, src, dest string) error {
	if !types.IsValidAddress(dest) {
		return apperrors.NewInvalidAddressError(dest)
	}
	return s.follows.Delete(ctx, src, types.ChecksumAddress(dest))
}

// ListFollowers returns the wallets following an address
func (s *FollowService) ListFollowers(ctx context.Context, address string, page int) ([]string, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}

	limit, offset := pageBounds(page, DefaultPageSize)
	followers, err := s.follows.ListFollowers(ctx, types.ChecksumAddress(address), limit, offset)
	if err != nil {
		return nil, err
	}
	if followers == nil {
		followers = []string{}
	}
	return followers, nil
}

// ListFollowing returns the wallets an address follows
func (s *FollowService) ListFollowing(ctx context.Context, address string, page int) ([]string, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}

	limit, offset := pageBounds(page, DefaultPageSize)
	following, err := s.follows.ListFollowing(ctx, types.ChecksumAddress(address), limit, offset)
	if err != nil {
		return nil, err
	}
	if following == nil {
		following = []string{}
	}
	return following, nil
}
