package service

import (
	"context"

	apperrors "github.com/wallet-feed/internal/errors"
	"github.com/wallet-feed/internal/models"
	"github.com/wallet-feed/internal/types"
)

// ExploreSize is how many top profiles the explore endpoint surfaces
const ExploreSize = 8

// ProfileRepository interface for profile data operations
type ProfileRepository interface {
	GetByAddress(ctx context.Context, address string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	GetView(ctx context.Context, address, viewer string) (*models.ProfileView, error)
	Explore(ctx context.Context, viewer string, limit int) ([]*models.ProfileView, error)
}

// ProfileService handles profile reads and edits
type ProfileService struct {
	profiles ProfileRepository
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns a profile with relationship counts relative to viewer.
// viewer may be empty for anonymous requests.
func (s *ProfileService) Get(ctx context.Context, address, viewer string) (*models.ProfileView, error) {
	if !types.IsValidAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address)
	}
	return s.profiles.GetView(ctx, types.ChecksumAddress(address), viewer)
}

// UpdateProfileInput represents input for editing a profile
type UpdateProfileInput struct {
	Bio     string         `json:"bio"`
	Image   string         `json:"image"`
	Socials models.Socials `json:"socials"`
}

// Update replaces the caller's profile fields. Profiles are only ever
// edited by their owner; the handler passes the authenticated wallet.
func (s *ProfileService) Update(ctx context.Context, caller string, input UpdateProfileInput) (*models.ProfileView, error) {
	profile := &models.Profile{
		Address: caller,
		Bio:     input.Bio,
		Image:   input.Image,
		Socials: input.Socials,
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	return s.profiles.GetView(ctx, caller, caller)
}

// Explore returns the most-followed profiles
func (s *ProfileService) Explore(ctx context.Context, viewer string) ([]*models.ProfileView, error) {
	views, err := s.profiles.Explore(ctx, viewer, ExploreSize)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []*models.ProfileView{}
	}
	return views, nil
}
