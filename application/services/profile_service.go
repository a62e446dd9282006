package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	"holdthatthought-backend/domain/entities"
	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// ProfileService manages user profiles. Profiles are created lazily on first
// read from the caller's identity claims.
type ProfileService struct {
	profiles ports.ProfileRepository
	logger   *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ports.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// GetOrCreate returns the user's profile, creating it from claims when absent
func (s *ProfileService) GetOrCreate(ctx context.Context, userID, email, displayName, avatarURL string) (*entities.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	profile = entities.NewProfile(userID, email, displayName, avatarURL)
	if err := s.profiles.Put(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("Profile created", zap.String("userId", userID))
	return profile, nil
}

// Get returns another user's profile
func (s *ProfileService) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// UpdateProfileInput carries the editable profile fields; nil leaves a field
// untouched
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
	EmailOptOut *bool
}

// Update applies a partial edit to the caller's own profile
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*entities.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		clean := utils.SanitizeText(*input.DisplayName)
		if clean == "" {
			return nil, apperrors.NewValidationError("display name cannot be empty")
		}
		profile.DisplayName = clean
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = *input.AvatarURL
	}
	if input.Bio != nil {
		profile.Bio = utils.SanitizeText(*input.Bio)
	}
	if input.EmailOptOut != nil {
		profile.EmailOptOut = *input.EmailOptOut
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Put(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
