package service

import (
	"context"

	"reviewhub/internal/cache"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// SyncIdentity mirrors the identity provider's profile into the users table.
// A successful sync is remembered for cache.UserProfileTTL so steady traffic
// does not rewrite the row on every request.
func (s *UserService) SyncIdentity(ctx context.Context, identity *models.Identity) error {
	if identity == nil || identity.UserID == "" {
		return models.NewUnauthorizedError("Token has no subject")
	}
	_, err := cache.Aside(ctx, cache.UserProfileKey(identity.UserID), cache.UserProfileTTL,
		func(ctx context.Context) (*models.User, error) {
			return s.userRepo.Upsert(ctx, identity)
		})
	return err
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, models.NewValidationError("Invalid user ID")
	}
	return s.userRepo.GetByID(ctx, id)
}

// Stats returns aggregate statistics over the user's published reviews.
// Unknown users get zero values, matching users with no published reviews.
func (s *UserService) Stats(ctx context.Context, userID string) (models.UserStats, error) {
	if userID == "" {
		return models.UserStats{}, models.NewValidationError("Invalid user ID")
	}
	return cache.Aside(ctx, cache.UserStatsKey(userID), cache.UserStatsTTL,
		func(ctx context.Context) (models.UserStats, error) {
			return s.userRepo.Stats(ctx, userID)
		})
}
