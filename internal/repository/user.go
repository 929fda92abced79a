package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"reviewhub/internal/models"
	"reviewhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, identity *models.Identity) (*models.User, error)
	Stats(ctx context.Context, userID string) (models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Upsert creates the user on first sight and refreshes profile fields afterwards.
func (r *userRepository) Upsert(ctx context.Context, identity *models.Identity) (*models.User, error) {
	defer observability.TrackQuery("upsert", "users")()
	now := time.Now()
	user := models.User{
		ID:              identity.UserID,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		ProfileImageURL: identity.ProfileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if identity.Email != "" {
		email := identity.Email
		user.Email = &email
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewFieldValidationError("Email already belongs to another user", map[string]string{
				"email": "already in use",
			})
		}
		return nil, models.NewInternalError(err)
	}

	var stored models.User
	if err := r.db.WithContext(ctx).Where("id = ?", identity.UserID).First(&stored).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stored, nil
}

// Stats aggregates the user's published reviews. Users without published
// reviews get zero values.
func (r *userRepository) Stats(ctx context.Context, userID string) (models.UserStats, error) {
	span, ctx := observability.NewSpan(ctx, "repository.users.Stats")
	defer span.End()
	defer observability.TrackQuery("stats", "reviews")()

	var row struct {
		TotalReviews      int64
		AvgRating         *float64
		TotalHelpfulVotes int64
	}
	err := readDB(r.db).WithContext(ctx).Model(&models.Review{}).
		Select("COUNT(*) AS total_reviews, AVG(rating) AS avg_rating, COALESCE(SUM(helpful_votes), 0) AS total_helpful_votes").
		Where("author_id = ? AND is_draft = ?", userID, false).
		Scan(&row).Error
	if err != nil {
		span.SetError(err)
		return models.UserStats{}, models.NewInternalError(err)
	}

	stats := models.UserStats{
		TotalReviews:      row.TotalReviews,
		TotalHelpfulVotes: row.TotalHelpfulVotes,
	}
	if row.AvgRating != nil {
		stats.AvgRating = math.Round(*row.AvgRating*10) / 10
	}
	return stats, nil
}
