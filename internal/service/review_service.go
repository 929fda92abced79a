// Package service holds the review domain's business rules on top of the repositories.
package service

import (
	"context"

	"reviewhub/internal/cache"
	"reviewhub/internal/featureflags"
	"reviewhub/internal/models"
	"reviewhub/internal/notifications"
	"reviewhub/internal/observability"
	"reviewhub/internal/repository"
	"reviewhub/internal/validation"
)

// EventPublisher publishes review lifecycle events.
type EventPublisher interface {
	PublishReviewEvent(ctx context.Context, event notifications.ReviewEvent) error
}

// CategoryCountPolicy maps feature flags onto the category review_count policy.
func CategoryCountPolicy(flags *featureflags.Manager) repository.CategoryCountPolicy {
	if flags.Enabled(featureflags.ExcludeDraftsFromCategoryCount, "") {
		return repository.CountPublishedOnly
	}
	return repository.CountAllReviews
}

type ReviewService struct {
	reviews repository.ReviewRepository
	events  EventPublisher
}

type CreateReviewInput struct {
	AuthorID string
	validation.ReviewInput
}

func NewReviewService(reviews repository.ReviewRepository, events EventPublisher) *ReviewService {
	return &ReviewService{reviews: reviews, events: events}
}

func (s *ReviewService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]models.ReviewWithRelations, error) {
	if filter.MinRating != nil && (*filter.MinRating < models.MinRating || *filter.MinRating > models.MaxRating) {
		return nil, models.NewFieldValidationError("Invalid filter", map[string]string{
			"minRating": "minRating must be between 1 and 5",
		})
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, models.NewValidationError("limit and offset must not be negative")
	}
	return s.reviews.List(ctx, filter)
}

// GetReview returns a review and counts the view unless viewerID is its author.
func (s *ReviewService) GetReview(ctx context.Context, id uint, viewerID string) (*models.ReviewWithRelations, error) {
	if id == 0 {
		return nil, models.NewValidationError("Invalid review ID")
	}
	review, err := s.reviews.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if viewerID != review.AuthorID {
		observability.ReviewViews.Inc()
	}
	return review, nil
}

func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.AuthorID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.ValidateReview(in.ReviewInput); err != nil {
		return nil, err
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	review := &models.Review{
		Title:      in.Title,
		Content:    in.Content,
		Rating:     in.Rating,
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
		Images:     images,
		IsDraft:    in.IsDraft,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	observability.ReviewsCreated.Inc()
	s.afterWrite(ctx, notifications.EventReviewCreated, review, in.AuthorID, review.CategoryID)
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, id uint, callerID string, patch models.ReviewPatch) (*models.Review, error) {
	if id == 0 {
		return nil, models.NewValidationError("Invalid review ID")
	}
	if err := validation.ValidateReviewPatch(patch); err != nil {
		return nil, err
	}
	review, err := s.reviews.Update(ctx, id, callerID, patch)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, notifications.EventReviewUpdated, review, callerID, review.CategoryID)
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id uint, callerID string) error {
	if id == 0 {
		return models.NewValidationError("Invalid review ID")
	}
	review, err := s.reviews.Delete(ctx, id, callerID)
	if err != nil {
		return err
	}
	s.afterWrite(ctx, notifications.EventReviewDeleted, review, callerID, review.CategoryID)
	return nil
}

// afterWrite runs the post-commit side effects of a review mutation. None of
// them can fail the request.
func (s *ReviewService) afterWrite(ctx context.Context, eventType string, review *models.Review, actorID string, categoryID *uint) {
	cache.InvalidateUserStats(ctx, review.AuthorID)
	// Updates may have moved the review out of a category, so any write drops the list.
	cache.InvalidateCategories(ctx)

	if s.events == nil {
		return
	}
	err := s.events.PublishReviewEvent(ctx, notifications.ReviewEvent{
		Type:       eventType,
		ReviewID:   review.ID,
		AuthorID:   review.AuthorID,
		ActorID:    actorID,
		CategoryID: categoryID,
	})
	if err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish review event",
			"event", eventType, "review_id", review.ID, "error", err)
	}
}
