package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"reviewhub/internal/models"
	"reviewhub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data operations.
// Mutations take the caller's user id and enforce authorship themselves.
type ReviewRepository interface {
	List(ctx context.Context, filter ReviewFilter) ([]models.ReviewWithRelations, error)
	GetByID(ctx context.Context, id uint, viewerID string) (*models.ReviewWithRelations, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, id uint, callerID string, patch models.ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, id uint, callerID string) (*models.Review, error)
}

type reviewRepository struct {
	db     *gorm.DB
	policy CategoryCountPolicy
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB, policy CategoryCountPolicy) ReviewRepository {
	return &reviewRepository{db: db, policy: policy}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Category")
}

func checkIntegrity(rows []models.ReviewWithRelations) error {
	for i := range rows {
		if rows[i].Author.ID == "" {
			return models.NewInternalError(fmt.Errorf("review %d references missing author %q", rows[i].ID, rows[i].AuthorID))
		}
	}
	return nil
}

func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.ReviewWithRelations, error) {
	span, ctx := observability.NewSpan(ctx, "repository.reviews.List",
		attribute.String("sort", string(filter.SortBy)))
	defer span.End()
	defer observability.TrackQuery("list", "reviews")()

	rows := []models.ReviewWithRelations{}
	q := withRelations(readDB(r.db).WithContext(ctx).Model(&models.ReviewWithRelations{}))
	if err := applyReviewQuery(q, filter).Find(&rows).Error; err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	if err := checkIntegrity(rows); err != nil {
		span.SetError(err)
		return nil, err
	}
	return rows, nil
}

// GetByID loads a review and counts the view unless the viewer is its author.
// An empty viewerID is an anonymous view and is counted.
func (r *reviewRepository) GetByID(ctx context.Context, id uint, viewerID string) (*models.ReviewWithRelations, error) {
	span, ctx := observability.NewSpan(ctx, "repository.reviews.GetByID",
		attribute.Int64("review.id", int64(id)))
	defer span.End()
	defer observability.TrackQuery("get", "reviews")()

	var review models.ReviewWithRelations
	if err := withRelations(r.db.WithContext(ctx)).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	if err := checkIntegrity([]models.ReviewWithRelations{review}); err != nil {
		span.SetError(err)
		return nil, err
	}

	if viewerID == "" || viewerID != review.AuthorID {
		err := r.db.WithContext(ctx).Model(&models.Review{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
		if err != nil {
			span.SetError(err)
			return nil, models.NewInternalError(err)
		}
		review.Views++
	}
	return &review, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	span, ctx := observability.NewSpan(ctx, "repository.reviews.Create")
	defer span.End()
	defer observability.TrackQuery("create", "reviews")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if review.CategoryID != nil {
			ok, err := lockCategory(tx, *review.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				return invalidCategoryError(*review.CategoryID)
			}
		}
		if review.Images == nil {
			review.Images = datatypes.JSONSlice[string]{}
		}
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		if review.CategoryID != nil {
			return recountCategory(tx, *review.CategoryID, r.policy)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
	}
	return wrapDBError(err)
}

// loadOwned locks a review for mutation, enforcing that callerID is its author.
func loadOwned(tx *gorm.DB, id uint, callerID string) (*models.Review, error) {
	var review models.Review
	if err := forUpdate(tx).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, err
	}
	if callerID == "" || review.AuthorID != callerID {
		return nil, models.NewForbiddenError("Only the author can modify this review")
	}
	return &review, nil
}

// targetCategory is the category a review belongs to once patch is applied.
func targetCategory(current *uint, patch models.ReviewPatch) *uint {
	switch {
	case patch.ClearCategory:
		return nil
	case patch.CategoryID != nil:
		return patch.CategoryID
	default:
		return current
	}
}

func (r *reviewRepository) Update(ctx context.Context, id uint, callerID string, patch models.ReviewPatch) (*models.Review, error) {
	span, ctx := observability.NewSpan(ctx, "repository.reviews.Update",
		attribute.Int64("review.id", int64(id)))
	defer span.End()
	defer observability.TrackQuery("update", "reviews")()

	var updated models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadOwned(tx, id, callerID)
		if err != nil {
			return err
		}

		// Both the old and the new category may change membership. Lock them
		// in ID order so two moves in opposite directions cannot deadlock.
		affected := affectedCategories(current.CategoryID, targetCategory(current.CategoryID, patch))
		slices.Sort(affected)
		for _, cid := range affected {
			ok, err := lockCategory(tx, cid)
			if err != nil {
				return err
			}
			if !ok && patch.CategoryID != nil && cid == *patch.CategoryID {
				return invalidCategoryError(cid)
			}
		}

		updates := map[string]any{"updated_at": time.Now()}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Content != nil {
			updates["content"] = *patch.Content
		}
		if patch.Rating != nil {
			updates["rating"] = *patch.Rating
		}
		if patch.IsDraft != nil {
			updates["is_draft"] = *patch.IsDraft
		}
		if patch.Images != nil {
			updates["images"] = datatypes.JSONSlice[string](*patch.Images)
		}
		switch {
		case patch.ClearCategory:
			updates["category_id"] = nil
		case patch.CategoryID != nil:
			updates["category_id"] = *patch.CategoryID
		}

		if err := tx.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}

		for _, cid := range affected {
			if err := recountCategory(tx, cid, r.policy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, wrapDBError(err)
	}
	return &updated, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint, callerID string) (*models.Review, error) {
	span, ctx := observability.NewSpan(ctx, "repository.reviews.Delete",
		attribute.Int64("review.id", int64(id)))
	defer span.End()
	defer observability.TrackQuery("delete", "reviews")()

	var deleted *models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadOwned(tx, id, callerID)
		if err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&models.ReviewVote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Review{}, id).Error; err != nil {
			return err
		}
		if current.CategoryID != nil {
			if err := recountCategory(tx, *current.CategoryID, r.policy); err != nil {
				return err
			}
		}
		deleted = current
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, wrapDBError(err)
	}
	return deleted, nil
}

func affectedCategories(before, after *uint) []uint {
	var ids []uint
	if before != nil {
		ids = append(ids, *before)
	}
	if after != nil && (before == nil || *after != *before) {
		ids = append(ids, *after)
	}
	return ids
}
