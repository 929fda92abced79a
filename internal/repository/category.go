package repository

import (
	"context"
	"errors"

	"reviewhub/internal/cache"
	"reviewhub/internal/models"
	"reviewhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	// EnsureDefaults inserts any missing categories (matched by name or slug)
	// and returns how many were created.
	EnsureDefaults(ctx context.Context, defaults []models.Category) (int, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	return cache.Aside(ctx, cache.CategoriesKey(), cache.CategoriesTTL, func(ctx context.Context) ([]models.Category, error) {
		defer observability.TrackQuery("list", "categories")()
		categories := []models.Category{}
		if err := readDB(r.db).WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return categories, nil
	})
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	defer observability.TrackQuery("get_by_slug", "categories")()
	var category models.Category
	if err := readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Category", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	defer observability.TrackQuery("create", "categories")()
	category.ReviewCount = 0
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewFieldValidationError("Category already exists", map[string]string{
				"slug": "name and slug must be unique",
			})
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *categoryRepository) EnsureDefaults(ctx context.Context, defaults []models.Category) (int, error) {
	defer observability.TrackQuery("ensure_defaults", "categories")()
	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range defaults {
			category := d
			category.ID = 0
			category.ReviewCount = 0
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&category)
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if created > 0 {
		cache.InvalidateCategories(ctx)
	}
	return created, nil
}
