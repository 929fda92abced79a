package service

import (
	"context"
	"strings"

	"reviewhub/internal/models"
	"reviewhub/internal/repository"
	"reviewhub/internal/validation"
)

type CategoryService struct {
	repo repository.CategoryRepository
}

type CreateCategoryInput struct {
	Name  string
	Slug  string
	Icon  string
	Color string
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validation.ValidateCategorySlug(slug); err != nil {
		return nil, models.NewNotFoundError("Category", slug)
	}
	return s.repo.GetBySlug(ctx, slug)
}

// CreateCategory validates and stores a category, deriving the slug from the
// name when none is given.
func (s *CategoryService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	category, err := buildCategory(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// EnsureDefaults validates each default and inserts the missing ones.
func (s *CategoryService) EnsureDefaults(ctx context.Context, defaults []CreateCategoryInput) (int, error) {
	categories := make([]models.Category, 0, len(defaults))
	for _, in := range defaults {
		category, err := buildCategory(in)
		if err != nil {
			return 0, err
		}
		categories = append(categories, *category)
	}
	return s.repo.EnsureDefaults(ctx, categories)
}

func buildCategory(in CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = validation.Slugify(name)
	}

	fields := map[string]string{}
	if name == "" || len(name) > 100 {
		fields["name"] = "Name must be 1-100 characters"
	}
	if err := validation.ValidateCategorySlug(slug); err != nil {
		fields["slug"] = err.Error()
	}
	if strings.TrimSpace(in.Icon) == "" || len(in.Icon) > 50 {
		fields["icon"] = "Icon must be 1-50 characters"
	}
	if strings.TrimSpace(in.Color) == "" || len(in.Color) > 20 {
		fields["color"] = "Color must be 1-20 characters"
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError("Invalid category", fields)
	}
	return &models.Category{Name: name, Slug: slug, Icon: in.Icon, Color: in.Color}, nil
}
