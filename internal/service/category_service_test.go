package service

import (
	"context"
	"testing"

	"reviewhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	t.Parallel()
	var stored *models.Category
	repo := &categoryRepoStub{
		createFn: func(_ context.Context, c *models.Category) error {
			stored = c
			return nil
		},
	}
	svc := NewCategoryService(repo)

	category, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name: " Home & Garden ", Icon: "leaf", Color: "green",
	})
	require.NoError(t, err)
	assert.Same(t, stored, category)
	assert.Equal(t, "Home & Garden", category.Name)
	assert.Equal(t, "home-garden", category.Slug)
}

func TestCategoryService_CreateCategory_Validation(t *testing.T) {
	t.Parallel()
	svc := NewCategoryService(&categoryRepoStub{})

	tests := []struct {
		name  string
		in    CreateCategoryInput
		field string
	}{
		{"missing name", CreateCategoryInput{Slug: "books", Icon: "book", Color: "blue"}, "name"},
		{"reserved slug", CreateCategoryInput{Name: "API", Icon: "code", Color: "gray"}, "slug"},
		{"missing icon", CreateCategoryInput{Name: "Books", Color: "blue"}, "icon"},
		{"missing color", CreateCategoryInput{Name: "Books", Icon: "book"}, "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCategory(context.Background(), tt.in)
			assertValidationError(t, err)
			assert.Contains(t, err.(*models.AppError).Fields, tt.field)
		})
	}
}

func TestCategoryService_GetBySlugNormalizes(t *testing.T) {
	t.Parallel()
	var asked string
	repo := &categoryRepoStub{
		getBySlugFn: func(_ context.Context, slug string) (*models.Category, error) {
			asked = slug
			return &models.Category{Slug: slug}, nil
		},
	}
	svc := NewCategoryService(repo)

	_, err := svc.GetBySlug(context.Background(), " Travel ")
	require.NoError(t, err)
	assert.Equal(t, "travel", asked)

	_, err = svc.GetBySlug(context.Background(), "not a slug")
	assert.True(t, models.IsNotFound(err))
}

func TestCategoryService_EnsureDefaults(t *testing.T) {
	t.Parallel()
	var got []models.Category
	repo := &categoryRepoStub{
		ensureDefaultsFn: func(_ context.Context, defaults []models.Category) (int, error) {
			got = defaults
			return len(defaults), nil
		},
	}
	svc := NewCategoryService(repo)

	n, err := svc.EnsureDefaults(context.Background(), []CreateCategoryInput{
		{Name: "Restaurants", Slug: "restaurants", Icon: "utensils", Color: "blue"},
		{Name: "Shopping", Icon: "shopping-bag", Color: "orange"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "shopping", got[1].Slug)

	_, err = svc.EnsureDefaults(context.Background(), []CreateCategoryInput{{Name: "Broken"}})
	assertValidationError(t, err)
}
