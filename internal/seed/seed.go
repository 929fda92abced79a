// Package seed loads default categories and generates demo data for
// development databases.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"reviewhub/internal/repository"
	"reviewhub/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed categories.yml
var categoriesYAML []byte

type categoryFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Slug  string `yaml:"slug"`
		Icon  string `yaml:"icon"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
}

// DefaultCategories parses the embedded category list.
func DefaultCategories() ([]service.CreateCategoryInput, error) {
	return parseCategories(categoriesYAML)
}

func parseCategories(raw []byte) ([]service.CreateCategoryInput, error) {
	var file categoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	out := make([]service.CreateCategoryInput, 0, len(file.Categories))
	for _, c := range file.Categories {
		out = append(out, service.CreateCategoryInput{Name: c.Name, Slug: c.Slug, Icon: c.Icon, Color: c.Color})
	}
	return out, nil
}

// Categories inserts any missing default categories and reports how many were created.
func Categories(ctx context.Context, db *gorm.DB) (int, error) {
	defaults, err := DefaultCategories()
	if err != nil {
		return 0, err
	}
	svc := service.NewCategoryService(repository.NewCategoryRepository(db))
	created, err := svc.EnsureDefaults(ctx, defaults)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	return created, nil
}
