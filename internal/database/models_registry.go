package database

import "reviewhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Review{},
		&models.ReviewVote{},
	}
}
