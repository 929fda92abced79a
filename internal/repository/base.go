// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"reviewhub/internal/database"
	"reviewhub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryCountPolicy selects which reviews count toward Category.ReviewCount.
type CategoryCountPolicy int

const (
	// CountAllReviews counts drafts and published reviews alike.
	CountAllReviews CategoryCountPolicy = iota
	// CountPublishedOnly ignores drafts.
	CountPublishedOnly
)

// readDB routes reads for the global connection to the replica when one is configured.
func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil && primary == database.DB {
		return db
	}
	return primary
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// wrapDBError converts raw persistence failures into internal AppErrors and
// passes AppErrors through untouched.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// forUpdate row-locks the selected rows until the transaction ends.
// SQLite has no row locks; its dialect drops the clause and the database
// lock serializes writers instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockCategory locks a category row for the rest of the transaction and
// reports whether it exists. Counters are recomputed only under this lock, so
// a concurrent writer's count always includes every committed review.
func lockCategory(tx *gorm.DB, categoryID uint) (bool, error) {
	var ids []uint
	if err := forUpdate(tx.Model(&models.Category{})).
		Where("id = ?", categoryID).Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// recountCategory rewrites a category's review_count from the reviews table.
func recountCategory(tx *gorm.DB, categoryID uint, policy CategoryCountPolicy) error {
	if _, err := lockCategory(tx, categoryID); err != nil {
		return err
	}
	var n int64
	q := tx.Model(&models.Review{}).Where("category_id = ?", categoryID)
	if policy == CountPublishedOnly {
		q = q.Where("is_draft = ?", false)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.Category{}).Where("id = ?", categoryID).UpdateColumn("review_count", n).Error
}

func invalidCategoryError(categoryID uint) error {
	return models.NewFieldValidationError("Invalid category", map[string]string{
		"categoryId": fmt.Sprintf("category %d does not exist", categoryID),
	})
}
