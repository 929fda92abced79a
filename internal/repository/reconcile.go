package repository

import (
	"context"

	"reviewhub/internal/cache"
	"reviewhub/internal/models"
	"reviewhub/internal/observability"

	"gorm.io/gorm"
)

// Counter names used in reconcile reports and metrics.
const (
	CounterHelpfulVotes = "helpful_votes"
	CounterReviewCount  = "review_count"
)

// CounterCorrection records one denormalized counter that disagreed with its source rows.
type CounterCorrection struct {
	Counter string `json:"counter"`
	ID      uint   `json:"id"`
	Stored  int64  `json:"stored"`
	Actual  int64  `json:"actual"`
}

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	ReviewsChecked    int                 `json:"reviewsChecked"`
	CategoriesChecked int                 `json:"categoriesChecked"`
	Corrections       []CounterCorrection `json:"corrections"`
	DryRun            bool                `json:"dryRun"`
}

// CounterReconciler recomputes denormalized counters from their source tables.
type CounterReconciler interface {
	Reconcile(ctx context.Context, dryRun bool) (*ReconcileReport, error)
}

type counterReconciler struct {
	db     *gorm.DB
	policy CategoryCountPolicy
}

// NewCounterReconciler creates a reconciler using the same category count
// policy as the review repository.
func NewCounterReconciler(db *gorm.DB, policy CategoryCountPolicy) CounterReconciler {
	return &counterReconciler{db: db, policy: policy}
}

type counterRow struct {
	ID     uint
	Stored int64
	Actual int64
	// AuthorID is only selected for review rows.
	AuthorID string
}

func (r *counterReconciler) helpfulVoteRows(tx *gorm.DB) ([]counterRow, error) {
	var rows []counterRow
	err := tx.Raw(`SELECT r.id AS id, r.author_id AS author_id, r.helpful_votes AS stored,
		(SELECT COUNT(*) FROM review_votes v WHERE v.review_id = r.id AND v.is_helpful = ?) AS actual
		FROM reviews r ORDER BY r.id`, true).Scan(&rows).Error
	return rows, err
}

func (r *counterReconciler) reviewCountRows(tx *gorm.DB) ([]counterRow, error) {
	var rows []counterRow
	query := `SELECT c.id AS id, c.review_count AS stored,
		(SELECT COUNT(*) FROM reviews r WHERE r.category_id = c.id) AS actual
		FROM categories c ORDER BY c.id`
	var args []any
	if r.policy == CountPublishedOnly {
		query = `SELECT c.id AS id, c.review_count AS stored,
		(SELECT COUNT(*) FROM reviews r WHERE r.category_id = c.id AND r.is_draft = ?) AS actual
		FROM categories c ORDER BY c.id`
		args = append(args, false)
	}
	err := tx.Raw(query, args...).Scan(&rows).Error
	return rows, err
}

// Reconcile compares every counter with its source rows and, unless dryRun,
// rewrites the ones that drifted.
func (r *counterReconciler) Reconcile(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	span, ctx := observability.NewSpan(ctx, "repository.counters.Reconcile")
	defer span.End()
	defer observability.TrackQuery("reconcile", "reviews")()

	report := &ReconcileReport{DryRun: dryRun, Corrections: []CounterCorrection{}}
	var staleAuthors []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews, err := r.helpfulVoteRows(tx)
		if err != nil {
			return err
		}
		report.ReviewsChecked = len(reviews)
		for _, row := range reviews {
			if row.Stored == row.Actual {
				continue
			}
			report.Corrections = append(report.Corrections, CounterCorrection{CounterHelpfulVotes, row.ID, row.Stored, row.Actual})
			staleAuthors = append(staleAuthors, row.AuthorID)
			if !dryRun {
				if err := tx.Model(&models.Review{}).Where("id = ?", row.ID).
					UpdateColumn("helpful_votes", row.Actual).Error; err != nil {
					return err
				}
			}
		}

		categories, err := r.reviewCountRows(tx)
		if err != nil {
			return err
		}
		report.CategoriesChecked = len(categories)
		for _, row := range categories {
			if row.Stored == row.Actual {
				continue
			}
			report.Corrections = append(report.Corrections, CounterCorrection{CounterReviewCount, row.ID, row.Stored, row.Actual})
			if !dryRun {
				if err := tx.Model(&models.Category{}).Where("id = ?", row.ID).
					UpdateColumn("review_count", row.Actual).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	if !dryRun && len(report.Corrections) > 0 {
		for _, c := range report.Corrections {
			observability.CounterReconcileCorrections.WithLabelValues(c.Counter).Inc()
		}
		cache.InvalidateCategories(ctx)
		// Author stats sum helpful_votes.
		cache.InvalidateUserStats(ctx, staleAuthors...)
	}
	return report, nil
}
