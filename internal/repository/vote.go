package repository

import (
	"context"
	"errors"

	"reviewhub/internal/models"
	"reviewhub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteOutcome is the result of casting a vote.
type VoteOutcome struct {
	Vote  models.ReviewVote
	Stats models.VoteStats
	// ReviewAuthorID identifies whose helpful-vote total changed.
	ReviewAuthorID string
}

// VoteRepository defines persistence operations for helpfulness votes.
type VoteRepository interface {
	CastVote(ctx context.Context, reviewID uint, userID string, isHelpful bool) (*VoteOutcome, error)
	Stats(ctx context.Context, reviewID uint) (models.VoteStats, error)
	GetVote(ctx context.Context, reviewID uint, userID string) (*models.ReviewVote, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func voteStats(db *gorm.DB, reviewID uint) (models.VoteStats, error) {
	var stats models.VoteStats
	if err := db.Model(&models.ReviewVote{}).
		Where("review_id = ?", reviewID).
		Count(&stats.TotalVotes).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.ReviewVote{}).
		Where("review_id = ? AND is_helpful = ?", reviewID, true).
		Count(&stats.HelpfulVotes).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// CastVote inserts or overwrites the caller's vote and rewrites the review's
// helpful_votes from the vote rows, all in one transaction.
func (r *voteRepository) CastVote(ctx context.Context, reviewID uint, userID string, isHelpful bool) (*VoteOutcome, error) {
	span, ctx := observability.NewSpan(ctx, "repository.votes.CastVote",
		attribute.Int64("review.id", int64(reviewID)))
	defer span.End()
	defer observability.TrackQuery("cast_vote", "review_votes")()

	var outcome VoteOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The review row lock serializes votes on one review, so the recount
		// below sees every vote committed before it.
		var review models.Review
		if err := forUpdate(tx).Select("id", "author_id").First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Review", reviewID)
			}
			return err
		}

		vote := models.ReviewVote{ReviewID: reviewID, UserID: userID, IsHelpful: isHelpful}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_helpful"}),
		}).Create(&vote).Error; err != nil {
			return err
		}

		if err := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).
			First(&outcome.Vote).Error; err != nil {
			return err
		}

		stats, err := voteStats(tx, reviewID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", reviewID).
			UpdateColumn("helpful_votes", stats.HelpfulVotes).Error; err != nil {
			return err
		}

		outcome.Stats = stats
		outcome.ReviewAuthorID = review.AuthorID
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, wrapDBError(err)
	}
	return &outcome, nil
}

func (r *voteRepository) Stats(ctx context.Context, reviewID uint) (models.VoteStats, error) {
	span, ctx := observability.NewSpan(ctx, "repository.votes.Stats",
		attribute.Int64("review.id", int64(reviewID)))
	defer span.End()
	defer observability.TrackQuery("stats", "review_votes")()

	db := readDB(r.db).WithContext(ctx)
	var n int64
	if err := db.Model(&models.Review{}).Where("id = ?", reviewID).Count(&n).Error; err != nil {
		return models.VoteStats{}, models.NewInternalError(err)
	}
	if n == 0 {
		return models.VoteStats{}, models.NewNotFoundError("Review", reviewID)
	}
	stats, err := voteStats(db, reviewID)
	if err != nil {
		return models.VoteStats{}, models.NewInternalError(err)
	}
	return stats, nil
}

func (r *voteRepository) GetVote(ctx context.Context, reviewID uint, userID string) (*models.ReviewVote, error) {
	defer observability.TrackQuery("get_vote", "review_votes")()
	var vote models.ReviewVote
	err := readDB(r.db).WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Vote", reviewID)
		}
		return nil, models.NewInternalError(err)
	}
	return &vote, nil
}
