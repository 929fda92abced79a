package service

import (
	"context"

	"reviewhub/internal/cache"
	"reviewhub/internal/models"
	"reviewhub/internal/notifications"
	"reviewhub/internal/observability"
	"reviewhub/internal/repository"
)

type VoteService struct {
	votes  repository.VoteRepository
	events EventPublisher
}

// CastVoteInput carries IsHelpful as a pointer so a missing field is
// distinguishable from false.
type CastVoteInput struct {
	ReviewID  uint
	UserID    string
	IsHelpful *bool
}

func NewVoteService(votes repository.VoteRepository, events EventPublisher) *VoteService {
	return &VoteService{votes: votes, events: events}
}

// CastVote records or overwrites the caller's vote and returns fresh counts.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (*repository.VoteOutcome, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.ReviewID == 0 {
		return nil, models.NewValidationError("Invalid review ID")
	}
	if in.IsHelpful == nil {
		return nil, models.NewFieldValidationError("Invalid vote", map[string]string{
			"isHelpful": "isHelpful is required and must be a boolean",
		})
	}

	outcome, err := s.votes.CastVote(ctx, in.ReviewID, in.UserID, *in.IsHelpful)
	if err != nil {
		return nil, err
	}

	observability.RecordVote(*in.IsHelpful)
	cache.InvalidateUserStats(ctx, outcome.ReviewAuthorID)

	if s.events != nil {
		helpful := *in.IsHelpful
		err := s.events.PublishReviewEvent(ctx, notifications.ReviewEvent{
			Type:      notifications.EventReviewVoted,
			ReviewID:  in.ReviewID,
			AuthorID:  outcome.ReviewAuthorID,
			ActorID:   in.UserID,
			IsHelpful: &helpful,
		})
		if err != nil {
			observability.Logger.WarnContext(ctx, "failed to publish vote event",
				"review_id", in.ReviewID, "error", err)
		}
	}
	return outcome, nil
}

func (s *VoteService) Stats(ctx context.Context, reviewID uint) (models.VoteStats, error) {
	if reviewID == 0 {
		return models.VoteStats{}, models.NewValidationError("Invalid review ID")
	}
	return s.votes.Stats(ctx, reviewID)
}

// MyVote returns the caller's vote on a review, or NotFound when there is none.
func (s *VoteService) MyVote(ctx context.Context, reviewID uint, userID string) (*models.ReviewVote, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if reviewID == 0 {
		return nil, models.NewValidationError("Invalid review ID")
	}
	return s.votes.GetVote(ctx, reviewID, userID)
}
