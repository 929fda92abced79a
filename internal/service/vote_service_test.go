package service

import (
	"context"
	"testing"

	"reviewhub/internal/cache"
	"reviewhub/internal/models"
	"reviewhub/internal/notifications"
	"reviewhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		castVoteFn: func(_ context.Context, reviewID uint, userID string, helpful bool) (*repository.VoteOutcome, error) {
			stats := models.VoteStats{TotalVotes: 1}
			if helpful {
				stats.HelpfulVotes = 1
			}
			return &repository.VoteOutcome{
				Vote:           models.ReviewVote{ReviewID: reviewID, UserID: userID, IsHelpful: helpful},
				Stats:          stats,
				ReviewAuthorID: "alice",
			}, nil
		},
		statsFn: func(context.Context, uint) (models.VoteStats, error) { return models.VoteStats{}, nil },
		getVoteFn: func(_ context.Context, reviewID uint, _ string) (*models.ReviewVote, error) {
			return nil, models.NewNotFoundError("Vote", reviewID)
		},
	}
}

func TestVoteService_CastVote_Validation(t *testing.T) {
	t.Parallel()
	svc := NewVoteService(newVoteRepo(), nil)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, CastVoteInput{ReviewID: 1, UserID: "bob"})
	assertValidationError(t, err)

	_, err = svc.CastVote(ctx, CastVoteInput{ReviewID: 0, UserID: "bob", IsHelpful: ptr(true)})
	assertValidationError(t, err)

	_, err = svc.CastVote(ctx, CastVoteInput{ReviewID: 1, IsHelpful: ptr(true)})
	require.Error(t, err)
	assert.False(t, models.IsValidation(err))
}

func TestVoteService_CastVote(t *testing.T) {
	mr := useMiniredis(t)
	mr.Set(cache.UserStatsKey("alice"), "{}")
	mr.Set(cache.UserStatsKey("bob"), "{}")

	events := &recordingPublisher{}
	svc := NewVoteService(newVoteRepo(), events)

	outcome, err := svc.CastVote(context.Background(), CastVoteInput{ReviewID: 5, UserID: "bob", IsHelpful: ptr(false)})
	require.NoError(t, err)
	assert.False(t, outcome.Vote.IsHelpful)
	assert.Equal(t, int64(0), outcome.Stats.HelpfulVotes)

	assert.False(t, mr.Exists(cache.UserStatsKey("alice")), "the review author's stats changed")
	assert.True(t, mr.Exists(cache.UserStatsKey("bob")), "the voter's stats did not")

	require.Equal(t, []string{notifications.EventReviewVoted}, events.types())
	assert.Equal(t, "bob", events.events[0].ActorID)
	assert.False(t, *events.events[0].IsHelpful)
}

func TestVoteService_CastVote_PropagatesNotFound(t *testing.T) {
	t.Parallel()
	repo := newVoteRepo()
	repo.castVoteFn = func(_ context.Context, reviewID uint, _ string, _ bool) (*repository.VoteOutcome, error) {
		return nil, models.NewNotFoundError("Review", reviewID)
	}
	events := &recordingPublisher{}
	svc := NewVoteService(repo, events)

	_, err := svc.CastVote(context.Background(), CastVoteInput{ReviewID: 5, UserID: "bob", IsHelpful: ptr(true)})
	assert.True(t, models.IsNotFound(err))
	assert.Empty(t, events.types())
}

func TestVoteService_MyVote(t *testing.T) {
	t.Parallel()
	svc := NewVoteService(newVoteRepo(), nil)

	_, err := svc.MyVote(context.Background(), 5, "bob")
	assert.True(t, models.IsNotFound(err))

	_, err = svc.MyVote(context.Background(), 0, "bob")
	assertValidationError(t, err)
}
