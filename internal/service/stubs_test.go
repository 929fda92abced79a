package service

import (
	"context"
	"sync"
	"testing"

	"reviewhub/internal/models"
	"reviewhub/internal/notifications"
	"reviewhub/internal/repository"

	"github.com/stretchr/testify/require"
)

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	listFn    func(context.Context, repository.ReviewFilter) ([]models.ReviewWithRelations, error)
	getByIDFn func(context.Context, uint, string) (*models.ReviewWithRelations, error)
	createFn  func(context.Context, *models.Review) error
	updateFn  func(context.Context, uint, string, models.ReviewPatch) (*models.Review, error)
	deleteFn  func(context.Context, uint, string) (*models.Review, error)
}

func (s *reviewRepoStub) List(ctx context.Context, f repository.ReviewFilter) ([]models.ReviewWithRelations, error) {
	return s.listFn(ctx, f)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id uint, viewerID string) (*models.ReviewWithRelations, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *reviewRepoStub) Create(ctx context.Context, r *models.Review) error {
	return s.createFn(ctx, r)
}
func (s *reviewRepoStub) Update(ctx context.Context, id uint, callerID string, p models.ReviewPatch) (*models.Review, error) {
	return s.updateFn(ctx, id, callerID, p)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id uint, callerID string) (*models.Review, error) {
	return s.deleteFn(ctx, id, callerID)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		listFn: func(_ context.Context, _ repository.ReviewFilter) ([]models.ReviewWithRelations, error) {
			return []models.ReviewWithRelations{}, nil
		},
		getByIDFn: func(_ context.Context, id uint, _ string) (*models.ReviewWithRelations, error) {
			return &models.ReviewWithRelations{Review: models.Review{ID: id, AuthorID: "author"}}, nil
		},
		createFn: func(_ context.Context, r *models.Review) error { r.ID = 1; return nil },
		updateFn: func(_ context.Context, id uint, callerID string, _ models.ReviewPatch) (*models.Review, error) {
			return &models.Review{ID: id, AuthorID: callerID}, nil
		},
		deleteFn: func(_ context.Context, id uint, callerID string) (*models.Review, error) {
			return &models.Review{ID: id, AuthorID: callerID}, nil
		},
	}
}

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	castVoteFn func(context.Context, uint, string, bool) (*repository.VoteOutcome, error)
	statsFn    func(context.Context, uint) (models.VoteStats, error)
	getVoteFn  func(context.Context, uint, string) (*models.ReviewVote, error)
}

func (s *voteRepoStub) CastVote(ctx context.Context, reviewID uint, userID string, helpful bool) (*repository.VoteOutcome, error) {
	return s.castVoteFn(ctx, reviewID, userID, helpful)
}
func (s *voteRepoStub) Stats(ctx context.Context, reviewID uint) (models.VoteStats, error) {
	return s.statsFn(ctx, reviewID)
}
func (s *voteRepoStub) GetVote(ctx context.Context, reviewID uint, userID string) (*models.ReviewVote, error) {
	return s.getVoteFn(ctx, reviewID, userID)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn func(context.Context, string) (*models.User, error)
	upsertFn  func(context.Context, *models.Identity) (*models.User, error)
	statsFn   func(context.Context, string) (models.UserStats, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) Upsert(ctx context.Context, identity *models.Identity) (*models.User, error) {
	return s.upsertFn(ctx, identity)
}
func (s *userRepoStub) Stats(ctx context.Context, userID string) (models.UserStats, error) {
	return s.statsFn(ctx, userID)
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn           func(context.Context) ([]models.Category, error)
	getBySlugFn      func(context.Context, string) (*models.Category, error)
	createFn         func(context.Context, *models.Category) error
	ensureDefaultsFn func(context.Context, []models.Category) (int, error)
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) EnsureDefaults(ctx context.Context, defaults []models.Category) (int, error) {
	return s.ensureDefaultsFn(ctx, defaults)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.ReviewEvent
	err    error
}

func (p *recordingPublisher) PublishReviewEvent(_ context.Context, e notifications.ReviewEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsValidation(err), "expected validation error, got %v", err)
}

func ptr[T any](v T) *T {
	return &v
}
