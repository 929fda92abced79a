package seed

import (
	"context"
	"fmt"
	"time"

	"reviewhub/internal/models"
	"reviewhub/internal/observability"
	"reviewhub/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures the demo seeder.
type Options struct {
	Users   int
	Reviews int
	// MaxDays spreads review creation times over the past MaxDays days.
	MaxDays int
	// DraftRatio is the share of reviews saved as drafts, 0..1.
	DraftRatio float64
	// Seed makes runs reproducible when non-zero.
	Seed   int64
	Policy repository.CategoryCountPolicy
}

// DemoReport counts what a demo run created.
type DemoReport struct {
	Users   int
	Reviews int
	Votes   int
}

// Seeder generates demo users, reviews and votes through the repositories so
// every denormalized counter stays consistent.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{db: db, opts: opts, faker: gofakeit.New(seed)}
}

// Demo seeds the default categories, then the configured number of users and
// reviews, and has random users vote on each published review.
func (s *Seeder) Demo(ctx context.Context) (*DemoReport, error) {
	observability.LogAsyncOperationStart(ctx, "seed.demo", map[string]any{
		"users": s.opts.Users, "reviews": s.opts.Reviews,
	})

	if _, err := Categories(ctx, s.db); err != nil {
		return nil, err
	}
	var categories []models.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	report := &DemoReport{}
	users := repository.NewUserRepository(s.db)
	userIDs := make([]string, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := users.Upsert(ctx, s.identity())
		if err != nil {
			return nil, fmt.Errorf("create demo user: %w", err)
		}
		userIDs = append(userIDs, user.ID)
		report.Users++
	}
	if len(userIDs) == 0 {
		return report, nil
	}

	reviews := repository.NewReviewRepository(s.db, s.opts.Policy)
	votes := repository.NewVoteRepository(s.db)
	for i := 0; i < s.opts.Reviews; i++ {
		review := s.review(userIDs, categories)
		if err := reviews.Create(ctx, review); err != nil {
			return nil, fmt.Errorf("create demo review: %w", err)
		}
		report.Reviews++
		if review.IsDraft {
			continue
		}

		voters := s.faker.Number(0, len(userIDs))
		for _, idx := range s.faker.Rand.Perm(len(userIDs))[:voters] {
			if _, err := votes.CastVote(ctx, review.ID, userIDs[idx], s.faker.Number(1, 10) <= 7); err != nil {
				return nil, fmt.Errorf("cast demo vote: %w", err)
			}
			report.Votes++
		}
	}

	observability.LogAsyncOperationEnd(ctx, "seed.demo", map[string]any{
		"users": report.Users, "reviews": report.Reviews, "votes": report.Votes,
	})
	return report, nil
}

func (s *Seeder) identity() *models.Identity {
	first, last := s.faker.FirstName(), s.faker.LastName()
	return &models.Identity{
		UserID:          "demo|" + s.faker.UUID(),
		Email:           fmt.Sprintf("%s.%s.%d@example.com", first, last, s.faker.Number(1000, 9999)),
		FirstName:       first,
		LastName:        last,
		ProfileImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
	}
}

func (s *Seeder) review(userIDs []string, categories []models.Category) *models.Review {
	content := s.faker.Paragraph(1, 4, 14, " ")
	for len(content) < models.MinContentLength {
		content += " " + s.faker.Sentence(10)
	}
	title := s.faker.Sentence(s.faker.Number(2, 6))
	if len(title) < models.MinTitleLength {
		title += " review"
	}

	review := &models.Review{
		Title:    title,
		Content:  content,
		Rating:   s.faker.Number(models.MinRating, models.MaxRating),
		AuthorID: userIDs[s.faker.Number(0, len(userIDs)-1)],
		IsDraft:  s.faker.Float64Range(0, 1) < s.opts.DraftRatio,
	}
	if len(categories) > 0 && s.faker.Number(1, 10) > 1 {
		id := categories[s.faker.Number(0, len(categories)-1)].ID
		review.CategoryID = &id
	}
	for n := s.faker.Number(0, 3); n > 0; n-- {
		review.Images = append(review.Images, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID()))
	}

	age := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	review.CreatedAt = time.Now().Add(-age)
	review.UpdatedAt = review.CreatedAt
	return review
}
