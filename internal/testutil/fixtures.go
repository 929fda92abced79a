package testutil

import (
	"strings"
	"testing"
	"time"

	"reviewhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseTime anchors fixture timestamps so ordering assertions are deterministic.
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// ValidContent returns review content comfortably above the minimum length.
func ValidContent() string {
	content := gofakeit.Paragraph(1, 4, 12, " ")
	for len(content) < models.MinContentLength {
		content += " " + gofakeit.Sentence(8)
	}
	return content
}

// ContentOfLength returns content of exactly n characters.
func ContentOfLength(n int) string {
	return strings.Repeat("a", n)
}

// CreateUser inserts a user with the given id and a fake profile.
func CreateUser(t testing.TB, db *gorm.DB, id string) models.User {
	t.Helper()
	email := id + "@" + gofakeit.DomainName()
	user := models.User{
		ID:        id,
		Email:     &email,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateCategory inserts a category whose slug is derived from name.
func CreateCategory(t testing.TB, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{
		Name:  name,
		Slug:  strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Icon:  "tag",
		Color: gofakeit.SafeColor(),
	}
	require.NoError(t, db.Create(&category).Error)
	return category
}

// ReviewOption customizes a fixture review.
type ReviewOption func(*models.Review)

// WithCategory assigns the review to a category.
func WithCategory(id uint) ReviewOption {
	return func(r *models.Review) { r.CategoryID = &id }
}

// WithRating sets the rating.
func WithRating(rating int) ReviewOption {
	return func(r *models.Review) { r.Rating = rating }
}

// WithTitle sets the title.
func WithTitle(title string) ReviewOption {
	return func(r *models.Review) { r.Title = title }
}

// WithContent sets the content.
func WithContent(content string) ReviewOption {
	return func(r *models.Review) { r.Content = content }
}

// Draft marks the review as a draft.
func Draft() ReviewOption {
	return func(r *models.Review) { r.IsDraft = true }
}

// WithHelpfulVotes sets the cached helpful-vote count directly.
func WithHelpfulVotes(n int) ReviewOption {
	return func(r *models.Review) { r.HelpfulVotes = n }
}

// CreatedAfter sets CreatedAt to BaseTime plus d.
func CreatedAfter(d time.Duration) ReviewOption {
	return func(r *models.Review) {
		r.CreatedAt = BaseTime.Add(d)
		r.UpdatedAt = r.CreatedAt
	}
}

// NewReview builds a valid, unsaved review by authorID.
func NewReview(authorID string, opts ...ReviewOption) *models.Review {
	review := &models.Review{
		Title:     gofakeit.Sentence(4),
		Content:   ValidContent(),
		Rating:    gofakeit.Number(models.MinRating, models.MaxRating),
		AuthorID:  authorID,
		Images:    datatypes.JSONSlice[string]{},
		CreatedAt: BaseTime,
		UpdatedAt: BaseTime,
	}
	for _, opt := range opts {
		opt(review)
	}
	return review
}

// CreateReview inserts a review directly, bypassing counters.
func CreateReview(t testing.TB, db *gorm.DB, authorID string, opts ...ReviewOption) models.Review {
	t.Helper()
	review := NewReview(authorID, opts...)
	require.NoError(t, db.Create(review).Error)
	return *review
}
