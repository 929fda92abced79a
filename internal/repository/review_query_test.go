package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name     string
		filter   ReviewFilter
		expected []Predicate
	}{
		{"empty filter", ReviewFilter{}, nil},
		{"blank search is ignored", ReviewFilter{Search: "   "}, nil},
		{
			name:   "all predicates in order",
			filter: ReviewFilter{CategoryID: ptr(uint(3)), AuthorID: "u1", IsDraft: ptr(false), MinRating: ptr(4), Search: "Pizza"},
			expected: []Predicate{
				{"reviews.category_id = ?", []any{uint(3)}},
				{"reviews.author_id = ?", []any{"u1"}},
				{"reviews.is_draft = ?", []any{false}},
				{"reviews.rating >= ?", []any{4}},
				{`(LOWER(reviews.title) LIKE ? ESCAPE '\' OR LOWER(reviews.content) LIKE ? ESCAPE '\')`, []any{"%pizza%", "%pizza%"}},
			},
		},
		{
			name:   "wildcards are matched literally",
			filter: ReviewFilter{Search: `50%_off\`},
			expected: []Predicate{
				{`(LOWER(reviews.title) LIKE ? ESCAPE '\' OR LOWER(reviews.content) LIKE ? ESCAPE '\')`, []any{`%50\%\_off\\%`, `%50\%\_off\\%`}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Predicates(tt.filter))
		})
	}
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		sort     ReviewSort
		expected []string
	}{
		{SortRecent, []string{"reviews.created_at DESC", "reviews.id DESC"}},
		{"", []string{"reviews.created_at DESC", "reviews.id DESC"}},
		{"bogus", []string{"reviews.created_at DESC", "reviews.id DESC"}},
		{SortRating, []string{"reviews.rating DESC", "reviews.created_at DESC"}},
		{SortHelpful, []string{"reviews.helpful_votes DESC", "reviews.created_at DESC"}},
		{SortOldest, []string{"reviews.created_at ASC"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			assert.Equal(t, tt.expected, Ordering(tt.sort))
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  int
		expectedLimit  int
		expectedOffset int
	}{
		{"defaults", 0, 0, DefaultReviewLimit, 0},
		{"explicit", 5, 10, 5, 10},
		{"clamped to max", 1000, 0, MaxReviewLimit, 0},
		{"negative values", -1, -5, DefaultReviewLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := Window(ReviewFilter{Limit: tt.limit, Offset: tt.offset})
			assert.Equal(t, tt.expectedLimit, limit)
			assert.Equal(t, tt.expectedOffset, offset)
		})
	}
}

func TestReviewRepository_ListSQLShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db, CountAllReviews)

	mock.ExpectQuery(`SELECT \* FROM "reviews" WHERE reviews\.category_id = \$1 AND reviews\.rating >= \$2 ` +
		`ORDER BY reviews\.rating DESC,\s?reviews\.created_at DESC LIMIT \$3 OFFSET \$4`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}))

	rows, err := repo.List(context.Background(), ReviewFilter{
		CategoryID: ptr(uint(2)),
		MinRating:  ptr(4),
		SortBy:     SortRating,
		Offset:     40,
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
