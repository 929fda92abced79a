package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ReviewSort names a listing order.
type ReviewSort string

// Supported listing orders. Unknown values fall back to SortRecent.
const (
	SortRecent  ReviewSort = "recent"
	SortRating  ReviewSort = "rating"
	SortHelpful ReviewSort = "helpful"
	SortOldest  ReviewSort = "oldest"
)

// Listing window bounds.
const (
	DefaultReviewLimit = 20
	MaxReviewLimit     = 100
)

// ReviewFilter describes a review listing. Zero values mean "no restriction".
type ReviewFilter struct {
	CategoryID *uint
	AuthorID   string
	// IsDraft restricts to drafts or published reviews; nil includes both.
	IsDraft   *bool
	MinRating *int
	Search    string
	SortBy    ReviewSort
	Limit     int
	Offset    int
}

// Predicate is one conjunct of a listing's WHERE clause.
type Predicate struct {
	Query string
	Args  []any
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Predicates builds the conjunctive predicate list for a filter.
func Predicates(f ReviewFilter) []Predicate {
	var preds []Predicate
	if f.CategoryID != nil {
		preds = append(preds, Predicate{"reviews.category_id = ?", []any{*f.CategoryID}})
	}
	if f.AuthorID != "" {
		preds = append(preds, Predicate{"reviews.author_id = ?", []any{f.AuthorID}})
	}
	if f.IsDraft != nil {
		preds = append(preds, Predicate{"reviews.is_draft = ?", []any{*f.IsDraft}})
	}
	if f.MinRating != nil {
		preds = append(preds, Predicate{"reviews.rating >= ?", []any{*f.MinRating}})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		preds = append(preds, Predicate{
			`(LOWER(reviews.title) LIKE ? ESCAPE '\' OR LOWER(reviews.content) LIKE ? ESCAPE '\')`,
			[]any{like, like},
		})
	}
	return preds
}

// Ordering returns ORDER BY terms for a sort key.
func Ordering(sortBy ReviewSort) []string {
	switch sortBy {
	case SortRating:
		return []string{"reviews.rating DESC", "reviews.created_at DESC"}
	case SortHelpful:
		return []string{"reviews.helpful_votes DESC", "reviews.created_at DESC"}
	case SortOldest:
		return []string{"reviews.created_at ASC"}
	default:
		return []string{"reviews.created_at DESC", "reviews.id DESC"}
	}
}

// Window resolves the pagination window, applying defaults and the maximum page size.
func Window(f ReviewFilter) (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultReviewLimit
	}
	if limit > MaxReviewLimit {
		limit = MaxReviewLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// applyReviewQuery composes predicates, ordering and window onto db.
func applyReviewQuery(db *gorm.DB, f ReviewFilter) *gorm.DB {
	for _, p := range Predicates(f) {
		db = db.Where(p.Query, p.Args...)
	}
	for _, o := range Ordering(f.SortBy) {
		db = db.Order(o)
	}
	limit, offset := Window(f)
	return db.Limit(limit).Offset(offset)
}
