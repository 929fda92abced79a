package repository

import (
	"context"
	"testing"
	"time"

	"reviewhub/internal/models"
	"reviewhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reviewIDs(rows []models.ReviewWithRelations) []uint {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func categoryCount(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var c models.Category
	require.NoError(t, db.First(&c, id).Error)
	return c.ReviewCount
}

const plainContent = "Solid experience overall with friendly staff and quick service every visit."

func TestReviewRepository_ListFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	ctx := context.Background()

	testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")
	food := testutil.CreateCategory(t, db, "Restaurants")
	tech := testutil.CreateCategory(t, db, "Technology")

	pizza := testutil.CreateReview(t, db, "alice", testutil.WithCategory(food.ID), testutil.WithRating(5),
		testutil.WithTitle("Best Pizza in town"), testutil.WithContent(plainContent), testutil.CreatedAfter(1*time.Hour))
	laptop := testutil.CreateReview(t, db, "bob", testutil.WithCategory(tech.ID), testutil.WithRating(3),
		testutil.WithTitle("Laptop review"), testutil.WithContent("This machine runs hot but the PIZZA oven app is great for recipes."),
		testutil.CreatedAfter(2*time.Hour))
	draft := testutil.CreateReview(t, db, "alice", testutil.WithCategory(food.ID), testutil.WithRating(2),
		testutil.WithTitle("Unfinished thoughts"), testutil.WithContent(plainContent), testutil.Draft(),
		testutil.CreatedAfter(3*time.Hour))
	promo := testutil.CreateReview(t, db, "bob", testutil.WithRating(4),
		testutil.WithTitle("Get 50% off coupons"), testutil.WithContent(plainContent), testutil.CreatedAfter(4*time.Hour))

	tests := []struct {
		name     string
		filter   ReviewFilter
		expected []uint
	}{
		{"no filter includes drafts", ReviewFilter{}, []uint{promo.ID, draft.ID, laptop.ID, pizza.ID}},
		{"published only", ReviewFilter{IsDraft: ptr(false)}, []uint{promo.ID, laptop.ID, pizza.ID}},
		{"drafts only", ReviewFilter{IsDraft: ptr(true)}, []uint{draft.ID}},
		{"by category", ReviewFilter{CategoryID: ptr(food.ID)}, []uint{draft.ID, pizza.ID}},
		{"by author", ReviewFilter{AuthorID: "bob"}, []uint{promo.ID, laptop.ID}},
		{"min rating", ReviewFilter{MinRating: ptr(4)}, []uint{promo.ID, pizza.ID}},
		{"search matches title or content, any case", ReviewFilter{Search: "pIzZa"}, []uint{laptop.ID, pizza.ID}},
		{"search percent is literal", ReviewFilter{Search: "50%"}, []uint{promo.ID}},
		{"conjunction", ReviewFilter{CategoryID: ptr(food.ID), IsDraft: ptr(false), MinRating: ptr(5)}, []uint{pizza.ID}},
		{"oldest first", ReviewFilter{SortBy: SortOldest}, []uint{pizza.ID, laptop.ID, draft.ID, promo.ID}},
		{"pagination", ReviewFilter{Limit: 2, Offset: 1}, []uint{draft.ID, laptop.ID}},
		{"offset past end", ReviewFilter{Offset: 10}, []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reviewIDs(rows))
		})
	}
}

func TestReviewRepository_SearchFoldsNonASCII(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)

	testutil.CreateUser(t, db, "alice")
	eclair := testutil.CreateReview(t, db, "alice", testutil.WithTitle("Éclair au chocolat"), testutil.WithContent(plainContent))
	testutil.CreateReview(t, db, "alice", testutil.WithTitle("Plain croissant"), testutil.WithContent(plainContent))

	for _, term := range []string{"éclair", "ÉCLAIR", "Éclair"} {
		rows, err := repo.List(context.Background(), ReviewFilter{Search: term})
		require.NoError(t, err)
		assert.Equal(t, []uint{eclair.ID}, reviewIDs(rows), term)
	}
}

func TestReviewRepository_ListResolvesRelations(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)

	alice := testutil.CreateUser(t, db, "alice")
	food := testutil.CreateCategory(t, db, "Restaurants")
	testutil.CreateReview(t, db, "alice", testutil.WithCategory(food.ID), testutil.CreatedAfter(time.Minute))
	testutil.CreateReview(t, db, "alice", testutil.WithCategory(999), testutil.CreatedAfter(2*time.Minute))
	testutil.CreateReview(t, db, "alice", testutil.CreatedAfter(3*time.Minute))

	rows, err := repo.List(context.Background(), ReviewFilter{SortBy: SortOldest})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, alice.ID, row.Author.ID)
	}
	require.NotNil(t, rows[0].Category)
	assert.Equal(t, "Restaurants", rows[0].Category.Name)
	assert.Nil(t, rows[1].Category, "dangling category resolves to nil")
	assert.Nil(t, rows[2].Category)
}

func TestReviewRepository_SortByRatingIsNonIncreasingWithRecentTieBreak(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	testutil.CreateUser(t, db, "alice")

	ratings := []int{3, 5, 1, 5, 3, 4, 5}
	for i, rating := range ratings {
		testutil.CreateReview(t, db, "alice", testutil.WithRating(rating), testutil.CreatedAfter(time.Duration(i)*time.Minute))
	}

	rows, err := repo.List(context.Background(), ReviewFilter{SortBy: SortRating})
	require.NoError(t, err)
	require.Len(t, rows, len(ratings))
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		assert.GreaterOrEqual(t, prev.Rating, cur.Rating)
		if prev.Rating == cur.Rating {
			assert.True(t, prev.CreatedAt.After(cur.CreatedAt), "ties must be ordered by createdAt descending")
		}
	}
}

func TestReviewRepository_SortByHelpful(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	testutil.CreateUser(t, db, "alice")

	low := testutil.CreateReview(t, db, "alice", testutil.WithHelpfulVotes(1), testutil.CreatedAfter(3*time.Minute))
	high := testutil.CreateReview(t, db, "alice", testutil.WithHelpfulVotes(9), testutil.CreatedAfter(time.Minute))
	tieOld := testutil.CreateReview(t, db, "alice", testutil.WithHelpfulVotes(4), testutil.CreatedAfter(time.Minute))
	tieNew := testutil.CreateReview(t, db, "alice", testutil.WithHelpfulVotes(4), testutil.CreatedAfter(2*time.Minute))

	rows, err := repo.List(context.Background(), ReviewFilter{SortBy: SortHelpful})
	require.NoError(t, err)
	assert.Equal(t, []uint{high.ID, tieNew.ID, tieOld.ID, low.ID}, reviewIDs(rows))
}

func TestReviewRepository_MissingAuthorIsIntegrityError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	orphan := testutil.CreateReview(t, db, "ghost")

	_, err := repo.List(context.Background(), ReviewFilter{})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)

	_, err = repo.GetByID(context.Background(), orphan.ID, "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
}

func TestReviewRepository_GetByIDCountsViews(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	review := testutil.CreateReview(t, db, "alice")

	got, err := repo.GetByID(ctx, review.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views, "non-author view is counted and reflected")

	got, err = repo.GetByID(ctx, review.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views, "author self-view is not counted")

	got, err = repo.GetByID(ctx, review.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views, "anonymous view is counted")

	var stored models.Review
	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, 2, stored.Views)
	assert.Equal(t, review.UpdatedAt.Unix(), stored.UpdatedAt.Unix(), "views do not touch updatedAt")

	_, err = repo.GetByID(ctx, 9999, "bob")
	assert.True(t, models.IsNotFound(err))
}

func TestReviewRepository_CreateMaintainsCategoryCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	food := testutil.CreateCategory(t, db, "Restaurants")

	t.Run("drafts count by default", func(t *testing.T) {
		repo := NewReviewRepository(db, CountAllReviews)
		require.NoError(t, repo.Create(ctx, testutil.NewReview("alice", testutil.WithCategory(food.ID))))
		require.NoError(t, repo.Create(ctx, testutil.NewReview("alice", testutil.WithCategory(food.ID), testutil.Draft())))
		assert.Equal(t, 2, categoryCount(t, db, food.ID))
	})

	t.Run("published only policy ignores drafts", func(t *testing.T) {
		repo := NewReviewRepository(db, CountPublishedOnly)
		require.NoError(t, repo.Create(ctx, testutil.NewReview("alice", testutil.WithCategory(food.ID), testutil.Draft())))
		assert.Equal(t, 1, categoryCount(t, db, food.ID))
	})

	t.Run("unknown category is rejected without inserting", func(t *testing.T) {
		repo := NewReviewRepository(db, CountAllReviews)
		var before int64
		require.NoError(t, db.Model(&models.Review{}).Count(&before).Error)

		err := repo.Create(ctx, testutil.NewReview("alice", testutil.WithCategory(404)))
		assert.True(t, models.IsValidation(err))

		var after int64
		require.NoError(t, db.Model(&models.Review{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func TestReviewRepository_CreateThenDeleteLeavesCountUnchanged(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	food := testutil.CreateCategory(t, db, "Restaurants")

	require.NoError(t, repo.Create(ctx, testutil.NewReview("alice", testutil.WithCategory(food.ID))))
	before := categoryCount(t, db, food.ID)

	first := testutil.NewReview("alice", testutil.WithCategory(food.ID))
	second := testutil.NewReview("alice", testutil.WithCategory(food.ID))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	_, err := repo.Delete(ctx, first.ID, "alice")
	require.NoError(t, err)
	_, err = repo.Delete(ctx, second.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, before, categoryCount(t, db, food.ID))
}

func TestReviewRepository_UpdateOwnership(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	review := testutil.CreateReview(t, db, "alice")

	_, err := repo.Update(ctx, review.ID, "mallory", models.ReviewPatch{Title: ptr("Hijacked title")})
	assert.True(t, models.IsForbidden(err))

	_, err = repo.Update(ctx, review.ID, "", models.ReviewPatch{Title: ptr("Hijacked title")})
	assert.True(t, models.IsForbidden(err))

	_, err = repo.Update(ctx, 9999, "alice", models.ReviewPatch{Title: ptr("Whatever title")})
	assert.True(t, models.IsNotFound(err))

	updated, err := repo.Update(ctx, review.ID, "alice", models.ReviewPatch{
		Title:   ptr("Revised title"),
		Rating:  ptr(2),
		IsDraft: ptr(true),
		Images:  &[]string{"/uploads/a.png", "/uploads/b.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Revised title", updated.Title)
	assert.Equal(t, 2, updated.Rating)
	assert.True(t, updated.IsDraft)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, []string(updated.Images))
	assert.Equal(t, review.Content, updated.Content, "unpatched fields are untouched")
	assert.True(t, updated.UpdatedAt.After(review.UpdatedAt))
}

func TestReviewRepository_UpdateMovesCategoryCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	food := testutil.CreateCategory(t, db, "Restaurants")
	tech := testutil.CreateCategory(t, db, "Technology")

	review := testutil.NewReview("alice", testutil.WithCategory(food.ID))
	require.NoError(t, repo.Create(ctx, review))

	_, err := repo.Update(ctx, review.ID, "alice", models.ReviewPatch{CategoryID: ptr(tech.ID)})
	require.NoError(t, err)
	assert.Equal(t, 0, categoryCount(t, db, food.ID))
	assert.Equal(t, 1, categoryCount(t, db, tech.ID))

	_, err = repo.Update(ctx, review.ID, "alice", models.ReviewPatch{CategoryID: ptr(uint(404))})
	assert.True(t, models.IsValidation(err))

	updated, err := repo.Update(ctx, review.ID, "alice", models.ReviewPatch{ClearCategory: true})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Equal(t, 0, categoryCount(t, db, tech.ID))
}

func TestReviewRepository_UpdateDraftTogglesPublishedCount(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountPublishedOnly)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	food := testutil.CreateCategory(t, db, "Restaurants")

	review := testutil.NewReview("alice", testutil.WithCategory(food.ID), testutil.Draft())
	require.NoError(t, repo.Create(ctx, review))
	assert.Equal(t, 0, categoryCount(t, db, food.ID))

	_, err := repo.Update(ctx, review.ID, "alice", models.ReviewPatch{IsDraft: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, categoryCount(t, db, food.ID))
}

func TestReviewRepository_Delete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewReviewRepository(db, CountAllReviews)
	votes := NewVoteRepository(db)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")
	review := testutil.CreateReview(t, db, "alice")

	_, err := votes.CastVote(ctx, review.ID, "bob", true)
	require.NoError(t, err)

	_, err = repo.Delete(ctx, review.ID, "bob")
	assert.True(t, models.IsForbidden(err))

	deleted, err := repo.Delete(ctx, review.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, review.ID, deleted.ID)

	var remaining int64
	require.NoError(t, db.Model(&models.ReviewVote{}).Where("review_id = ?", review.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	_, err = repo.Delete(ctx, review.ID, "alice")
	assert.True(t, models.IsNotFound(err))
}
