package server

import (
	"net/http"
	"testing"

	"reviewhub/internal/models"
	"reviewhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/auth/user", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := signToken(t, "user-42", jwt.MapClaims{
		"email":      "grace@example.com",
		"first_name": "Grace",
		"last_name":  "Hopper",
	})
	resp = env.do(t, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := decode[models.User](t, resp)
	assert.Equal(t, "user-42", user.ID)
	require.NotNil(t, user.Email)
	assert.Equal(t, "grace@example.com", *user.Email)
	assert.Equal(t, "Hopper", user.LastName)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetUserStats(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "u1")
	testutil.CreateReview(t, env.db, "u1", testutil.WithRating(4), testutil.WithHelpfulVotes(2))
	testutil.CreateReview(t, env.db, "u1", testutil.WithRating(5), testutil.WithHelpfulVotes(1))
	testutil.CreateReview(t, env.db, "u1", testutil.WithRating(1), testutil.Draft(), testutil.WithHelpfulVotes(7))

	resp := env.do(t, http.MethodGet, "/api/users/u1/stats", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.UserStats{TotalReviews: 2, AvgRating: 4.5, TotalHelpfulVotes: 3},
		decode[models.UserStats](t, resp))

	resp = env.do(t, http.MethodGet, "/api/users/nobody/stats", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.UserStats{}, decode[models.UserStats](t, resp))
}
