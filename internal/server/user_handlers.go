package server

import (
	"strings"

	"reviewhub/internal/middleware"
	"reviewhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCurrentUser handles GET /api/auth/user
// @Summary Current user
// @Description Returns the caller's profile as mirrored from the identity provider.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	userID := middleware.UserIDFrom(c)
	if userID == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserStats handles GET /api/users/:id/stats
// @Summary User review statistics
// @Description Aggregates over the user's published reviews. Unknown users get zeros.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserStats
// @Router /users/{id}/stats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	stats, err := s.userService.Stats(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
