package server

import (
	"reviewhub/internal/middleware"
	"reviewhub/internal/models"
	"reviewhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type castVoteRequest struct {
	IsHelpful *bool `json:"isHelpful"`
}

// VoteResponse is returned after a vote is recorded.
type VoteResponse struct {
	Vote  models.ReviewVote `json:"vote"`
	Stats models.VoteStats  `json:"stats"`
}

// CastVote handles POST /api/reviews/:id/vote
// @Summary Vote on review helpfulness
// @Description Records the caller's vote, replacing any earlier vote on the same review.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body castVoteRequest true "Vote"
// @Success 200 {object} VoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/vote [post]
func (s *Server) CastVote(c *fiber.Ctx) error {
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req castVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	outcome, err := s.voteService.CastVote(c.UserContext(), service.CastVoteInput{
		ReviewID:  reviewID,
		UserID:    middleware.UserIDFrom(c),
		IsHelpful: req.IsHelpful,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(VoteResponse{Vote: outcome.Vote, Stats: outcome.Stats})
}

// GetMyVote handles GET /api/reviews/:id/votes/me
// @Summary Get the caller's vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} models.ReviewVote
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/votes/me [get]
func (s *Server) GetMyVote(c *fiber.Ctx) error {
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	vote, err := s.voteService.MyVote(c.UserContext(), reviewID, middleware.UserIDFrom(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(vote)
}
