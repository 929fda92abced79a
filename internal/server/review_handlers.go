package server

import (
	"encoding/json"

	"reviewhub/internal/middleware"
	"reviewhub/internal/models"
	"reviewhub/internal/service"
	"reviewhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type createReviewRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Rating     int      `json:"rating"`
	CategoryID *uint    `json:"categoryId"`
	Images     []string `json:"images"`
	IsDraft    bool     `json:"isDraft"`
}

// optionalUint tells an absent JSON field apart from an explicit null.
type optionalUint struct {
	Set   bool
	Value *uint
}

func (o *optionalUint) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type updateReviewRequest struct {
	Title      *string      `json:"title"`
	Content    *string      `json:"content"`
	Rating     *int         `json:"rating"`
	CategoryID optionalUint `json:"categoryId"`
	Images     *[]string    `json:"images"`
	IsDraft    *bool        `json:"isDraft"`
}

func (r updateReviewRequest) patch() models.ReviewPatch {
	p := models.ReviewPatch{
		Title:   r.Title,
		Content: r.Content,
		Rating:  r.Rating,
		Images:  r.Images,
		IsDraft: r.IsDraft,
	}
	if r.CategoryID.Set {
		if r.CategoryID.Value == nil {
			p.ClearCategory = true
		} else {
			p.CategoryID = r.CategoryID.Value
		}
	}
	return p
}

// GetReviews handles GET /api/reviews
// @Summary List reviews
// @Description Filter, sort and paginate reviews. Omitting isDraft returns drafts and published reviews.
// @Tags reviews
// @Produce json
// @Param categoryId query int false "Category ID"
// @Param authorId query string false "Author ID"
// @Param isDraft query bool false "Draft state"
// @Param minRating query int false "Minimum rating (1-5)"
// @Param search query string false "Case-insensitive substring of title or content"
// @Param sortBy query string false "recent, rating, helpful or oldest"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.ReviewWithRelations
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews [get]
func (s *Server) GetReviews(c *fiber.Ctx) error {
	filter, err := parseReviewFilter(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	reviews, err := s.reviewService.ListReviews(c.UserContext(), filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(reviews)
}

// GetReview handles GET /api/reviews/:id
// @Summary Get review
// @Description Fetch one review. Views by anyone but the author are counted.
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.ReviewWithRelations
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	review, err := s.reviewService.GetReview(c.UserContext(), id, middleware.UserIDFrom(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(review)
}

// CreateReview handles POST /api/reviews
// @Summary Create review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviewService.CreateReview(c.UserContext(), service.CreateReviewInput{
		AuthorID: middleware.UserIDFrom(c),
		ReviewInput: validation.ReviewInput{
			Title:      req.Title,
			Content:    req.Content,
			Rating:     req.Rating,
			CategoryID: req.CategoryID,
			Images:     req.Images,
			IsDraft:    req.IsDraft,
		},
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// UpdateReview handles PUT /api/reviews/:id
// @Summary Update review
// @Description Only the author may update. Send categoryId null to detach the category.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body updateReviewRequest true "Fields to change"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [put]
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviewService.UpdateReview(c.UserContext(), id, middleware.UserIDFrom(c), req.patch())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(review)
}

// DeleteReview handles DELETE /api/reviews/:id
// @Summary Delete review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reviewService.DeleteReview(c.UserContext(), id, middleware.UserIDFrom(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted successfully"})
}
