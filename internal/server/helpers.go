package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"reviewhub/internal/models"
	"reviewhub/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// mapServiceError translates an AppError code into an HTTP status.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError writes err with the status its code maps to.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, mapServiceError(err), err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "reviewId" -> "review ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// queryUint parses an optional positive integer query parameter.
func queryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, models.NewFieldValidationError("Invalid query parameter", map[string]string{
			key: key + " must be a positive integer",
		})
	}
	u := uint(v)
	return &u, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewFieldValidationError("Invalid query parameter", map[string]string{
			key: key + " must be an integer",
		})
	}
	return &v, nil
}

// queryBool parses an optional boolean query parameter. Absent means nil.
func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, models.NewFieldValidationError("Invalid query parameter", map[string]string{
			key: key + " must be true or false",
		})
	}
	return &v, nil
}

// parseReviewFilter reads the listing query string. Limit and offset are
// clamped later by the repository; malformed numbers are rejected here.
func parseReviewFilter(c *fiber.Ctx) (repository.ReviewFilter, error) {
	var filter repository.ReviewFilter
	var err error

	if filter.CategoryID, err = queryUint(c, "categoryId"); err != nil {
		return filter, err
	}
	if filter.IsDraft, err = queryBool(c, "isDraft"); err != nil {
		return filter, err
	}
	if filter.MinRating, err = queryInt(c, "minRating"); err != nil {
		return filter, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return filter, err
	}
	if limit != nil {
		filter.Limit = *limit
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return filter, err
	}
	if offset != nil {
		filter.Offset = *offset
	}

	filter.AuthorID = strings.TrimSpace(c.Query("authorId"))
	filter.Search = c.Query("search")
	filter.SortBy = repository.ReviewSort(strings.ToLower(strings.TrimSpace(c.Query("sortBy"))))
	return filter, nil
}
