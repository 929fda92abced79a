package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"reviewhub/internal/models"
)

const maxImageURLLength = 1024

// ReviewInput is the client-supplied part of a new review.
type ReviewInput struct {
	Title      string
	Content    string
	Rating     int
	CategoryID *uint
	Images     []string
	IsDraft    bool
}

// ValidateReview checks every field and reports all failures at once.
func ValidateReview(in ReviewInput) error {
	fields := map[string]string{}
	checkTitle(fields, in.Title)
	checkContent(fields, in.Content)
	checkRating(fields, in.Rating)
	checkCategory(fields, in.CategoryID)
	checkImages(fields, in.Images)
	return fieldErrors(fields)
}

// ValidateReviewPatch checks only the fields the patch sets.
func ValidateReviewPatch(p models.ReviewPatch) error {
	fields := map[string]string{}
	if p.Title != nil {
		checkTitle(fields, *p.Title)
	}
	if p.Content != nil {
		checkContent(fields, *p.Content)
	}
	if p.Rating != nil {
		checkRating(fields, *p.Rating)
	}
	if !p.ClearCategory {
		checkCategory(fields, p.CategoryID)
	}
	if p.Images != nil {
		checkImages(fields, *p.Images)
	}
	if len(fields) == 0 && p.Empty() {
		return models.NewValidationError("No fields to update")
	}
	return fieldErrors(fields)
}

func checkTitle(fields map[string]string, title string) {
	n := utf8.RuneCountInString(title)
	switch {
	case n < models.MinTitleLength:
		fields["title"] = fmt.Sprintf("Title must be at least %d characters", models.MinTitleLength)
	case n > models.MaxTitleLength:
		fields["title"] = fmt.Sprintf("Title must be at most %d characters", models.MaxTitleLength)
	}
}

func checkContent(fields map[string]string, content string) {
	if utf8.RuneCountInString(content) < models.MinContentLength {
		fields["content"] = fmt.Sprintf("Review must be at least %d characters", models.MinContentLength)
	}
}

func checkRating(fields map[string]string, rating int) {
	if rating < models.MinRating || rating > models.MaxRating {
		fields["rating"] = fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
}

func checkCategory(fields map[string]string, id *uint) {
	if id != nil && *id == 0 {
		fields["categoryId"] = "Category id must be positive"
	}
}

func checkImages(fields map[string]string, images []string) {
	if len(images) > models.MaxReviewImages {
		fields["images"] = fmt.Sprintf("At most %d images are allowed", models.MaxReviewImages)
		return
	}
	for i, img := range images {
		if strings.TrimSpace(img) == "" {
			fields["images"] = fmt.Sprintf("Image %d is empty", i)
			return
		}
		if len(img) > maxImageURLLength {
			fields["images"] = fmt.Sprintf("Image %d URL is too long", i)
			return
		}
	}
}

func fieldErrors(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return models.NewFieldValidationError("Invalid review", fields)
}
