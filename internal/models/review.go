// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rating bounds and minimum text lengths enforced on create and update.
const (
	MinRating        = 1
	MaxRating        = 5
	MinTitleLength   = 5
	MaxTitleLength   = 255
	MinContentLength = 50
	MaxReviewImages  = 10
)

// Review is a user-authored review of something in a category.
type Review struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Title      string `gorm:"type:varchar(255);not null" json:"title"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Rating     int    `gorm:"not null;index" json:"rating"`
	CategoryID *uint  `gorm:"index" json:"categoryId"`
	AuthorID   string `gorm:"type:varchar(255);not null;index" json:"authorId"`
	// Images keeps upload order.
	Images datatypes.JSONSlice[string] `json:"images"`
	// HelpfulVotes caches count(review_votes where is_helpful); rewritten after every vote.
	HelpfulVotes int       `gorm:"not null;default:0;index" json:"helpfulVotes"`
	Views        int       `gorm:"not null;default:0" json:"views"`
	IsDraft      bool      `gorm:"not null;default:false;index" json:"isDraft"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ReviewWithRelations is the display projection of a review with its author
// and (optional) category resolved.
type ReviewWithRelations struct {
	Review
	Author   User      `gorm:"foreignKey:AuthorID;references:ID" json:"author"`
	Category *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category"`
}

// TableName maps the projection onto the reviews table.
func (ReviewWithRelations) TableName() string {
	return "reviews"
}

// ReviewPatch lists the mutable fields of a review. Nil means "leave unchanged".
type ReviewPatch struct {
	Title      *string
	Content    *string
	Rating     *int
	CategoryID *uint
	// ClearCategory detaches the review from its category when true.
	ClearCategory bool
	Images        *[]string
	IsDraft       *bool
}

// Empty reports whether the patch changes nothing.
func (p ReviewPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Rating == nil &&
		p.CategoryID == nil && !p.ClearCategory && p.Images == nil && p.IsDraft == nil
}
