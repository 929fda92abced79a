package models

import "time"

// User mirrors an account held by the external identity provider.
// ID is the provider's subject and never changes.
type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email           *string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirstName       string    `gorm:"type:varchar(255)" json:"firstName"`
	LastName        string    `gorm:"type:varchar(255)" json:"lastName"`
	ProfileImageURL string    `gorm:"type:varchar(1024)" json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserStats aggregates a user's published reviews.
type UserStats struct {
	TotalReviews      int64   `json:"totalReviews"`
	AvgRating         float64 `json:"avgRating"`
	TotalHelpfulVotes int64   `json:"totalHelpfulVotes"`
}

// Identity is the caller as asserted by the identity provider's token.
type Identity struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}
