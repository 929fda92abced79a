package models

import "time"

// ReviewVote is one user's helpful/not-helpful verdict on a review.
// The combination of ReviewID and UserID must be unique.
type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_votes_review_user" json:"reviewId"`
	UserID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_review_votes_review_user;index" json:"userId"`
	IsHelpful bool      `gorm:"not null" json:"isHelpful"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteStats is computed from review_votes rows, never from the cached counter.
type VoteStats struct {
	HelpfulVotes int64 `json:"helpfulVotes"`
	TotalVotes   int64 `json:"totalVotes"`
}
