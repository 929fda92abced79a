package models

import "time"

// Category groups reviews. ReviewCount is a denormalized cache of the
// number of reviews referencing the category.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Icon        string    `gorm:"type:varchar(50);not null" json:"icon"`
	Color       string    `gorm:"type:varchar(20);not null" json:"color"`
	ReviewCount int       `gorm:"not null;default:0" json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
