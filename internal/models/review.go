// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

// Review is unique per (product, user); a second submission updates the first.
type Review struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user,priority:1"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user,priority:2"`
	Rating    int       `json:"rating" gorm:"not null;default:5"`
	Comment   string    `json:"comment" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
