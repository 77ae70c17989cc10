// internal/models/note.go
package models

import (
	"github.com/google/uuid"
)

type UserNote struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index:idx_user_notes_user_product,priority:1"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index:idx_user_notes_user_product,priority:2"`
	Title     string    `json:"title" gorm:"size:120;not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
