// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

// Product is read-only from the storefront; rows are owned by the catalog ingestion process.
type Product struct {
	BaseModel
	Slug         string `json:"slug" gorm:"uniqueIndex;size:140;not null"`
	Title        string `json:"title" gorm:"size:140;not null"`
	Description  string `json:"description" gorm:"type:text"`
	PricePennies int64  `json:"price_pennies" gorm:"not null;check:price_pennies >= 0"`
	Active       bool   `json:"active" gorm:"default:true;index"`

	// Relationships
	Assets  []DigitalAsset `json:"assets,omitempty" gorm:"foreignKey:ProductID"`
	Reviews []Review       `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
}

// DigitalAsset is a downloadable file backing a product. FilePath is relative to the protected storage root.
type DigitalAsset struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	FilePath  string    `json:"file_path" gorm:"size:512;not null"`
	FileName  string    `json:"file_name" gorm:"size:255;not null"`
	SHA256    string    `json:"sha256" gorm:"column:sha256;size:64"`
	SizeBytes int64     `json:"size_bytes" gorm:"default:0"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
