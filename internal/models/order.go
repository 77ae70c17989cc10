// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	BaseModel
	UserID                uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status                OrderStatus `json:"status" gorm:"type:varchar(12);default:'pending';not null;index"`
	Currency              string      `json:"currency" gorm:"size:3;not null"`
	SubtotalPennies       int64       `json:"subtotal_pennies" gorm:"not null;default:0"`
	TotalPennies          int64       `json:"total_pennies" gorm:"not null;default:0"`
	StripeSessionID       string      `json:"stripe_session_id" gorm:"size:255;index"`
	StripePaymentIntentID string      `json:"stripe_payment_intent" gorm:"size:255"`

	// Relationships
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots the unit price at order creation; later catalog price changes do not apply.
type OrderItem struct {
	BaseModel
	OrderID          uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity         int64     `json:"quantity" gorm:"not null;default:1;check:quantity >= 1"`
	UnitPricePennies int64     `json:"unit_price_pennies" gorm:"not null"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (i OrderItem) LineTotal() int64 {
	return i.Quantity * i.UnitPricePennies
}

// UserAsset is the download entitlement. At most one row exists per (user, digital asset).
type UserAsset struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_assets_user_asset,priority:1"`
	ProductID      uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	DigitalAssetID uuid.UUID `json:"digital_asset_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_assets_user_asset,priority:2"`
	GrantedAt      time.Time `json:"granted_at" gorm:"autoCreateTime;index"`

	// Relationships
	Product      *Product      `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	DigitalAsset *DigitalAsset `json:"digital_asset,omitempty" gorm:"foreignKey:DigitalAssetID"`
}

func (a *UserAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
