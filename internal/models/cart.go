// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem belongs to either a registered user or a guest session.
type CartItem struct {
	BaseModel
	UserID    *uuid.UUID      `json:"user_id" gorm:"type:uuid;index:idx_cart_user_product,unique"`
	GuestID   *uuid.UUID      `json:"guest_id" gorm:"type:uuid;index:idx_cart_guest_product,unique"`
	ProductID uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index:idx_cart_user_product,unique;index:idx_cart_guest_product,unique"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`

	// Relationships
	User    *User   `json:"-" gorm:"foreignKey:UserID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
