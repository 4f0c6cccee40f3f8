// internal/models/inventory.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockTransaction is the append-only inventory ledger. Every stock change
// writes exactly one row in the same database transaction; the sum of
// quantity_change per product reconciles to the product's current stock.
type StockTransaction struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID      uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	QuantityChange decimal.Decimal `json:"quantity_change" gorm:"type:decimal(12,3);not null"`
	Reason         StockReason     `json:"reason" gorm:"type:varchar(20);not null;index"`
	RelatedOrderID *uuid.UUID      `json:"related_order_id" gorm:"type:uuid;index"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime;index"`

	// Relationships
	Product      Product `json:"-" gorm:"foreignKey:ProductID"`
	RelatedOrder *Order  `json:"-" gorm:"foreignKey:RelatedOrderID"`
}
