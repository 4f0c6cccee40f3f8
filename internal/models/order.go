// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	// Exactly one of UserID / GuestID is set.
	UserID  *uuid.UUID  `json:"user_id" gorm:"type:uuid;index"`
	GuestID *uuid.UUID  `json:"guest_id" gorm:"type:uuid;index"`
	Status  OrderStatus `json:"status" gorm:"type:varchar(20);default:'created';index"`

	TotalProductsPrice decimal.Decimal `json:"total_products_price" gorm:"type:decimal(12,2);not null"`
	ShippingFees       decimal.Decimal `json:"shipping_fees" gorm:"type:decimal(12,2);not null"`
	DiscountAmount     decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null"`
	FinalTotal         decimal.Decimal `json:"final_total" gorm:"type:decimal(12,2);not null"`

	ShippingName    string `json:"shipping_name" gorm:"size:255"`
	ShippingPhone   string `json:"shipping_phone" gorm:"size:30"`
	ShippingAddress string `json:"shipping_address" gorm:"type:text"`
	ShippingCity    string `json:"shipping_city" gorm:"size:100"`
	ShippingNotes   string `json:"shipping_notes,omitempty" gorm:"type:text"`

	DeliveredAt *time.Time `json:"delivered_at"`

	// Relationships
	User          *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Payment       *Payment             `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem captures price and cost at placement time. These columns are
// never updated afterwards, so profit reports stay correct when the catalog
// price changes.
type OrderItem struct {
	BaseModel
	OrderID             uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID           uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity            decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	PriceAtPurchase     decimal.Decimal `json:"price_at_purchase" gorm:"type:decimal(12,2);not null"`
	CostPriceAtPurchase decimal.Decimal `json:"cost_price_at_purchase" gorm:"type:decimal(12,2);not null"`

	// Relationships
	Order   Order   `json:"-" gorm:"foreignKey:OrderID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Subtotal is quantity times the captured price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(i.Quantity)
}

type Payment struct {
	BaseModel
	OrderID          uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;uniqueIndex"`
	Method           PaymentMethod   `json:"method" gorm:"type:varchar(30);default:'cash_on_delivery'"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status           PaymentStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string          `json:"payment_reference,omitempty" gorm:"size:255"`
	ProcessedAt      *time.Time      `json:"processed_at"`
	RefundedAt       *time.Time      `json:"refunded_at"`

	// Relationships
	Order Order `json:"-" gorm:"foreignKey:OrderID"`
}

// OrderStatusHistory is an append-only log. Rows are created, never updated
// or deleted; the first row for every order has a null old status.
type OrderStatusHistory struct {
	ID        uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID   uuid.UUID    `json:"order_id" gorm:"type:uuid;not null;index"`
	OldStatus *OrderStatus `json:"old_status" gorm:"type:varchar(20)"`
	NewStatus OrderStatus  `json:"new_status" gorm:"type:varchar(20);not null"`
	ChangedAt time.Time    `json:"changed_at" gorm:"autoCreateTime;index"`

	// Relationships
	Order Order `json:"-" gorm:"foreignKey:OrderID"`
}
