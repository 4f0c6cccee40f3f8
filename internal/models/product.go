// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	CategoryID  *uuid.UUID `json:"category_id" gorm:"type:uuid;index"`
	// Price and cost are the current catalog values; historical orders keep
	// their own snapshot in order_items and never re-read these.
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CostPrice decimal.Decimal `json:"cost_price" gorm:"type:decimal(12,2);not null"`
	SaleType  SaleType        `json:"sale_type" gorm:"type:varchar(20);default:'unit_based'"`
	// Fractional for weight-based products. Mutated only through the
	// inventory ledger; a CHECK constraint keeps it non-negative.
	StockQuantity decimal.Decimal `json:"stock_quantity" gorm:"type:decimal(12,3);default:0"`
	Images        pq.StringArray  `json:"images" gorm:"type:text[]"`
	IsActive      bool            `json:"is_active" gorm:"default:true;index"`
	AverageRating decimal.Decimal `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	ReviewsCount  int64           `json:"reviews_count" gorm:"default:0"`
	SalesCount    int64           `json:"sales_count" gorm:"default:0"`

	// Relationships
	Category          *Category          `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Reviews           []ProductReview    `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
	StockTransactions []StockTransaction `json:"stock_transactions,omitempty" gorm:"foreignKey:ProductID"`
}

type Category struct {
	BaseModel
	Name     string     `json:"name" gorm:"size:100;not null"`
	Slug     string     `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	ParentID *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	ImageURL string     `json:"image_url,omitempty" gorm:"size:500"`
	// Storage key for the image so a replacement can delete the old object.
	ImageKey string `json:"-" gorm:"size:300"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Products []Product  `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type ProductReview struct {
	BaseModel
	ProductID uuid.UUID    `json:"product_id" gorm:"type:uuid;not null;index:idx_reviews_product_user,unique"`
	UserID    uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;index:idx_reviews_product_user,unique"`
	Rating    int          `json:"rating" gorm:"not null"`
	Comment   string       `json:"comment" gorm:"type:text"`
	Status    ReviewStatus `json:"status" gorm:"type:varchar(20);default:'approved';index"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
