// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

type ProductService struct {
	db               *gorm.DB
	inventoryService *InventoryService
}

type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=255"`
	Description  string           `json:"description,omitempty"`
	CategoryID   *uuid.UUID       `json:"category_id,omitempty"`
	Price        decimal.Decimal  `json:"price" validate:"required"`
	CostPrice    decimal.Decimal  `json:"cost_price" validate:"required"`
	SaleType     models.SaleType  `json:"sale_type,omitempty"`
	InitialStock *decimal.Decimal `json:"initial_stock,omitempty"`
	Images       []string         `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Name        string           `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	Images      []string         `json:"images,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	// CategoryIDs holds the requested category plus its whole subtree; the
	// handler resolves descendants before searching.
	CategoryIDs []uuid.UUID      `json:"category_ids,omitempty"`
	SaleType   *models.SaleType `json:"sale_type,omitempty"`
	PriceMin   *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax   *decimal.Decimal `json:"price_max,omitempty"`
	InStock    *bool            `json:"in_stock,omitempty"`
	// Admins can list inactive products; customers never see them.
	IncludeInactive bool `json:"-"`
}

func NewProductService(db *gorm.DB, inventoryService *InventoryService) *ProductService {
	return &ProductService{db: db, inventoryService: inventoryService}
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if !req.Price.IsPositive() {
		return nil, NewServiceError(ErrKindValidation, "price must be positive")
	}
	if req.CostPrice.IsNegative() {
		return nil, NewServiceError(ErrKindValidation, "cost price cannot be negative")
	}

	saleType := req.SaleType
	if saleType == "" {
		saleType = models.SaleTypeUnit
	}
	if saleType != models.SaleTypeUnit && saleType != models.SaleTypeWeight {
		return nil, NewServiceErrorf(ErrKindValidation, "invalid sale type %q", saleType)
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewServiceErrorf(ErrKindNotFound, "category %s not found", *req.CategoryID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	product := &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		SaleType:      saleType,
		StockQuantity: decimal.Zero,
		Images:        req.Images,
		IsActive:      true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		// Initial stock goes through the ledger like every other change.
		if req.InitialStock != nil && req.InitialStock.IsPositive() {
			if err := s.inventoryService.ApplyDelta(tx, product.ID, *req.InitialStock, models.StockReasonAdminAdd, nil); err != nil {
				return err
			}
			product.StockQuantity = *req.InitialStock
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.db.Preload("Category").First(product, product.ID)
	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID, includeInactive bool) (*models.Product, error) {
	query := s.db.Preload("Category")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var product models.Product
	if err := query.First(&product, "products.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "product %s not found", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &product, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "product %s not found", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewServiceErrorf(ErrKindNotFound, "category %s not found", *req.CategoryID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, NewServiceError(ErrKindValidation, "price must be positive")
		}
		// Historical order items keep their snapshot; this only affects
		// future orders.
		updates["price"] = *req.Price
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, NewServiceError(ErrKindValidation, "cost price cannot be negative")
		}
		updates["cost_price"] = *req.CostPrice
	}
	if req.Images != nil {
		updates["images"] = req.Images
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	s.db.Preload("Category").First(&product, id)
	return &product, nil
}

func (s *ProductService) DeleteProduct(id uuid.UUID) error {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceErrorf(ErrKindNotFound, "product %s not found", id)
		}
		return fmt.Errorf("database error: %w", err)
	}

	// Orders reference products by id, so products with sales history are
	// deactivated rather than deleted.
	var orderCount int64
	if err := s.db.Model(&models.OrderItem{}).
		Where("product_id = ?", id).Count(&orderCount).Error; err != nil {
		return fmt.Errorf("failed to check order items: %w", err)
	}

	if orderCount > 0 {
		if err := s.db.Model(&product).UpdateColumn("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate product: %w", err)
		}
		return nil
	}

	if err := s.db.Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *ProductService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Preload("Category")

	if !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if len(params.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", params.CategoryIDs)
	}

	if params.SaleType != nil {
		query = query.Where("sale_type = ?", *params.SaleType)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	if params.InStock != nil && *params.InStock {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "sales_count", "average_rating"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetPopularProducts(limit int) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Where("is_active = ?", true).
		Order("sales_count DESC, average_rating DESC").
		Limit(limit).
		Preload("Category").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch popular products: %w", err)
	}

	return products, nil
}
