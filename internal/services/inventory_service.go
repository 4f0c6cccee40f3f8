// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

// InventoryService owns product stock. Stock is only ever mutated through
// ApplyDelta, which pairs the quantity change with exactly one append-only
// StockTransaction row in the same database transaction.
type InventoryService struct {
	db *gorm.DB
}

type StockSnapshot struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SaleType      models.SaleType `json:"sale_type"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
}

type StockAdjustment struct {
	ProductID uuid.UUID       `json:"product_id"`
	Previous  decimal.Decimal `json:"previous"`
	Delta     decimal.Decimal `json:"delta"`
	New       decimal.Decimal `json:"new"`
}

type StockReconciliation struct {
	ProductID uuid.UUID       `json:"product_id"`
	Recorded  decimal.Decimal `json:"recorded"`
	LedgerSum decimal.Decimal `json:"ledger_sum"`
	Drift     decimal.Decimal `json:"drift"`
	Corrected bool            `json:"corrected"`
}

type AdjustStockRequest struct {
	Delta  decimal.Decimal    `json:"delta" validate:"required"`
	Reason models.StockReason `json:"reason" validate:"required"`
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// CheckAndReserve locks the product row and verifies availability. It does
// not mutate stock; the caller decrements through ApplyDelta inside the same
// transaction so check and decrement stay atomic.
func (s *InventoryService) CheckAndReserve(tx *gorm.DB, productID uuid.UUID, quantity decimal.Decimal) (*StockSnapshot, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "product %s not found", productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if quantity.GreaterThan(product.StockQuantity) {
		return nil, insufficientStockError(&product)
	}

	return &StockSnapshot{
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		CostPrice:     product.CostPrice,
		SaleType:      product.SaleType,
		StockQuantity: product.StockQuantity,
	}, nil
}

// ApplyDelta adjusts stock by a signed quantity and appends the ledger row.
// The decrement is a conditional update so two concurrent purchases can
// never both pass the availability check and drive stock negative.
func (s *InventoryService) ApplyDelta(tx *gorm.DB, productID uuid.UUID, delta decimal.Decimal, reason models.StockReason, relatedOrderID *uuid.UUID) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productID, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the product is gone or the delta would go negative.
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "product %s not found", productID)
			}
			return fmt.Errorf("database error: %w", err)
		}
		return insufficientStockError(&product)
	}

	stockTx := &models.StockTransaction{
		ProductID:      productID,
		QuantityChange: delta,
		Reason:         reason,
		RelatedOrderID: relatedOrderID,
	}
	if err := tx.Create(stockTx).Error; err != nil {
		return fmt.Errorf("failed to record stock transaction: %w", err)
	}

	return nil
}

// AdjustStockAdmin is the admin-facing stock correction. The reason is
// restricted to the admin reason codes and its sign must match the delta.
func (s *InventoryService) AdjustStockAdmin(productID uuid.UUID, req *AdjustStockRequest) (*StockAdjustment, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if !req.Reason.IsAdminReason() {
		return nil, NewServiceErrorf(ErrKindValidation, "reason must be %s or %s", models.StockReasonAdminAdd, models.StockReasonAdminRemove)
	}

	if req.Delta.IsZero() {
		return nil, NewServiceError(ErrKindValidation, "delta must be non-zero")
	}

	if req.Reason == models.StockReasonAdminAdd && req.Delta.IsNegative() {
		return nil, NewServiceError(ErrKindValidation, "admin_add requires a positive delta")
	}

	if req.Reason == models.StockReasonAdminRemove && req.Delta.IsPositive() {
		return nil, NewServiceError(ErrKindValidation, "admin_remove requires a negative delta")
	}

	var adjustment *StockAdjustment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "product %s not found", productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		previous := product.StockQuantity

		if err := s.ApplyDelta(tx, productID, req.Delta, req.Reason, nil); err != nil {
			return err
		}

		adjustment = &StockAdjustment{
			ProductID: productID,
			Previous:  previous,
			Delta:     req.Delta,
			New:       previous.Add(req.Delta),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return adjustment, nil
}

// ReconcileStock recomputes stock from the ledger and corrects drift. With
// every mutation going through ApplyDelta the two should always agree; this
// is the consistency check that proves it.
func (s *InventoryService) ReconcileStock(productID uuid.UUID) (*StockReconciliation, error) {
	var reconciliation *StockReconciliation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "product %s not found", productID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		var ledgerSum decimal.Decimal
		if err := tx.Model(&models.StockTransaction{}).
			Where("product_id = ?", productID).
			Select("COALESCE(SUM(quantity_change), 0)").
			Scan(&ledgerSum).Error; err != nil {
			return fmt.Errorf("failed to sum stock transactions: %w", err)
		}

		drift := product.StockQuantity.Sub(ledgerSum)
		corrected := false
		if !drift.IsZero() {
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).
				UpdateColumn("stock_quantity", ledgerSum).Error; err != nil {
				return fmt.Errorf("failed to correct stock: %w", err)
			}
			corrected = true
		}

		reconciliation = &StockReconciliation{
			ProductID: productID,
			Recorded:  product.StockQuantity,
			LedgerSum: ledgerSum,
			Drift:     drift,
			Corrected: corrected,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return reconciliation, nil
}

func (s *InventoryService) GetStockHistory(productID uuid.UUID, params utils.PaginationParams) ([]models.StockTransaction, int64, error) {
	query := s.db.Model(&models.StockTransaction{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "quantity_change", "reason"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.StockTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock transactions: %w", err)
	}

	return transactions, total, nil
}

func insufficientStockError(product *models.Product) *ServiceError {
	unit := product.SaleType.Unit()
	return NewServiceErrorf(ErrKindInsufficientStock,
		"product %q has insufficient stock: %s %s available",
		product.Name, product.StockQuantity.String(), unit).
		WithDetails(map[string]interface{}{
			"product_id": product.ID,
			"available":  product.StockQuantity,
			"unit":       unit,
		})
}
