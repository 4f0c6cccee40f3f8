// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

type UpdateCartItemRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

type CartSnapshot struct {
	Items    []models.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) AddItem(owner OwnerRef, req *AddCartItemRequest) (*models.CartItem, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if !req.Quantity.IsPositive() {
		return nil, NewServiceError(ErrKindValidation, "quantity must be positive")
	}

	var product models.Product
	if err := s.db.Where("id = ? AND is_active = ?", req.ProductID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "product %s not found", req.ProductID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var item models.CartItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := ownerScope(tx.Model(&models.CartItem{}), owner).
			Where("product_id = ?", req.ProductID)

		var existing models.CartItem
		if err := query.First(&existing).Error; err == nil {
			// Same product again accumulates quantity.
			newQuantity := existing.Quantity.Add(req.Quantity)
			if err := tx.Model(&existing).UpdateColumn("quantity", newQuantity).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			existing.Quantity = newQuantity
			item = existing
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		item = models.CartItem{
			UserID:    owner.UserID,
			GuestID:   owner.GuestID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create cart item: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.db.Preload("Product").First(&item, item.ID)
	return &item, nil
}

func (s *CartService) UpdateItem(owner OwnerRef, itemID uuid.UUID, req *UpdateCartItemRequest) (*models.CartItem, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if !req.Quantity.IsPositive() {
		return nil, NewServiceError(ErrKindValidation, "quantity must be positive")
	}

	var item models.CartItem
	if err := ownerScope(s.db.Model(&models.CartItem{}), owner).
		Where("id = ?", itemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "cart item %s not found", itemID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&item).UpdateColumn("quantity", req.Quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Quantity = req.Quantity

	s.db.Preload("Product").First(&item, item.ID)
	return &item, nil
}

func (s *CartService) RemoveItem(owner OwnerRef, itemID uuid.UUID) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	result := ownerScope(s.db, owner).Where("id = ?", itemID).Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewServiceErrorf(ErrKindNotFound, "cart item %s not found", itemID)
	}
	return nil
}

// GetCart returns the cart with a subtotal computed from current catalog
// prices. The subtotal is advisory; order placement re-resolves prices and
// snapshots them.
func (s *CartService) GetCart(owner OwnerRef) (*CartSnapshot, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := ownerScope(s.db.Model(&models.CartItem{}), owner).
		Preload("Product").Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Product.Price.Mul(item.Quantity))
	}

	return &CartSnapshot{Items: items, Subtotal: subtotal}, nil
}

// ClearCartTx deletes all of an owner's cart items inside the caller's
// transaction. Order placement relies on this running in the same
// transaction as the order insert.
func (s *CartService) ClearCartTx(tx *gorm.DB, owner OwnerRef) error {
	if err := ownerScope(tx, owner).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) ClearCart(owner OwnerRef) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	if err := ownerScope(s.db, owner).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// MergeGuestCart moves a guest cart into the user's cart at login,
// accumulating quantities where both carts hold the same product.
func (s *CartService) MergeGuestCart(guestID, userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var guestItems []models.CartItem
		if err := tx.Where("guest_id = ?", guestID).Find(&guestItems).Error; err != nil {
			return fmt.Errorf("failed to fetch guest cart: %w", err)
		}

		for _, guestItem := range guestItems {
			var userItem models.CartItem
			err := tx.Where("user_id = ? AND product_id = ?", userID, guestItem.ProductID).
				First(&userItem).Error
			switch {
			case err == nil:
				if err := tx.Model(&userItem).
					UpdateColumn("quantity", userItem.Quantity.Add(guestItem.Quantity)).Error; err != nil {
					return fmt.Errorf("failed to merge cart item: %w", err)
				}
				if err := tx.Delete(&guestItem).Error; err != nil {
					return fmt.Errorf("failed to delete guest cart item: %w", err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Model(&guestItem).Updates(map[string]interface{}{
					"user_id":  userID,
					"guest_id": nil,
				}).Error; err != nil {
					return fmt.Errorf("failed to reassign guest cart item: %w", err)
				}
			default:
				return fmt.Errorf("database error: %w", err)
			}
		}

		return nil
	})
}

func ownerScope(db *gorm.DB, owner OwnerRef) *gorm.DB {
	if owner.UserID != nil {
		return db.Where("user_id = ?", *owner.UserID)
	}
	return db.Where("guest_id = ?", *owner.GuestID)
}
