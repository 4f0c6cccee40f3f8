// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

// OrderService runs order placement as one atomic transaction and owns the
// fulfillment status lifecycle afterwards. Stock changes always go through
// the inventory service so the ledger stays reconcilable.
type OrderService struct {
	db                  *gorm.DB
	inventoryService    *InventoryService
	cartService         *CartService
	paymentService      *PaymentService
	notificationService *NotificationService
	pricing             PricingHook
}

// PricingHook computes shipping fees and discount for an order. Coupon and
// carrier pricing plug in here; the default charges nothing.
type PricingHook interface {
	Price(totalProductsPrice decimal.Decimal, itemCount int) (shippingFees, discount decimal.Decimal)
}

type freePricing struct{}

func (freePricing) Price(_ decimal.Decimal, _ int) (decimal.Decimal, decimal.Decimal) {
	return decimal.Zero, decimal.Zero
}

// StandardPricing charges a flat shipping fee, waived above the free
// shipping threshold. No discounts.
type StandardPricing struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func (p StandardPricing) Price(totalProductsPrice decimal.Decimal, _ int) (decimal.Decimal, decimal.Decimal) {
	if p.FreeShippingThreshold.IsPositive() && totalProductsPrice.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero, decimal.Zero
	}
	return p.ShippingFee, decimal.Zero
}

// OwnerRef identifies the order owner: a registered user or a guest,
// never both.
type OwnerRef struct {
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	GuestID *uuid.UUID `json:"guest_id,omitempty"`
}

func (o OwnerRef) Validate() error {
	if (o.UserID == nil) == (o.GuestID == nil) {
		return NewServiceError(ErrKindValidation, "order owner must be exactly one of user or guest")
	}
	return nil
}

type PlaceOrderItem struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

type ShippingInfo struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"required,max=30"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required,max=100"`
	Notes   string `json:"notes,omitempty"`
}

type PlaceOrderRequest struct {
	Items         []PlaceOrderItem     `json:"items" validate:"required,min=1,dive"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	Shipping      ShippingInfo         `json:"shipping" validate:"required"`
}

type OrderSummary struct {
	OrderID            uuid.UUID          `json:"order_id"`
	Status             models.OrderStatus `json:"status"`
	TotalProductsPrice decimal.Decimal    `json:"total_products_price"`
	ShippingFees       decimal.Decimal    `json:"shipping_fees"`
	DiscountAmount     decimal.Decimal    `json:"discount_amount"`
	FinalTotal         decimal.Decimal    `json:"final_total"`
	ItemCount          int                `json:"item_count"`
	CreatedAt          time.Time          `json:"created_at"`
}

type StatusChange struct {
	OrderID   uuid.UUID          `json:"order_id"`
	OldStatus models.OrderStatus `json:"old_status"`
	NewStatus models.OrderStatus `json:"new_status"`
}

func NewOrderService(db *gorm.DB, inventoryService *InventoryService, cartService *CartService, paymentService *PaymentService, notificationService *NotificationService) *OrderService {
	return &OrderService{
		db:                  db,
		inventoryService:    inventoryService,
		cartService:         cartService,
		paymentService:      paymentService,
		notificationService: notificationService,
		pricing:             freePricing{},
	}
}

// SetPricingHook replaces the default free shipping/no discount pricing.
func (s *OrderService) SetPricingHook(hook PricingHook) {
	if hook != nil {
		s.pricing = hook
	}
}

// PlaceOrder validates stock, captures price/cost snapshots, decrements
// inventory and clears the cart as one all-or-nothing transaction. Any
// failure rolls back everything: no partial stock decrement, no orphan
// order rows.
func (s *OrderService) PlaceOrder(owner OwnerRef, req *PlaceOrderRequest) (*OrderSummary, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, NewServiceErrorf(ErrKindValidation, "validation failed: %v", err)
	}

	if len(req.Items) == 0 {
		return nil, NewServiceError(ErrKindValidation, "order must contain at least one item")
	}

	for _, item := range req.Items {
		if !item.Quantity.IsPositive() {
			return nil, NewServiceErrorf(ErrKindValidation, "quantity for product %s must be positive", item.ProductID)
		}
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCashOnDelivery
	}
	if method != models.PaymentMethodCashOnDelivery && method != models.PaymentMethodCard {
		return nil, NewServiceErrorf(ErrKindValidation, "unsupported payment method %q", method)
	}

	var summary *OrderSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Resolve one snapshot per product; availability is evaluated
		// against stock at check time.
		snapshots := make(map[uuid.UUID]*StockSnapshot)
		totalProductsPrice := decimal.Zero

		for _, item := range req.Items {
			snapshot, ok := snapshots[item.ProductID]
			if !ok {
				var err error
				snapshot, err = s.inventoryService.CheckAndReserve(tx, item.ProductID, item.Quantity)
				if err != nil {
					return err
				}
				snapshots[item.ProductID] = snapshot
			}
			totalProductsPrice = totalProductsPrice.Add(snapshot.Price.Mul(item.Quantity))
		}

		shippingFees, discount := s.pricing.Price(totalProductsPrice, len(req.Items))
		finalTotal := totalProductsPrice.Add(shippingFees).Sub(discount)

		order := &models.Order{
			UserID:             owner.UserID,
			GuestID:            owner.GuestID,
			Status:             models.OrderStatusCreated,
			TotalProductsPrice: totalProductsPrice,
			ShippingFees:       shippingFees,
			DiscountAmount:     discount,
			FinalTotal:         finalTotal,
			ShippingName:       req.Shipping.Name,
			ShippingPhone:      req.Shipping.Phone,
			ShippingAddress:    req.Shipping.Address,
			ShippingCity:       req.Shipping.City,
			ShippingNotes:      req.Shipping.Notes,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range req.Items {
			snapshot := snapshots[item.ProductID]

			orderItem := &models.OrderItem{
				OrderID:             order.ID,
				ProductID:           item.ProductID,
				Quantity:            item.Quantity,
				PriceAtPurchase:     snapshot.Price,
				CostPriceAtPurchase: snapshot.CostPrice,
			}
			if err := tx.Create(orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}

			if err := s.inventoryService.ApplyDelta(tx, item.ProductID, item.Quantity.Neg(), models.StockReasonPurchase, &order.ID); err != nil {
				return err
			}

			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
				UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error; err != nil {
				return fmt.Errorf("failed to update sales count: %w", err)
			}
		}

		payment := &models.Payment{
			OrderID: order.ID,
			Method:  method,
			Amount:  finalTotal,
			Status:  models.PaymentStatusPending,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if err := appendStatusHistory(tx, order.ID, nil, models.OrderStatusCreated); err != nil {
			return err
		}

		if err := s.cartService.ClearCartTx(tx, owner); err != nil {
			return err
		}

		summary = &OrderSummary{
			OrderID:            order.ID,
			Status:             order.Status,
			TotalProductsPrice: totalProductsPrice,
			ShippingFees:       shippingFees,
			DiscountAmount:     discount,
			FinalTotal:         finalTotal,
			ItemCount:          len(req.Items),
			CreatedAt:          order.CreatedAt,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.notificationService != nil && owner.UserID != nil {
		go s.notificationService.SendOrderConfirmation(*owner.UserID, summary.OrderID)
	}

	return summary, nil
}

// CancelOwnOrder is the self-service cancellation. Only the owning
// registered user may call it, and only while the order is still in
// created: the window closes once the order ships.
func (s *OrderService) CancelOwnOrder(orderID, userID uuid.UUID) (*OrderSummary, error) {
	var summary *OrderSummary
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", orderID, userID).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Wrong owner and missing order are indistinguishable to
				// the caller.
				return NewServiceErrorf(ErrKindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if order.Status != models.OrderStatusCreated {
			return invalidTransitionError(order.Status, models.OrderStatusCancelled)
		}

		if err := s.cancelOrderTx(tx, &order); err != nil {
			return err
		}

		summary = orderSummaryOf(&order)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return summary, nil
}

// AdminSetStatus drives any admin-side transition. Target must be one of
// shipped, delivered or cancelled; the transition table decides legality.
func (s *OrderService) AdminSetStatus(orderID uuid.UUID, newStatus models.OrderStatus) (*StatusChange, error) {
	if !models.ValidOrderStatus(newStatus) || newStatus == models.OrderStatusCreated {
		return nil, NewServiceErrorf(ErrKindValidation, "invalid target status %q", newStatus)
	}

	var change *StatusChange
	var notifyUserID *uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewServiceErrorf(ErrKindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return invalidTransitionError(order.Status, newStatus)
		}

		oldStatus := order.Status

		switch newStatus {
		case models.OrderStatusShipped:
			if err := s.setStatusTx(tx, &order, models.OrderStatusShipped, nil); err != nil {
				return err
			}

		case models.OrderStatusDelivered:
			now := time.Now()
			if err := s.setStatusTx(tx, &order, models.OrderStatusDelivered, &now); err != nil {
				return err
			}
			if err := s.updatePaymentStatusTx(tx, order.ID, models.PaymentStatusCompleted); err != nil {
				return err
			}

		case models.OrderStatusCancelled:
			if err := s.cancelOrderTx(tx, &order); err != nil {
				return err
			}
		}

		change = &StatusChange{OrderID: order.ID, OldStatus: oldStatus, NewStatus: newStatus}
		if order.UserID != nil {
			notifyUserID = order.UserID
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.notificationService != nil && notifyUserID != nil {
		go s.notificationService.SendOrderStatusUpdate(*notifyUserID, orderID, newStatus)
	}

	return change, nil
}

// cancelOrderTx is the single cancellation routine shared by self-service
// and admin cancellation: restock every item, flip the status, append the
// history row and cancel the payment.
func (s *OrderService) cancelOrderTx(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	for _, item := range items {
		if err := s.inventoryService.ApplyDelta(tx, item.ProductID, item.Quantity, models.StockReasonCancellation, &order.ID); err != nil {
			return err
		}
	}

	if err := s.setStatusTx(tx, order, models.OrderStatusCancelled, nil); err != nil {
		return err
	}

	return s.cancelPaymentTx(tx, order)
}

// setStatusTx updates the order status and appends the history row with the
// state held immediately prior.
func (s *OrderService) setStatusTx(tx *gorm.DB, order *models.Order, newStatus models.OrderStatus, deliveredAt *time.Time) error {
	oldStatus := order.Status

	updates := map[string]interface{}{"status": newStatus}
	if deliveredAt != nil {
		updates["delivered_at"] = deliveredAt
	}
	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = newStatus
	order.DeliveredAt = deliveredAt

	return appendStatusHistory(tx, order.ID, &oldStatus, newStatus)
}

func (s *OrderService) cancelPaymentTx(tx *gorm.DB, order *models.Order) error {
	var payment models.Payment
	if err := tx.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}

	newStatus := models.PaymentStatusCancelled
	needsRefund := payment.Status == models.PaymentStatusCompleted &&
		payment.Method == models.PaymentMethodCard && payment.PaymentReference != ""
	if needsRefund {
		newStatus = models.PaymentStatusRefunded
	}

	updates := map[string]interface{}{"status": newStatus}
	if needsRefund {
		now := time.Now()
		updates["refunded_at"] = now
	}
	if err := tx.Model(&payment).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if needsRefund && s.paymentService != nil {
		// Stripe call happens outside the database transaction.
		reference := payment.PaymentReference
		amount := payment.Amount
		go s.paymentService.RefundCardPayment(reference, amount)
	}

	return nil
}

func (s *OrderService) updatePaymentStatusTx(tx *gorm.DB, orderID uuid.UUID, status models.PaymentStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == models.PaymentStatusCompleted {
		now := time.Now()
		updates["processed_at"] = now
	}
	if err := tx.Model(&models.Payment{}).Where("order_id = ?", orderID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

func (s *OrderService) GetOrder(orderID uuid.UUID, owner *OwnerRef) (*models.Order, error) {
	query := s.db.Preload("Items").Preload("Items.Product").Preload("Payment").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC")
		})

	// Admin callers pass a nil owner and see any order.
	if owner != nil {
		if err := owner.Validate(); err != nil {
			return nil, err
		}
		if owner.UserID != nil {
			query = query.Where("user_id = ?", *owner.UserID)
		} else {
			query = query.Where("guest_id = ?", *owner.GuestID)
		}
	}

	var order models.Order
	if err := query.First(&order, "orders.id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "order %s not found", orderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &order, nil
}

// GetOrderStatusHistory returns every transition in strictly increasing
// changed_at order.
func (s *OrderService) GetOrderStatusHistory(orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var count int64
	if err := s.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, NewServiceErrorf(ErrKindNotFound, "order %s not found", orderID)
	}

	var history []models.OrderStatusHistory
	if err := s.db.Where("order_id = ?", orderID).
		Order("changed_at ASC").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}

	return history, nil
}

func (s *OrderService) ListOwnerOrders(owner OwnerRef, params utils.PaginationParams) ([]models.Order, int64, error) {
	if err := owner.Validate(); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.Order{}).Preload("Items").Preload("Payment")
	if owner.UserID != nil {
		query = query.Where("user_id = ?", *owner.UserID)
	} else {
		query = query.Where("guest_id = ?", *owner.GuestID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "final_total", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

type AdminOrderFilter struct {
	utils.PaginationParams
	Status        *models.OrderStatus `json:"status,omitempty"`
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	CreatedAfter  *time.Time          `json:"created_after,omitempty"`
	CreatedBefore *time.Time          `json:"created_before,omitempty"`
}

func (s *OrderService) ListOrders(filter AdminOrderFilter) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Preload("Payment")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "final_total", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func appendStatusHistory(tx *gorm.DB, orderID uuid.UUID, oldStatus *models.OrderStatus, newStatus models.OrderStatus) error {
	row := &models.OrderStatusHistory{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func invalidTransitionError(current, target models.OrderStatus) *ServiceError {
	return NewServiceErrorf(ErrKindInvalidTransition,
		"order status cannot change from %s to %s", current, target).
		WithDetails(map[string]interface{}{
			"current": current,
			"target":  target,
		})
}

func orderSummaryOf(order *models.Order) *OrderSummary {
	return &OrderSummary{
		OrderID:            order.ID,
		Status:             order.Status,
		TotalProductsPrice: order.TotalProductsPrice,
		ShippingFees:       order.ShippingFees,
		DiscountAmount:     order.DiscountAmount,
		FinalTotal:         order.FinalTotal,
		CreatedAt:          order.CreatedAt,
	}
}
