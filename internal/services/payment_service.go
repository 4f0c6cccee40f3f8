// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/config"
	"github.com/grocerly/grocerly-backend/internal/models"
)

// PaymentService handles card payments through Stripe. Cash-on-delivery
// orders never touch it: their payment rows are settled by the fulfillment
// transitions alone.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

type CreatePaymentIntentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
	OrderID         uuid.UUID `json:"order_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config) *PaymentService {
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
	}
}

// CreatePaymentIntent opens a Stripe intent for a card-paid order owned by
// the caller.
func (s *PaymentService) CreatePaymentIntent(owner OwnerRef, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var order models.Order
	query := s.db.Preload("Payment")
	if owner.UserID != nil {
		query = query.Where("user_id = ?", *owner.UserID)
	} else {
		query = query.Where("guest_id = ?", *owner.GuestID)
	}
	if err := query.First(&order, "orders.id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewServiceErrorf(ErrKindNotFound, "order %s not found", req.OrderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.Payment == nil || order.Payment.Method != models.PaymentMethodCard {
		return nil, NewServiceError(ErrKindValidation, "order is not payable by card")
	}
	if order.Payment.Status != models.PaymentStatusPending {
		return nil, NewServiceErrorf(ErrKindConflict, "payment is already %s", order.Payment.Status)
	}

	amountInCents := order.FinalTotal.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("order_id", order.ID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.db.Model(&models.Payment{}).Where("order_id = ?", order.ID).
		UpdateColumn("payment_reference", pi.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment syncs the payment row with the Stripe intent state.
func (s *PaymentService) ConfirmPayment(req *ConfirmPaymentRequest) error {
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return fmt.Errorf("failed to get payment intent: %w", err)
	}

	var payment models.Payment
	if err := s.db.Where("order_id = ?", req.OrderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewServiceErrorf(ErrKindNotFound, "payment for order %s not found", req.OrderID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if payment.PaymentReference != pi.ID {
		return NewServiceError(ErrKindValidation, "payment intent does not belong to this order")
	}

	var status models.PaymentStatus
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.PaymentStatusCompleted
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		status = models.PaymentStatusPending
	default:
		status = models.PaymentStatusFailed
	}

	updates := map[string]interface{}{"status": status}
	if status == models.PaymentStatusCompleted {
		updates["processed_at"] = gorm.Expr("NOW()")
	}
	if err := s.db.Model(&payment).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	return nil
}

// RefundCardPayment issues a Stripe refund for a captured intent. Called
// after an order with a completed card payment is cancelled; the payment
// row is already marked refunded by then.
func (s *PaymentService) RefundCardPayment(paymentReference string, amount decimal.Decimal) {
	amountInCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentReference),
		Amount:        stripe.Int64(amountInCents),
		Reason:        stripe.String("requested_by_customer"),
	}

	if _, err := refund.New(params); err != nil {
		logrus.WithError(err).WithField("payment_reference", paymentReference).
			Error("Failed to refund card payment")
	}
}
