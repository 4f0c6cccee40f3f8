// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/grocerly/grocerly-backend/internal/models"
)

func TestOwnerRefValidate(t *testing.T) {
	userID := uuid.New()
	guestID := uuid.New()

	assert.NoError(t, OwnerRef{UserID: &userID}.Validate())
	assert.NoError(t, OwnerRef{GuestID: &guestID}.Validate())

	assert.Error(t, OwnerRef{}.Validate())
	assert.Error(t, OwnerRef{UserID: &userID, GuestID: &guestID}.Validate())
}

func TestStandardPricingChargesBelowThreshold(t *testing.T) {
	pricing := StandardPricing{
		ShippingFee:           decimal.RequireFromString("5.00"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
	}

	shipping, discount := pricing.Price(decimal.RequireFromString("49.99"), 3)
	assert.True(t, shipping.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, discount.IsZero())
}

func TestStandardPricingWaivesAtThreshold(t *testing.T) {
	pricing := StandardPricing{
		ShippingFee:           decimal.RequireFromString("5.00"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
	}

	shipping, _ := pricing.Price(decimal.RequireFromString("50.00"), 1)
	assert.True(t, shipping.IsZero())

	shipping, _ = pricing.Price(decimal.RequireFromString("120.00"), 1)
	assert.True(t, shipping.IsZero())
}

func TestStandardPricingWithoutThresholdAlwaysCharges(t *testing.T) {
	pricing := StandardPricing{ShippingFee: decimal.RequireFromString("3.50")}

	shipping, _ := pricing.Price(decimal.RequireFromString("999.00"), 10)
	assert.True(t, shipping.Equal(decimal.RequireFromString("3.50")))
}

func TestFreePricingChargesNothing(t *testing.T) {
	shipping, discount := freePricing{}.Price(decimal.RequireFromString("10.00"), 1)
	assert.True(t, shipping.IsZero())
	assert.True(t, discount.IsZero())
}

func TestInvalidTransitionErrorCarriesDetails(t *testing.T) {
	err := invalidTransitionError(models.OrderStatusDelivered, models.OrderStatusShipped)

	assert.Equal(t, ErrKindInvalidTransition, err.Kind)
	assert.Equal(t, models.OrderStatusDelivered, err.Details["current"])
	assert.Equal(t, models.OrderStatusShipped, err.Details["target"])
}
