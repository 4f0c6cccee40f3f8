// internal/models/order_status_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	allStatuses := []OrderStatus{
		OrderStatusCreated,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusCreated:   {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}

	for from, targets := range allowed {
		allowedSet := make(map[OrderStatus]bool)
		for _, to := range targets {
			allowedSet[to] = true
		}

		for _, to := range allStatuses {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowedSet[to], got, "transition %s -> %s", from, to)
		}
	}
}

func TestOrderStatusSkippingShippedIsRejected(t *testing.T) {
	assert.False(t, OrderStatusCreated.CanTransitionTo(OrderStatusDelivered))
}

func TestOrderStatusNeverBackToCreated(t *testing.T) {
	for _, from := range []OrderStatus{OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		assert.False(t, from.CanTransitionTo(OrderStatusCreated), "from %s", from)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusCreated.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusShipped))
	assert.False(t, ValidOrderStatus(OrderStatus("pending")))
}

func TestSaleTypeUnit(t *testing.T) {
	assert.Equal(t, "kg", SaleTypeWeight.Unit())
	assert.Equal(t, "unit", SaleTypeUnit.Unit())
}

func TestStockReasonIsAdminReason(t *testing.T) {
	assert.True(t, StockReasonAdminAdd.IsAdminReason())
	assert.True(t, StockReasonAdminRemove.IsAdminReason())
	assert.False(t, StockReasonPurchase.IsAdminReason())
	assert.False(t, StockReasonCancellation.IsAdminReason())
}
