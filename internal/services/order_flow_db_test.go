// internal/services/order_flow_db_test.go
package services

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grocerly/grocerly-backend/internal/config"
	"github.com/grocerly/grocerly-backend/internal/database"
	"github.com/grocerly/grocerly-backend/internal/models"
)

// OrderFlowSuite exercises placement, cancellation and the inventory ledger
// against a real Postgres database. Set TEST_DATABASE_URL to run it.
type OrderFlowSuite struct {
	suite.Suite
	db               *gorm.DB
	inventoryService *InventoryService
	cartService      *CartService
	orderService     *OrderService
}

func TestOrderFlowSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(OrderFlowSuite))
}

func (s *OrderFlowSuite) SetupSuite() {
	db, err := gorm.Open(postgres.Open(os.Getenv("TEST_DATABASE_URL")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))

	s.db = db
	s.inventoryService = NewInventoryService(db)
	s.cartService = NewCartService(db)
	paymentService := NewPaymentService(db, &config.Config{})
	s.orderService = NewOrderService(db, s.inventoryService, s.cartService, paymentService, nil)
}

func (s *OrderFlowSuite) createUser() *models.User {
	n := uuid.New().String()[:8]
	user := &models.User{
		Username: "buyer_" + n,
		Email:    fmt.Sprintf("buyer_%s@example.com", n),
	}
	s.Require().NoError(user.SetPassword("Str0ngPass!word"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *OrderFlowSuite) createProduct(price, cost, stock string) *models.Product {
	product := &models.Product{
		Name:      "Gala Apples " + uuid.New().String()[:8],
		Price:     decimal.RequireFromString(price),
		CostPrice: decimal.RequireFromString(cost),
		SaleType:  models.SaleTypeUnit,
		IsActive:  true,
	}
	s.Require().NoError(s.db.Create(product).Error)

	initial := decimal.RequireFromString(stock)
	if initial.IsPositive() {
		s.Require().NoError(s.db.Transaction(func(tx *gorm.DB) error {
			return s.inventoryService.ApplyDelta(tx, product.ID, initial, models.StockReasonAdminAdd, nil)
		}))
		product.StockQuantity = initial
	}
	return product
}

func (s *OrderFlowSuite) placeOrder(user *models.User, product *models.Product, qty string) *OrderSummary {
	summary, err := s.orderService.PlaceOrder(
		OwnerRef{UserID: &user.ID},
		&PlaceOrderRequest{
			Items: []PlaceOrderItem{
				{ProductID: product.ID, Quantity: decimal.RequireFromString(qty)},
			},
			Shipping: testShipping(),
		},
	)
	s.Require().NoError(err)
	return summary
}

func testShipping() ShippingInfo {
	return ShippingInfo{
		Name:    "Pat Buyer",
		Phone:   "555-0101",
		Address: "1 Market St",
		City:    "Springfield",
	}
}

func (s *OrderFlowSuite) currentStock(productID uuid.UUID) decimal.Decimal {
	var product models.Product
	s.Require().NoError(s.db.First(&product, productID).Error)
	return product.StockQuantity
}

func (s *OrderFlowSuite) TestPlacementDecrementsStockAndWritesLedger() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "10")

	summary := s.placeOrder(user, product, "4")

	s.True(summary.TotalProductsPrice.Equal(decimal.RequireFromString("14.00")))
	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("6")))

	var ledger []models.StockTransaction
	s.Require().NoError(s.db.Where("product_id = ?", product.ID).
		Order("created_at ASC").Find(&ledger).Error)
	s.Require().Len(ledger, 2)
	s.Equal(models.StockReasonPurchase, ledger[1].Reason)
	s.True(ledger[1].QuantityChange.Equal(decimal.RequireFromString("-4")))
	s.Require().NotNil(ledger[1].RelatedOrderID)
	s.Equal(summary.OrderID, *ledger[1].RelatedOrderID)
}

func (s *OrderFlowSuite) TestInsufficientStockRollsBackEverything() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "3")

	_, err := s.orderService.PlaceOrder(
		OwnerRef{UserID: &user.ID},
		&PlaceOrderRequest{
			Items: []PlaceOrderItem{
				{ProductID: product.ID, Quantity: decimal.RequireFromString("5")},
			},
			Shipping: testShipping(),
		},
	)
	s.Require().Error(err)
	s.True(IsKind(err, ErrKindInsufficientStock))

	// Nothing was written: stock unchanged, no order, only the seed ledger row.
	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("3")))

	var orderCount int64
	s.Require().NoError(s.db.Model(&models.Order{}).
		Where("user_id = ?", user.ID).Count(&orderCount).Error)
	s.Zero(orderCount)

	var ledgerCount int64
	s.Require().NoError(s.db.Model(&models.StockTransaction{}).
		Where("product_id = ?", product.ID).Count(&ledgerCount).Error)
	s.EqualValues(1, ledgerCount)
}

func (s *OrderFlowSuite) TestSnapshotsSurviveCatalogPriceChange() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "10")

	summary := s.placeOrder(user, product, "2")

	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"price": "9.99", "cost_price": "7.00"}).Error)

	var item models.OrderItem
	s.Require().NoError(s.db.Where("order_id = ?", summary.OrderID).First(&item).Error)
	s.True(item.PriceAtPurchase.Equal(decimal.RequireFromString("3.50")))
	s.True(item.CostPriceAtPurchase.Equal(decimal.RequireFromString("2.00")))
}

func (s *OrderFlowSuite) TestCancelRestocksAndAppendsHistory() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "10")

	summary := s.placeOrder(user, product, "4")
	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("6")))

	_, err := s.orderService.CancelOwnOrder(summary.OrderID, user.ID)
	s.Require().NoError(err)

	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("10")))

	history, err := s.orderService.GetOrderStatusHistory(summary.OrderID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Nil(history[0].OldStatus)
	s.Equal(models.OrderStatusCreated, history[0].NewStatus)
	s.Equal(models.OrderStatusCancelled, history[1].NewStatus)

	var payment models.Payment
	s.Require().NoError(s.db.Where("order_id = ?", summary.OrderID).First(&payment).Error)
	s.Equal(models.PaymentStatusCancelled, payment.Status)
}

func (s *OrderFlowSuite) TestShippedOrderRejectsSelfCancel() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "10")

	summary := s.placeOrder(user, product, "1")

	_, err := s.orderService.AdminSetStatus(summary.OrderID, models.OrderStatusShipped)
	s.Require().NoError(err)

	_, err = s.orderService.CancelOwnOrder(summary.OrderID, user.ID)
	s.Require().Error(err)
	s.True(IsKind(err, ErrKindInvalidTransition))
	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("9")))
}

func (s *OrderFlowSuite) TestDeliveredIsTerminal() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "10")

	summary := s.placeOrder(user, product, "1")

	_, err := s.orderService.AdminSetStatus(summary.OrderID, models.OrderStatusShipped)
	s.Require().NoError(err)
	_, err = s.orderService.AdminSetStatus(summary.OrderID, models.OrderStatusDelivered)
	s.Require().NoError(err)

	order, err := s.orderService.GetOrder(summary.OrderID, nil)
	s.Require().NoError(err)
	s.NotNil(order.DeliveredAt)
	s.Require().NotNil(order.Payment)
	s.Equal(models.PaymentStatusCompleted, order.Payment.Status)

	_, err = s.orderService.AdminSetStatus(summary.OrderID, models.OrderStatusCancelled)
	s.Require().Error(err)
	s.True(IsKind(err, ErrKindInvalidTransition))
}

func (s *OrderFlowSuite) TestLedgerSumMatchesStockAfterMixedActivity() {
	user := s.createUser()
	product := s.createProduct("3.50", "2.00", "20")

	first := s.placeOrder(user, product, "5")
	s.placeOrder(user, product, "3")
	_, err := s.orderService.CancelOwnOrder(first.OrderID, user.ID)
	s.Require().NoError(err)

	_, err = s.inventoryService.AdjustStockAdmin(product.ID, &AdjustStockRequest{
		Delta:  decimal.RequireFromString("-2"),
		Reason: models.StockReasonAdminRemove,
	})
	s.Require().NoError(err)

	reconciliation, err := s.inventoryService.ReconcileStock(product.ID)
	s.Require().NoError(err)
	s.True(reconciliation.Drift.IsZero())
	s.False(reconciliation.Corrected)
	s.True(reconciliation.LedgerSum.Equal(decimal.RequireFromString("15")))
}

func (s *OrderFlowSuite) TestReconcileCorrectsForcedDrift() {
	product := s.createProduct("3.50", "2.00", "10")

	// Bypass the ledger to simulate drift.
	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("stock_quantity", decimal.RequireFromString("13")).Error)

	reconciliation, err := s.inventoryService.ReconcileStock(product.ID)
	s.Require().NoError(err)
	s.True(reconciliation.Corrected)
	s.True(reconciliation.Drift.Equal(decimal.RequireFromString("3")))
	s.True(s.currentStock(product.ID).Equal(decimal.RequireFromString("10")))
}

func (s *OrderFlowSuite) TestConcurrentPlacementNeverOversells() {
	product := s.createProduct("3.50", "2.00", "1")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		user := s.createUser()
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, results[i] = s.orderService.PlaceOrder(
				OwnerRef{UserID: &userID},
				&PlaceOrderRequest{
					Items: []PlaceOrderItem{
						{ProductID: product.ID, Quantity: decimal.RequireFromString("1")},
					},
					Shipping: testShipping(),
				},
			)
		}(i, user.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			s.True(IsKind(err, ErrKindInsufficientStock))
		}
	}
	s.Equal(1, succeeded)
	s.True(s.currentStock(product.ID).IsZero())
}
