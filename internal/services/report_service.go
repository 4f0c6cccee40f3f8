// internal/services/report_service.go
package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/models"
)

// ReportService runs the admin dashboard aggregations. Revenue and profit
// come from the order item snapshots, so later catalog price changes never
// rewrite history.
type ReportService struct {
	db                *gorm.DB
	lowStockThreshold decimal.Decimal
}

type DashboardStats struct {
	TotalOrders     int64            `json:"total_orders"`
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	OrdersThisMonth int64            `json:"orders_this_month"`
	TotalRevenue    decimal.Decimal  `json:"total_revenue"`
	MonthlyRevenue  decimal.Decimal  `json:"monthly_revenue"`
	TotalProfit     decimal.Decimal  `json:"total_profit"`
	TotalCustomers  int64            `json:"total_customers"`
	ActiveProducts  int64            `json:"active_products"`
	LowStockCount   int64            `json:"low_stock_count"`
	RevenueGrowth   float64          `json:"revenue_growth"`
}

type ProductProfitRow struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold decimal.Decimal `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Profit    decimal.Decimal `json:"profit"`
}

type LowStockRow struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	SaleType      models.SaleType `json:"sale_type"`
}

func NewReportService(db *gorm.DB, lowStockThreshold decimal.Decimal) *ReportService {
	return &ReportService{db: db, lowStockThreshold: lowStockThreshold}
}

func (s *ReportService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[string]int64),
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		TotalProfit:    decimal.Zero,
	}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// Order statistics
	s.db.Model(&models.Order{}).Count(&stats.TotalOrders)
	s.db.Model(&models.Order{}).Where("created_at >= ?", monthStart).Count(&stats.OrdersThisMonth)

	var statusCounts []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, row := range statusCounts {
		stats.OrdersByStatus[string(row.Status)] = row.Count
	}

	// Revenue from delivered orders
	s.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusDelivered).
		Select("COALESCE(SUM(final_total), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Order{}).
		Where("status = ? AND created_at >= ?", models.OrderStatusDelivered, monthStart).
		Select("COALESCE(SUM(final_total), 0)").Scan(&stats.MonthlyRevenue)

	// Profit from the snapshot columns of delivered orders
	s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.OrderStatusDelivered).
		Select("COALESCE(SUM((order_items.price_at_purchase - order_items.cost_price_at_purchase) * order_items.quantity), 0)").
		Scan(&stats.TotalProfit)

	// Customer and product statistics
	s.db.Model(&models.User{}).Where("role = ?", models.UserRoleCustomer).Count(&stats.TotalCustomers)
	s.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts)
	s.db.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= ?", true, s.lowStockThreshold).Count(&stats.LowStockCount)

	// Growth against last month
	var lastMonthRevenue decimal.Decimal
	s.db.Model(&models.Order{}).
		Where("status = ? AND created_at >= ? AND created_at < ?",
			models.OrderStatusDelivered, lastMonthStart, monthStart).
		Select("COALESCE(SUM(final_total), 0)").Scan(&lastMonthRevenue)

	if lastMonthRevenue.IsPositive() {
		growth := stats.MonthlyRevenue.Sub(lastMonthRevenue).
			Div(lastMonthRevenue).Mul(decimal.NewFromInt(100))
		stats.RevenueGrowth, _ = growth.Float64()
	}

	return stats, nil
}

// GetProductProfits ranks products by profit over delivered orders using
// the immutable snapshot columns.
func (s *ReportService) GetProductProfits(limit int) ([]ProductProfitRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows []ProductProfitRow
	if err := s.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ?", models.OrderStatusDelivered).
		Select(`order_items.product_id AS product_id,
			products.name AS name,
			COALESCE(SUM(order_items.quantity), 0) AS units_sold,
			COALESCE(SUM(order_items.price_at_purchase * order_items.quantity), 0) AS revenue,
			COALESCE(SUM((order_items.price_at_purchase - order_items.cost_price_at_purchase) * order_items.quantity), 0) AS profit`).
		Group("order_items.product_id, products.name").
		Order("profit DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate product profits: %w", err)
	}

	return rows, nil
}

func (s *ReportService) GetLowStockProducts(threshold decimal.Decimal, limit int) ([]LowStockRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if threshold.IsNegative() {
		threshold = s.lowStockThreshold
	}

	var rows []LowStockRow
	if err := s.db.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= ?", true, threshold).
		Select("id AS product_id, name, stock_quantity, sale_type").
		Order("stock_quantity ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch low stock products: %w", err)
	}

	return rows, nil
}
