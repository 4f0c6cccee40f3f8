// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerly/grocerly-backend/internal/config"
	"github.com/grocerly/grocerly-backend/internal/i18n"
	"github.com/grocerly/grocerly-backend/internal/models"
	"github.com/grocerly/grocerly-backend/internal/services"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

type AdminHandler struct {
	orderService     *services.OrderService
	inventoryService *services.InventoryService
	reviewService    *services.ReviewService
	reportService    *services.ReportService
	cfg              *config.Config
}

func NewAdminHandler(orderService *services.OrderService, inventoryService *services.InventoryService, reviewService *services.ReviewService, reportService *services.ReportService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		orderService:     orderService,
		inventoryService: inventoryService,
		reviewService:    reviewService,
		reportService:    reportService,
		cfg:              cfg,
	}
}

// GET /admin/orders
func (h *AdminHandler) GetOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminOrderFilter{PaginationParams: params}

	if status := c.Query("status"); status != "" {
		orderStatus := models.OrderStatus(status)
		filter.Status = &orderStatus
	}

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			filter.UserID = &userID
		}
	}

	if afterStr := c.Query("created_after"); afterStr != "" {
		if after, err := time.Parse(time.RFC3339, afterStr); err == nil {
			filter.CreatedAfter = &after
		}
	}

	if beforeStr := c.Query("created_before"); beforeStr != "" {
		if before, err := time.Parse(time.RFC3339, beforeStr); err == nil {
			filter.CreatedBefore = &before
		}
	}

	orders, total, err := h.orderService.ListOrders(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(orderID, nil)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"order": order})
}

// PUT /admin/orders/:id/status
func (h *AdminHandler) SetOrderStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	change, err := h.orderService.AdminSetStatus(orderID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderStatusUpdated),
		"change":  change,
	})
}

// POST /admin/products/:id/stock
func (h *AdminHandler) AdjustStock(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	adjustment, err := h.inventoryService.AdjustStockAdmin(productID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeyStockAdjusted),
		"adjustment": adjustment,
	})
}

// POST /admin/products/:id/stock/reconcile
func (h *AdminHandler) ReconcileStock(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reconciliation, err := h.inventoryService.ReconcileStock(productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":        i18n.T(lang, i18n.KeyStockReconciled),
		"reconciliation": reconciliation,
	})
}

// GET /admin/products/:id/stock/history
func (h *AdminHandler) GetStockHistory(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	history, total, err := h.inventoryService.GetStockHistory(productID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(history, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/reviews/:id/status
func (h *AdminHandler) SetReviewStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.ReviewStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	review, err := h.reviewService.SetReviewStatus(reviewID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminActionSuccess),
		"review":  review,
	})
}

// GET /admin/reports/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.reportService.GetDashboardStats()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/reports/profits
func (h *AdminHandler) GetProductProfits(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := h.reportService.GetProductProfits(limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"products": rows})
}

// GET /admin/reports/low-stock
func (h *AdminHandler) GetLowStockProducts(c *gin.Context) {
	threshold := h.cfg.Order.LowStockThreshold
	if thresholdStr := c.Query("threshold"); thresholdStr != "" {
		if parsed, err := decimal.NewFromString(thresholdStr); err == nil && !parsed.IsNegative() {
			threshold = parsed
		}
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	rows, err := h.reportService.GetLowStockProducts(threshold, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"products": rows})
}
