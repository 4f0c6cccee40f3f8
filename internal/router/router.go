// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/internal/config"
	"github.com/grocerly/grocerly-backend/internal/handlers"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/internal/services"
	"github.com/grocerly/grocerly-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	inventoryService := services.NewInventoryService(db)
	cartService := services.NewCartService(db)
	paymentService := services.NewPaymentService(db, cfg)
	orderService := services.NewOrderService(db, inventoryService, cartService, paymentService, notificationService)
	orderService.SetPricingHook(services.StandardPricing{
		ShippingFee:           cfg.Order.ShippingFee,
		FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
	})

	authService := services.NewAuthService(db, cfg, cartService)
	productService := services.NewProductService(db, inventoryService)
	categoryService := services.NewCategoryService(db)
	reviewService := services.NewReviewService(db)
	reportService := services.NewReportService(db, cfg.Order.LowStockThreshold)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, categoryService, reviewService, storageService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, storageService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(orderService, inventoryService, reviewService, reportService, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	var origins []string
	if cfg.Frontend.BaseURL != "" {
		origins = []string{cfg.Frontend.BaseURL}
	}
	r.Use(middleware.CORS(origins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/guest", authHandler.StartGuestSession)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Catalog routes (public)
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/popular", productHandler.GetPopularProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)
			products.GET("/:id/reviews", productHandler.GetProductReviews)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategoryTree)
			categories.GET("/:id/ancestors", categoryHandler.GetAncestors)
		}

		// Cart routes: registered users and guests
		cart := v1.Group("/cart")
		cart.Use(middleware.OptionalAuth(), middleware.GuestSession())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		// Order routes: placement open to users and guests, cancellation to
		// the owning user only
		orders := v1.Group("/orders")
		orders.Use(middleware.OptionalAuth(), middleware.GuestSession())
		{
			orders.POST("", middleware.CheckoutRateLimit(), orderHandler.PlaceOrder)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/history", orderHandler.GetOrderHistory)
			orders.POST("/:id/cancel", middleware.AuthRequired(), orderHandler.CancelOrder)
		}

		// Review routes
		reviews := v1.Group("/reviews")
		reviews.Use(middleware.AuthRequired())
		{
			reviews.POST("", reviewHandler.CreateReview)
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.OptionalAuth(), middleware.GuestSession())
		{
			payments.POST("/intent", paymentHandler.CreatePaymentIntent)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.PUT("/:id", productHandler.UpdateProduct)
				adminProducts.DELETE("/:id", productHandler.DeleteProduct)
				adminProducts.POST("/upload-images", middleware.UploadRateLimit(), productHandler.UploadProductImages)
				adminProducts.POST("/:id/stock", adminHandler.AdjustStock)
				adminProducts.POST("/:id/stock/reconcile", adminHandler.ReconcileStock)
				adminProducts.GET("/:id/stock/history", adminHandler.GetStockHistory)
			}

			adminCategories := admin.Group("/categories")
			{
				adminCategories.POST("", categoryHandler.CreateCategory)
				adminCategories.PUT("/:id", categoryHandler.UpdateCategory)
				adminCategories.DELETE("/:id", categoryHandler.DeleteCategory)
				adminCategories.POST("/:id/image", middleware.UploadRateLimit(), categoryHandler.UploadCategoryImage)
			}

			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("", adminHandler.GetOrders)
				adminOrders.GET("/:id", adminHandler.GetOrder)
				adminOrders.PUT("/:id/status", adminHandler.SetOrderStatus)
			}

			adminReviews := admin.Group("/reviews")
			{
				adminReviews.PUT("/:id/status", adminHandler.SetReviewStatus)
			}

			adminReports := admin.Group("/reports")
			{
				adminReports.GET("/dashboard", adminHandler.GetDashboard)
				adminReports.GET("/profits", adminHandler.GetProductProfits)
				adminReports.GET("/low-stock", adminHandler.GetLowStockProducts)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
