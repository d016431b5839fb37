// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildops/materials-backend/internal/config"
	"github.com/buildops/materials-backend/internal/handlers"
	"github.com/buildops/materials-backend/internal/middleware"
	"github.com/buildops/materials-backend/internal/services"
	"github.com/buildops/materials-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	catalogService := services.NewCatalogService(db)
	discountService := services.NewDiscountService(db)
	inventoryService := services.NewInventoryService(db)
	reorderService := services.NewReorderService(db, inventoryService, notificationService)
	procurementService := services.NewProcurementService(db, catalogService)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(catalogService)
	discountHandler := handlers.NewDiscountHandler(discountService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, reorderService)
	procurementHandler := handlers.NewProcurementHandler(procurementService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
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
		// Product catalog routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)
			products.GET("/:id/price-history", productHandler.GetPriceHistory)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.DeactivateProduct)
				protected.POST("/:id/variants", productHandler.AddVariant)
			}
		}

		// Discount routes
		discounts := v1.Group("/discounts")
		{
			discounts.GET("", middleware.OptionalAuth(), discountHandler.GetDiscounts)
			discounts.GET("/:id", middleware.OptionalAuth(), discountHandler.GetDiscount)

			protected := discounts.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", discountHandler.CreateDiscount)
				protected.PUT("/:id", discountHandler.UpdateDiscount)
				protected.DELETE("/:id", discountHandler.DeactivateDiscount)
				protected.POST("/:id/apply", middleware.ApplyRateLimit(), discountHandler.ApplyDiscount)
				protected.POST("/apply-all", middleware.ApplyRateLimit(), discountHandler.ApplyAllDiscounts)
			}
		}

		// Inventory routes
		inventory := v1.Group("/inventory")
		inventory.Use(middleware.AuthRequired())
		{
			inventory.POST("", inventoryHandler.CreateOrUpdateInventory)
			inventory.GET("", inventoryHandler.GetInventoryByProduct)
			inventory.GET("/low-stock", inventoryHandler.GetLowStock)
			inventory.GET("/:id", inventoryHandler.GetInventory)
			inventory.POST("/:id/transactions", inventoryHandler.AddTransaction)
			inventory.GET("/:id/transactions", inventoryHandler.GetTransactions)
			inventory.PUT("/:id/units/:serial", inventoryHandler.UpdateSerializedUnit)
			inventory.GET("/:id/reconcile", inventoryHandler.Reconcile)
		}

		// Procurement routes (read-only conversion contract)
		procurement := v1.Group("/procurement")
		procurement.Use(middleware.AuthRequired())
		{
			procurement.POST("/group", procurementHandler.GroupRequestLines)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
