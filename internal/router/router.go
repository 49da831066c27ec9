package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"art_studio_backend/internal/config"
	"art_studio_backend/internal/handlers"
	"art_studio_backend/internal/middleware"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config, tokens *utils.TokenManager) {
	tx := repositories.NewTransactor(db)
	policy := services.InventoryPolicy{AllowNegativeStock: cfg.Inventory.AllowNegativeStock}

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository()
	inventoryRepo := repositories.NewInventoryRepository()
	logRepo := repositories.NewInventoryLogRepository()
	costOfSaleRepo := repositories.NewCostOfSaleRepository()
	bookingRepo := repositories.NewBookingRepository()
	settingRepo := repositories.NewSettingRepository()
	expenseRepo := repositories.NewExpenseRepository()

	// Initialize Services
	authService := services.NewAuthService(authRepo, db, tokens)
	settingService := services.NewSettingService(settingRepo, db, cfg.Booking.DefaultMaxPersonsPerClass)
	capacityService := services.NewCapacityService(bookingRepo, settingService, db)
	consumptionService := services.NewConsumptionService(inventoryRepo, logRepo, costOfSaleRepo, tx, policy)
	purchaseService := services.NewPurchaseService(inventoryRepo, logRepo, expenseRepo, tx, policy)
	inventoryService := services.NewInventoryService(inventoryRepo, logRepo, db, tx, policy)
	costOfSaleService := services.NewCostOfSaleService(costOfSaleRepo, inventoryRepo, db)
	bookingService := services.NewBookingService(bookingRepo, logRepo, capacityService, consumptionService, db, tx)
	reportService := services.NewReportService(inventoryRepo, logRepo, settingService, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, purchaseService)
	costOfSaleHandler := handlers.NewCostOfSaleHandler(costOfSaleService)
	settingHandler := handlers.NewSettingHandler(settingService)
	reportHandler := handlers.NewReportHandler(reportService)

	SetupOpsRoutes(engine, db, cfg.Metrics.Enabled)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupBookingRoutes(authenticated, bookingHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupCostOfSaleRoutes(authenticated, costOfSaleHandler)
		SetupSettingsRoutes(authenticated, settingHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}

// SetupOpsRoutes registers liveness, readiness and metrics endpoints.
func SetupOpsRoutes(engine *gin.Engine, db *sql.DB, exposeMetrics bool) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			utils.LogError(err, "Health check: database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	if exposeMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}
