package router

import (
	"art_studio_backend/internal/handlers"
	"art_studio_backend/internal/middleware"
	"art_studio_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes sets up the booking routes.
func SetupBookingRoutes(authenticatedGroup *gin.RouterGroup, bookingHandler *handlers.BookingHandler) {
	bookingRoutes := authenticatedGroup.Group("/bookings")
	bookingRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		bookingRoutes.POST("", bookingHandler.CreateBooking)
		bookingRoutes.GET("", bookingHandler.GetBookings)
		bookingRoutes.GET("/capacity", bookingHandler.CheckCapacity)
		bookingRoutes.GET("/:id", bookingHandler.GetBookingByID)
		bookingRoutes.PUT("/:id", bookingHandler.UpdateBooking)
		bookingRoutes.PATCH("/:id/cancel", bookingHandler.CancelBooking)
		bookingRoutes.PATCH("/:id/complete", bookingHandler.CompleteBooking)
		bookingRoutes.DELETE("/:id", bookingHandler.DeleteBooking)
		bookingRoutes.GET("/:id/inventory-logs", bookingHandler.GetBookingInventoryLogs)
	}
}

// SetupInventoryRoutes sets up inventory catalogue, audit and purchase routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		inventoryRoutes.POST("", inventoryHandler.CreateItem)
		inventoryRoutes.GET("", inventoryHandler.GetItems)
		inventoryRoutes.GET("/:id", inventoryHandler.GetItemByID)
		inventoryRoutes.PUT("/:id", inventoryHandler.UpdateItem)
		inventoryRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), inventoryHandler.DeleteItem)
		inventoryRoutes.GET("/:id/logs", inventoryHandler.GetItemLogs)
		inventoryRoutes.GET("/:id/price-history", inventoryHandler.GetPriceHistory)
		inventoryRoutes.GET("/:id/purchases", inventoryHandler.GetPurchases)
		inventoryRoutes.POST("/:id/purchases", inventoryHandler.RecordPurchase)
		inventoryRoutes.DELETE("/:id/purchases/:logId", middleware.RoleAuthMiddleware(models.RoleAdmin), inventoryHandler.ReversePurchase)
	}
}

// SetupCostOfSaleRoutes sets up the consumption recipe routes (Admin only).
func SetupCostOfSaleRoutes(authenticatedGroup *gin.RouterGroup, costOfSaleHandler *handlers.CostOfSaleHandler) {
	costOfSaleRoutes := authenticatedGroup.Group("/cost-of-sale")
	costOfSaleRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		costOfSaleRoutes.GET("", costOfSaleHandler.List)
		costOfSaleRoutes.POST("", costOfSaleHandler.Create)
		costOfSaleRoutes.PUT("/:id", costOfSaleHandler.Update)
		costOfSaleRoutes.DELETE("/:id", costOfSaleHandler.Delete)
	}
}

// SetupSettingsRoutes sets up the settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	{
		settingsRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff), settingHandler.GetSettings)
		settingsRoutes.PUT("", middleware.RoleAuthMiddleware(models.RoleAdmin), settingHandler.UpdateSettings)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		reportRoutes.GET("/inventory", reportHandler.GetInventoryReport)
		reportRoutes.GET("/inventory/export", reportHandler.ExportInventoryReport)
		reportRoutes.GET("/cogs", reportHandler.GetCostOfGoodsSold)
	}
}
