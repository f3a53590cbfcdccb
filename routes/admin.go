package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminController "github.com/rigforge/rigforge-api/controllers/admin"
	componentController "github.com/rigforge/rigforge-api/controllers/component"
	orderControllers "github.com/rigforge/rigforge-api/controllers/order"
	paymentControllers "github.com/rigforge/rigforge-api/controllers/payment"
	userControllers "github.com/rigforge/rigforge-api/controllers/user"
	"github.com/rigforge/rigforge-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-Key middleware.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, paymentSvc *paymentControllers.Service) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		// ─────────── Dashboard & Users ───────────
		adminGroup.GET("/dashboard", adminController.GetDashboard(db))
		adminGroup.GET("/users", userControllers.GetAllUsers(db))

		// ─────────── Component Catalog ───────────
		componentAdmin := adminGroup.Group("/components")
		{
			componentAdmin.POST("", componentController.CreateComponent(db))
			componentAdmin.PUT("/:id", componentController.UpdateComponent(db))
			componentAdmin.GET("", componentController.GetComponents(db))
			componentAdmin.DELETE("/:id", componentController.DeleteComponent(db))
			componentAdmin.GET("/export-excel", componentController.ExportComponentsToExcel(db))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(db))
			orderAdmin.PUT("/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))
			orderAdmin.GET("/export-excel", orderControllers.ExportOrdersToExcel(db))

			// websocket endpoint for real-time order updates
			orderAdmin.GET("/ws", orderControllers.OrderWebSocketHandler)
		}

		// ─────────── Refunds ───────────
		adminGroup.POST("/payments/:paymentID/refund", paymentControllers.RefundPaymentHandler(paymentSvc))
	}
}
