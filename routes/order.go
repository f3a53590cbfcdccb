package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/rigforge/rigforge-api/controllers/order"
	"github.com/rigforge/rigforge-api/middleware"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		// Create a new order from a draft build
		orders.POST("/checkout", orderControllers.CheckoutHandler(db))

		// Fetch the caller's orders
		orders.GET("/", orderControllers.GetMyOrdersHandler(db))

		// Fetch a single order by id or order_ref
		orders.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))

		// Cancel a pending order
		orders.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(db))
	}
}
