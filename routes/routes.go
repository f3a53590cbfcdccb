package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/auth"
	orderControllers "github.com/rigforge/rigforge-api/controllers/order"
	paymentControllers "github.com/rigforge/rigforge-api/controllers/payment"
	"github.com/rigforge/rigforge-api/gateway"
	"github.com/rigforge/rigforge-api/notify"
)

// SetupRoutes is the single entry-point that wires up all route groups and
// their collaborators.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	notifier := notify.LogNotifier{}
	codes := auth.NewVerificationCache()

	gw := gateway.NewSimulator()
	paymentSvc := paymentControllers.NewService(db, gw, notifier)
	paymentSvc.SetBroadcast(orderControllers.BroadcastOrderUpdate)

	// Public auth routes (no middleware)
	SetupAuthRoutes(r, db, codes, notifier)

	// User routes (JWT-protected)
	SetupUserRoutes(r, db)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db, paymentSvc)

	// Order routes
	SetupOrderRoutes(r, db)

	// Payment routes
	SetupPaymentRoutes(r, paymentSvc, gw)
}
