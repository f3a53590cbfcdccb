package orderControllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/middleware"
	"github.com/rigforge/rigforge-api/models"
)

// -------- Request Structs --------

type CheckoutRequest struct {
	BuildID uint `json:"build_id" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// -------- Helpers --------

// Map string to OrderStatus
func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusInReview):
		return models.OrderStatusInReview, nil
	case string(models.OrderStatusApproved):
		return models.OrderStatusApproved, nil
	case string(models.OrderStatusInProgress):
		return models.OrderStatusInProgress, nil
	case string(models.OrderStatusShipped):
		return models.OrderStatusShipped, nil
	case string(models.OrderStatusCompleted):
		return models.OrderStatusCompleted, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", errors.New("invalid order status")
	}
}

// Generate unique order reference
func generateOrderRef() string {
	// Example: 20250908130500-<uuid4>
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// -------- Core Logic --------

// Checkout turns a draft build into an order: stock is reserved, the build is
// snapshotted verbatim onto the order, and the build locks against edits.
func Checkout(db *gorm.DB, userID string, buildID uint) (*models.Order, error) {
	var build models.Build
	if err := db.Preload("Items").First(&build, "id = ?", buildID).Error; err != nil {
		return nil, err
	}
	if build.UserID != userID {
		return nil, errors.New("build does not belong to you")
	}
	if build.Status != models.BuildStatusDraft {
		return nil, errors.New("build has already been ordered")
	}
	if len(build.Items) == 0 {
		return nil, errors.New("build has no components")
	}

	snapshot, err := json.Marshal(build)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = db.Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, item := range build.Items {
			// Guarded decrement so two checkouts cannot oversell a part
			res := tx.Model(&models.Component{}).
				Where("id = ? AND stock >= ?", item.ComponentID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errors.New("insufficient stock for component: " + item.ComponentName)
			}

			total += item.UnitPrice * float64(item.Quantity)
		}

		now := time.Now()
		order = models.Order{
			UserID:        userID,
			BuildID:       build.ID,
			BuildSnapshot: snapshot,
			TotalAmount:   total,
			Currency:      "INR",
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			OrderRef:      generateOrderRef(),
			CreatedAt:     now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    models.OrderStatusPending,
			Note:      "order placed",
			Timestamp: now,
		}).Error; err != nil {
			return err
		}

		// Lock the build against further edits
		return tx.Model(&build).Update("status", models.BuildStatusOrdered).Error
	})
	if err != nil {
		return nil, err
	}

	BroadcastOrderUpdate(order)
	return &order, nil
}

// -------- Handlers --------

// POST /orders/checkout (user)
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, err := Checkout(db, userID, req.BuildID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GET /orders (user's own orders)
func GetMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var orders []models.Order
		if err := db.
			Where("user_id = ?", userID).
			Preload("Timeline").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/:orderID (owner only)
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id := c.Param("orderID")

		var order models.Order
		// Accept numeric id or order_ref
		if err := db.
			Preload("Timeline").
			Where("id = ? OR order_ref = ?", id, id).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this order"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// POST /orders/:orderID/cancel (user; only pending orders)
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var order models.Order
		if err := db.First(&order, "id = ?", c.Param("orderID")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if order.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this order"})
			return
		}
		if order.Status != models.OrderStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": "only pending orders can be cancelled"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&order).Update("status", models.OrderStatusCancelled).Error; err != nil {
				return err
			}
			return tx.Create(&models.OrderTimelineEntry{
				OrderID:   order.ID,
				Status:    models.OrderStatusCancelled,
				Note:      "cancelled by customer",
				Timestamp: time.Now(),
			}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
			return
		}
		order.Status = models.OrderStatusCancelled

		BroadcastOrderUpdate(order)
		c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("User").
			Preload("Timeline").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PUT /admin/orders/:orderID/status
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := mapOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var order models.Order
		if err := db.First(&order, "id = ?", c.Param("orderID")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusCompleted {
			c.JSON(http.StatusConflict, gin.H{"error": "order is already " + string(order.Status)})
			return
		}

		note := req.Note
		if note == "" {
			note = "status updated by staff"
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&order).Update("status", newStatus).Error; err != nil {
				return err
			}
			return tx.Create(&models.OrderTimelineEntry{
				OrderID:   order.ID,
				Status:    newStatus,
				Note:      note,
				Timestamp: time.Now(),
			}).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
			return
		}
		order.Status = newStatus

		BroadcastOrderUpdate(order)
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
	}
}
