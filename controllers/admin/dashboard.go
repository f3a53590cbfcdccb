package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/models"
)

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GET /admin/dashboard
func GetDashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orderCounts []statusCount
		if err := db.Model(&models.Order{}).
			Select("status, count(*) as count").
			Group("status").
			Scan(&orderCounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate orders"})
			return
		}

		var paymentCounts []statusCount
		if err := db.Model(&models.Payment{}).
			Select("status, count(*) as count").
			Group("status").
			Scan(&paymentCounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate payments"})
			return
		}

		var revenue float64
		if err := db.Model(&models.Order{}).
			Where("payment_status = ?", models.PaymentStatusPaid).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&revenue).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
			return
		}

		var recent []models.Order
		if err := db.Preload("User").
			Order("created_at DESC").
			Limit(10).
			Find(&recent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent orders"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders_by_status":   orderCounts,
			"payments_by_status": paymentCounts,
			"revenue":            revenue,
			"recent_orders":      recent,
		})
	}
}
