package paymentControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rigforge/rigforge-api/middleware"
)

type verifyOTPRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	OTP       string `json:"otp" binding:"required"`
}

type resendOTPRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// POST /payments/initiate
func InitiatePaymentHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req InitiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		result, err := svc.Initiate(userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// POST /payments/verify-otp
func VerifyOTPHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req verifyOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		payment, err := svc.VerifyOTP(userID, req.PaymentID, req.OTP)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "OTP verified, payment is processing",
			"payment": payment,
		})
	}
}

// POST /payments/resend-otp
func ResendOTPHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req resendOTPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if _, err := svc.ResendOTP(userID, req.PaymentID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "A new OTP has been sent"})
	}
}

// GET /payments/status/:paymentID
func PaymentStatusHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		payment, err := svc.Status(userID, c.Param("paymentID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

// POST /payments/cancel/:paymentID
func CancelPaymentHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		payment, err := svc.Cancel(userID, c.Param("paymentID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment cancelled",
			"payment": payment,
		})
	}
}

// GET /payments/my-payments
func MyPaymentsHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		payments, err := svc.MyPayments(userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

// POST /payments/webhook
// Signature verification has already happened in middleware.WebhookAuth.
func WebhookHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload: " + err.Error()})
			return
		}
		if err := svc.HandleWebhook(payload); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// POST /admin/payments/:paymentID/refund
func RefundPaymentHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		payment, err := svc.Refund(c.Param("paymentID"), req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Refund issued",
			"payment": payment,
		})
	}
}
