package routes

import (
	"github.com/gin-gonic/gin"

	paymentControllers "github.com/rigforge/rigforge-api/controllers/payment"
	"github.com/rigforge/rigforge-api/gateway"
	"github.com/rigforge/rigforge-api/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, svc *paymentControllers.Service, gw gateway.PaymentGateway) {
	payments := r.Group("/payments")
	{
		// Webhook endpoint: middleware verifies the gateway signature
		payments.POST("/webhook",
			middleware.WebhookAuth(gw),
			paymentControllers.WebhookHandler(svc),
		)

		authed := payments.Group("")
		authed.Use(middleware.ValidateToken)
		{
			authed.POST("/initiate", paymentControllers.InitiatePaymentHandler(svc))
			authed.POST("/verify-otp", paymentControllers.VerifyOTPHandler(svc))
			authed.POST("/resend-otp", paymentControllers.ResendOTPHandler(svc))
			authed.GET("/status/:paymentID", paymentControllers.PaymentStatusHandler(svc))
			authed.POST("/cancel/:paymentID", paymentControllers.CancelPaymentHandler(svc))
			authed.GET("/my-payments", paymentControllers.MyPaymentsHandler(svc))
		}
	}
}
