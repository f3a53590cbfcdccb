package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rigforge/rigforge-api/gateway"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookAuth verifies the gateway webhook signature over the raw body before
// any record is touched. The body is restored for the downstream handler.
func WebhookAuth(gw gateway.PaymentGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read webhook body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader(SignatureHeader)
		if signature == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook signature"})
			c.Abort()
			return
		}

		if err := gw.ValidateWebhookSignature(body, signature); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
