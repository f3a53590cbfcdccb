package paymentControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rigforge/rigforge-api/gateway"
)

var (
	ErrNotFound               = errors.New("payment not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrForbidden              = errors.New("you do not have access to this payment")
	ErrDuplicateActivePayment = errors.New("an active payment already exists for this order")
	ErrOtpExpired             = errors.New("otp has expired, request a new one")
	ErrMaxAttemptsExceeded    = errors.New("maximum otp attempts exceeded")
	ErrInvalidOtp             = errors.New("incorrect otp")
	ErrInvalidMethod          = errors.New("unsupported payment method")
	ErrIllegalTransition      = errors.New("payment is not in a state that allows this action")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrBadWebhookStatus       = errors.New("webhook status must be success or failed")

	// ErrInvalidSignature re-exports the gateway sentinel so callers need not
	// import both packages.
	ErrInvalidSignature = gateway.ErrInvalidSignature
)

// respondError maps the payment error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrDuplicateActivePayment), errors.Is(err, ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, ErrOtpExpired), errors.Is(err, ErrMaxAttemptsExceeded),
		errors.Is(err, ErrInvalidOtp), errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrBadWebhookStatus), errors.Is(err, ErrInvalidMethod):
		status = http.StatusBadRequest
	case errors.Is(err, ErrGatewayUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
