package gateway

import (
	"errors"
	"time"

	"github.com/rigforge/rigforge-api/models"
)

var (
	// ErrEncoding means the QR image could not be produced. Infrastructure
	// failure, not user error.
	ErrEncoding = errors.New("failed to encode qr code")

	// ErrInvalidSignature means a webhook payload failed HMAC verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// InitiateRequest carries everything the gateway needs to open a payment.
type InitiateRequest struct {
	Method        models.PaymentMethod
	Amount        float64
	Currency      string
	OrderRef      string
	PaymentID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// InitiateResponse is the gateway's answer to an initiation. Method-specific
// fields are zero for methods that do not use them.
type InitiateResponse struct {
	GatewayOrderID string     `json:"gateway_order_id"`
	Timestamp      time.Time  `json:"timestamp"`
	RequiresOTP    bool       `json:"requires_otp"`
	OTPSentTo      string     `json:"otp_sent_to,omitempty"`
	RedirectURL    string     `json:"redirect_url,omitempty"`
	UPI            *UPIQRCode `json:"upi,omitempty"`
}

// UPIQRCode is a scannable payload for a UPI collect request.
type UPIQRCode struct {
	QRCode    string    `json:"qr_code"` // base64 PNG data URL
	UPIURL    string    `json:"upi_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyResult is the outcome of an OTP comparison round trip.
type VerifyResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProcessResult is the settlement outcome. The caller cannot predict it and
// must not retry it deterministically.
type ProcessResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Message       string `json:"message"`
}

// RefundResult acknowledges a refund request. The gateway does not track the
// refund; updating the payment record is the caller's responsibility.
type RefundResult struct {
	RefundID string `json:"refund_id"`
	ETA      string `json:"eta"`
}

// PaymentGateway is the surface the payment flow depends on. The simulator
// implements it; tests swap in deterministic fakes.
type PaymentGateway interface {
	GeneratePaymentID() string
	GenerateOTP() string
	GenerateUPIQRCode(amount float64, paymentID string) (*UPIQRCode, error)
	InitiatePayment(req InitiateRequest) (*InitiateResponse, error)
	VerifyOTP(paymentID, supplied, stored string) VerifyResult
	ProcessPayment(paymentID string, method models.PaymentMethod) ProcessResult
	CheckPaymentStatus(paymentID string) models.PaymentState
	InitiateRefund(paymentID string, amount float64, reason string) (*RefundResult, error)
	ValidateWebhookSignature(payload []byte, signature string) error
	SignWebhookPayload(payload []byte) string
}
