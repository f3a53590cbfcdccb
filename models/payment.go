package models

import "time"

type PaymentState string
type PaymentMethod string

const (
	// Payment lifecycle (payment record level, distinct from Order.PaymentStatus)
	PaymentStatePending    PaymentState = "pending"    // Created, awaiting OTP or gateway hand-off
	PaymentStateProcessing PaymentState = "processing" // Handed to the gateway, settlement pending
	PaymentStateSuccess    PaymentState = "success"    // Gateway confirmed the charge
	PaymentStateFailed     PaymentState = "failed"     // Gateway declined the charge
	PaymentStateCancelled  PaymentState = "cancelled"  // Abandoned by the customer
	PaymentStateRefunded   PaymentState = "refunded"   // Refund issued against a successful charge

	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodNetbanking PaymentMethod = "netbanking"
	MethodWallet     PaymentMethod = "wallet"
	MethodEMI        PaymentMethod = "emi"
	MethodCOD        PaymentMethod = "cash_on_delivery"
)

// RequiresOTP reports whether the method needs an OTP step before processing.
func (m PaymentMethod) RequiresOTP() bool {
	return m == MethodCard || m == MethodWallet
}

// IsTerminal reports whether no further lifecycle transitions are expected.
func (s PaymentState) IsTerminal() bool {
	switch s {
	case PaymentStateSuccess, PaymentStateFailed, PaymentStateCancelled, PaymentStateRefunded:
		return true
	}
	return false
}

// IsActive reports whether the payment counts against the one-active-payment-
// per-order rule.
func (s PaymentState) IsActive() bool {
	switch s {
	case PaymentStatePending, PaymentStateProcessing, PaymentStateSuccess:
		return true
	}
	return false
}

// ActivePaymentStates is the set used for the duplicate-initiation guard.
var ActivePaymentStates = []PaymentState{
	PaymentStatePending, PaymentStateProcessing, PaymentStateSuccess,
}

// VerificationOTP lives only on card and wallet payments.
type VerificationOTP struct {
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	Verified  bool      `gorm:"default:false" json:"verified"`
}

// UPIDetails is populated only for method = upi.
type UPIDetails struct {
	VPA          string    `json:"vpa,omitempty"`
	QRCode       string    `json:"qr_code,omitempty"` // base64 PNG data URL
	UPIURL       string    `json:"upi_url,omitempty"`
	QRCodeExpiry time.Time `json:"qr_code_expiry,omitempty"`
}

type Payment struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	PaymentID string        `gorm:"uniqueIndex;not null" json:"payment_id"` // gateway-facing id, distinct from the row id
	OrderID   uint          `gorm:"index;not null" json:"order_id"`
	UserID    string        `gorm:"index;not null" json:"user_id"`
	Method    PaymentMethod `gorm:"type:VARCHAR(20);not null" json:"method"`
	SubMethod string        `json:"sub_method,omitempty"` // free-form, e.g. "visa", "paytm"
	Amount    float64       `json:"amount"`
	Currency  string        `gorm:"type:VARCHAR(3);default:'INR'" json:"currency"`
	Status    PaymentState  `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`

	GatewayOrderID       string `json:"gateway_order_id,omitempty"`
	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
	FailureReason        string `json:"failure_reason,omitempty"`

	OTP VerificationOTP `gorm:"embedded;embeddedPrefix:otp_" json:"otp"`
	UPI UPIDetails      `gorm:"embedded;embeddedPrefix:upi_" json:"upi"`

	RefundID     string `json:"refund_id,omitempty"`
	RefundReason string `json:"refund_reason,omitempty"`

	// Timeline is append-only; entries are never updated or removed.
	Timeline []PaymentTimelineEntry `gorm:"foreignKey:PaymentRecordID;constraint:OnDelete:CASCADE" json:"timeline"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentTimelineEntry struct {
	ID              uint         `gorm:"primaryKey" json:"-"`
	PaymentRecordID uint         `gorm:"index" json:"-"`
	Status          PaymentState `gorm:"type:VARCHAR(20)" json:"status"`
	Message         string       `json:"message"`
	GatewayResponse string       `json:"gateway_response,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}
