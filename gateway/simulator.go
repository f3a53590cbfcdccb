package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"net/url"
	"os"
	"time"

	"github.com/rigforge/rigforge-api/models"
)

// Simulator stands in for a real payment gateway. All operations are local:
// identifiers are fabricated, delays are simulated, and settlement outcomes
// are random. No real money moves.
type Simulator struct {
	MerchantName  string
	MerchantVPA   string
	WebhookSecret []byte
	BaseURL       string // used for the simulated netbanking redirect

	InitiateDelay time.Duration
	VerifyDelay   time.Duration
	ProcessDelay  time.Duration
	StatusDelay   time.Duration

	// SuccessRate is the probability ProcessPayment settles successfully.
	SuccessRate float64

	// Rand supplies the settlement dice roll; tests replace it to force
	// deterministic outcomes.
	Rand func() float64

	nowFunc func() time.Time
}

// NewSimulator builds a Simulator from the environment with sane defaults.
func NewSimulator() *Simulator {
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		secret = "rigforge-dev-webhook-secret"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	merchant := os.Getenv("MERCHANT_NAME")
	if merchant == "" {
		merchant = "RigForge Custom PCs"
	}
	vpa := os.Getenv("MERCHANT_VPA")
	if vpa == "" {
		vpa = "rigforge@simbank"
	}

	return &Simulator{
		MerchantName:  merchant,
		MerchantVPA:   vpa,
		WebhookSecret: []byte(secret),
		BaseURL:       baseURL,
		InitiateDelay: time.Second,
		VerifyDelay:   500 * time.Millisecond,
		ProcessDelay:  2 * time.Second,
		StatusDelay:   300 * time.Millisecond,
		SuccessRate:   0.9,
		Rand:          mathrand.Float64,
		nowFunc:       time.Now,
	}
}

// GeneratePaymentID returns a fresh high-entropy payment identifier.
func (s *Simulator) GeneratePaymentID() string {
	return "pay_" + randomHex(16)
}

// GenerateOTP returns a uniformly random 6-digit code (100000-999999).
func (s *Simulator) GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return "000000"
	}
	return fmt.Sprintf("%d", 100000+n.Int64())
}

// GenerateUPIQRCode builds a upi:// collect URI for the amount and payment id
// and encodes it as a scannable PNG.
func (s *Simulator) GenerateUPIQRCode(amount float64, paymentID string) (*UPIQRCode, error) {
	upiURL := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=INR&tr=%s",
		s.MerchantVPA, url.QueryEscape(s.MerchantName), amount, paymentID)

	png, err := encodeQRPNG(upiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	return &UPIQRCode{
		QRCode:    png,
		UPIURL:    upiURL,
		ExpiresAt: s.nowFunc().Add(15 * time.Minute),
	}, nil
}

// InitiatePayment simulates the gateway round trip that opens a payment and
// returns method-specific next-step details.
func (s *Simulator) InitiatePayment(req InitiateRequest) (*InitiateResponse, error) {
	time.Sleep(s.InitiateDelay)

	resp := &InitiateResponse{
		GatewayOrderID: "gord_" + randomHex(10),
		Timestamp:      s.nowFunc(),
	}

	switch req.Method {
	case models.MethodUPI:
		qr, err := s.GenerateUPIQRCode(req.Amount, req.PaymentID)
		if err != nil {
			return nil, err
		}
		resp.UPI = qr
	case models.MethodCard, models.MethodWallet:
		resp.RequiresOTP = true
		resp.OTPSentTo = maskPhone(req.CustomerPhone)
	case models.MethodNetbanking:
		resp.RedirectURL = fmt.Sprintf("%s/payments/netbanking/redirect?payment_id=%s", s.BaseURL, req.PaymentID)
	case models.MethodCOD, models.MethodEMI:
		// nothing beyond the base response
	}

	return resp, nil
}

// maskPhone keeps the first six and last two digits of a 10-digit number and
// masks the rest. Anything else is passed through unchanged.
func maskPhone(phone string) string {
	if len(phone) != 10 {
		return phone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return phone
		}
	}
	return phone[:6] + "****" + phone[8:]
}

// VerifyOTP compares the supplied and stored codes after a short simulated
// delay. Attempt limits and expiry are the caller's policy, not the gateway's.
func (s *Simulator) VerifyOTP(paymentID, supplied, stored string) VerifyResult {
	time.Sleep(s.VerifyDelay)

	if supplied == stored {
		return VerifyResult{Success: true, Status: "verified", Message: "OTP verified successfully"}
	}
	return VerifyResult{Success: false, Status: "failed", Message: "Incorrect OTP"}
}

// ProcessPayment settles a payment after a simulated processing delay. It
// succeeds with probability SuccessRate; the outcome cannot be predicted or
// deterministically retried.
func (s *Simulator) ProcessPayment(paymentID string, method models.PaymentMethod) ProcessResult {
	time.Sleep(s.ProcessDelay)

	if s.Rand() < s.SuccessRate {
		return ProcessResult{
			Success:       true,
			TransactionID: "txn_" + randomHex(12),
			Message:       "Payment processed successfully",
		}
	}
	return ProcessResult{
		Success:   false,
		ErrorCode: "PAYMENT_DECLINED",
		Message:   "Payment declined by issuing bank",
	}
}

// CheckPaymentStatus returns a random status after a short delay. It is a
// stub: the answer is NOT authoritative. Real status must be read from the
// stored payment record, never from this call.
func (s *Simulator) CheckPaymentStatus(paymentID string) models.PaymentState {
	time.Sleep(s.StatusDelay)

	all := []models.PaymentState{
		models.PaymentStatePending,
		models.PaymentStateProcessing,
		models.PaymentStateSuccess,
		models.PaymentStateFailed,
		models.PaymentStateCancelled,
		models.PaymentStateRefunded,
	}
	return all[int(s.Rand()*float64(len(all)))%len(all)]
}

// InitiateRefund acknowledges a refund request with a fabricated id and ETA.
// It does not mark the payment refunded; that update is the caller's job.
func (s *Simulator) InitiateRefund(paymentID string, amount float64, reason string) (*RefundResult, error) {
	time.Sleep(s.InitiateDelay)

	return &RefundResult{
		RefundID: "rfnd_" + randomHex(10),
		ETA:      "5-7 business days",
	}, nil
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "rand_fallback"
	}
	return hex.EncodeToString(bytes)
}
