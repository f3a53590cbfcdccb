package paymentControllers

import (
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/rigforge/rigforge-api/gateway"
	"github.com/rigforge/rigforge-api/models"
	"github.com/rigforge/rigforge-api/notify"
)

const (
	otpValidity    = 5 * time.Minute
	maxOTPAttempts = 3
)

// Service drives a Payment and its Order through their status lifecycles. It
// is the only writer of Payment records; settlement runs as a scheduled
// continuation detached from the originating request.
type Service struct {
	db          *gorm.DB
	gw          gateway.PaymentGateway
	notifier    notify.Notifier
	settlements *SettlementScheduler
	settleDelay time.Duration
	nowFunc     func() time.Time

	// broadcast pushes order changes to the admin dashboard feed; nil in tests.
	broadcast func(models.Order)
}

func NewService(db *gorm.DB, gw gateway.PaymentGateway, notifier notify.Notifier) *Service {
	delay := 2 * time.Second
	if v := os.Getenv("PAYMENT_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			delay = d
		}
	}
	return &Service{
		db:          db,
		gw:          gw,
		notifier:    notifier,
		settlements: NewSettlementScheduler(),
		settleDelay: delay,
		nowFunc:     time.Now,
	}
}

// SetBroadcast wires the order event feed used by the admin dashboard.
func (s *Service) SetBroadcast(fn func(models.Order)) { s.broadcast = fn }

type InitiateRequest struct {
	OrderID   uint                 `json:"order_id" binding:"required"`
	Method    models.PaymentMethod `json:"method" binding:"required"`
	SubMethod string               `json:"sub_method"`
}

type InitiateResult struct {
	Payment *models.Payment           `json:"payment"`
	Gateway *gateway.InitiateResponse `json:"gateway"`
}

// Initiate opens a payment for an order. At most one payment per order may be
// pending, processing or success; a second initiation is rejected.
func (s *Service) Initiate(userID string, req InitiateRequest) (*InitiateResult, error) {
	switch req.Method {
	case models.MethodUPI, models.MethodCard, models.MethodNetbanking,
		models.MethodWallet, models.MethodEMI, models.MethodCOD:
	default:
		return nil, ErrInvalidMethod
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	var active int64
	if err := s.db.Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", order.ID, models.ActivePaymentStates).
		Count(&active).Error; err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrDuplicateActivePayment
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	paymentID := s.gw.GeneratePaymentID()
	resp, err := s.gw.InitiatePayment(gateway.InitiateRequest{
		Method:        req.Method,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		OrderRef:      order.OrderRef,
		PaymentID:     paymentID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone,
	})
	if err != nil {
		return nil, ErrGatewayUnavailable
	}

	now := s.nowFunc()
	payment := models.Payment{
		PaymentID:      paymentID,
		OrderID:        order.ID,
		UserID:         userID,
		Method:         req.Method,
		SubMethod:      req.SubMethod,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		Status:         models.PaymentStatePending,
		GatewayOrderID: resp.GatewayOrderID,
	}

	if resp.RequiresOTP {
		code := s.gw.GenerateOTP()
		payment.OTP = models.VerificationOTP{Code: code, ExpiresAt: now.Add(otpValidity)}
		dest := user.Phone
		if dest == "" {
			dest = user.Email
		}
		if err := s.notifier.SendCode(dest, code, "payment verification"); err != nil {
			log.Printf("failed to deliver payment otp for %s: %v", paymentID, err)
		}
	}
	if resp.UPI != nil {
		payment.UPI = models.UPIDetails{
			VPA:          order.OrderRef + "@rigforge",
			QRCode:       resp.UPI.QRCode,
			UPIURL:       resp.UPI.UPIURL,
			QRCodeExpiry: resp.UPI.ExpiresAt,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.PaymentTimelineEntry{
			PaymentRecordID: payment.ID,
			Status:          models.PaymentStatePending,
			Message:         "payment initiated",
			Timestamp:       now,
		}).Error; err != nil {
			return err
		}
		// Non-OTP methods hand off to the gateway straight away.
		if !resp.RequiresOTP {
			payment.Status = models.PaymentStateProcessing
			if err := tx.Model(&payment).Update("status", payment.Status).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.PaymentTimelineEntry{
				PaymentRecordID: payment.ID,
				Status:          models.PaymentStateProcessing,
				Message:         "handed off to gateway for processing",
				Timestamp:       now,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&order).Update("payment_method", string(req.Method)).Error
	})
	if err != nil {
		return nil, err
	}

	if payment.Status == models.PaymentStateProcessing {
		s.scheduleSettlement(payment.PaymentID)
	}

	return &InitiateResult{Payment: &payment, Gateway: resp}, nil
}

// VerifyOTP applies the attempt-counting OTP policy and, on success, moves
// the payment to processing and schedules the detached settlement step.
func (s *Service) VerifyOTP(userID, paymentID, code string) (*models.Payment, error) {
	payment, err := s.fetchOwned(paymentID, userID)
	if err != nil {
		return nil, err
	}
	if !payment.Method.RequiresOTP() || payment.OTP.Verified ||
		payment.Status != models.PaymentStatePending {
		return nil, ErrIllegalTransition
	}
	if payment.OTP.Attempts >= maxOTPAttempts {
		return nil, ErrMaxAttemptsExceeded
	}

	// Every call burns an attempt, even when the code turns out to be expired
	// or wrong.
	payment.OTP.Attempts++
	if err := s.db.Model(payment).Update("otp_attempts", payment.OTP.Attempts).Error; err != nil {
		return nil, err
	}

	now := s.nowFunc()
	if now.After(payment.OTP.ExpiresAt) {
		return nil, ErrOtpExpired
	}

	result := s.gw.VerifyOTP(paymentID, code, payment.OTP.Code)
	if !result.Success {
		return nil, ErrInvalidOtp
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(payment).Updates(map[string]interface{}{
			"otp_verified": true,
			"status":       models.PaymentStateProcessing,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PaymentTimelineEntry{
			PaymentRecordID: payment.ID,
			Status:          models.PaymentStateProcessing,
			Message:         "otp verified, handed off to gateway for processing",
			Timestamp:       now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	payment.OTP.Verified = true
	payment.Status = models.PaymentStateProcessing

	s.scheduleSettlement(payment.PaymentID)
	return payment, nil
}

// ResendOTP issues a fresh code for a pending, unverified payment. Attempts
// and expiry reset with the new code.
func (s *Service) ResendOTP(userID, paymentID string) (*models.Payment, error) {
	payment, err := s.fetchOwned(paymentID, userID)
	if err != nil {
		return nil, err
	}
	if !payment.Method.RequiresOTP() || payment.OTP.Verified ||
		payment.Status != models.PaymentStatePending {
		return nil, ErrIllegalTransition
	}

	now := s.nowFunc()
	code := s.gw.GenerateOTP()
	if err := s.db.Model(payment).Updates(map[string]interface{}{
		"otp_code":       code,
		"otp_expires_at": now.Add(otpValidity),
		"otp_attempts":   0,
	}).Error; err != nil {
		return nil, err
	}
	payment.OTP = models.VerificationOTP{Code: code, ExpiresAt: now.Add(otpValidity)}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err == nil {
		dest := user.Phone
		if dest == "" {
			dest = user.Email
		}
		if err := s.notifier.SendCode(dest, code, "payment verification"); err != nil {
			log.Printf("failed to deliver payment otp for %s: %v", paymentID, err)
		}
	}
	return payment, nil
}

// Status returns the payment with its timeline. This record, not the
// gateway's status stub, is the authoritative view.
func (s *Service) Status(userID, paymentID string) (*models.Payment, error) {
	payment, err := s.fetchOwned(paymentID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("Timeline").First(payment, "payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// MyPayments lists the principal's payments, newest first.
func (s *Service) MyPayments(userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("user_id = ?", userID).
		Preload("Timeline").
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// Cancel abandons a pending or processing payment and suppresses any pending
// settlement continuation. The order's payment status flips to failed.
func (s *Service) Cancel(userID, paymentID string) (*models.Payment, error) {
	payment, err := s.fetchOwned(paymentID, userID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatePending &&
		payment.Status != models.PaymentStateProcessing {
		return nil, ErrIllegalTransition
	}

	s.settlements.Cancel(paymentID)

	now := s.nowFunc()
	var order models.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Guarded update: loses cleanly if the settlement continuation got
		// there first.
		res := tx.Model(&models.Payment{}).
			Where("payment_id = ? AND status IN ?", paymentID, []models.PaymentState{
				models.PaymentStatePending, models.PaymentStateProcessing,
			}).
			Update("status", models.PaymentStateCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIllegalTransition
		}
		if err := tx.Create(&models.PaymentTimelineEntry{
			PaymentRecordID: payment.ID,
			Status:          models.PaymentStateCancelled,
			Message:         "cancelled by customer",
			Timestamp:       now,
		}).Error; err != nil {
			return err
		}
		if err := tx.First(&order, "id = ?", payment.OrderID).Error; err != nil {
			return err
		}
		return tx.Model(&order).Update("payment_status", models.PaymentStatusFailed).Error
	})
	if err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStateCancelled

	order.PaymentStatus = models.PaymentStatusFailed
	s.notifyOrderChanged(order)
	return payment, nil
}

// WebhookPayload is the inbound gateway callback body.
type WebhookPayload struct {
	PaymentID            string `json:"payment_id" binding:"required"`
	Status               string `json:"status" binding:"required"`
	GatewayTransactionID string `json:"gateway_transaction_id"`
}

// HandleWebhook applies an asynchronous gateway outcome. The signature has
// already been checked by the transport layer; nothing here re-reads it.
// Re-delivery of the status already applied is a no-op.
func (s *Service) HandleWebhook(payload WebhookPayload) error {
	target := models.PaymentState(payload.Status)
	if target != models.PaymentStateSuccess && target != models.PaymentStateFailed {
		return ErrBadWebhookStatus
	}

	var payment models.Payment
	if err := s.db.First(&payment, "payment_id = ?", payload.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if payment.Status == target {
		return nil // idempotent re-delivery
	}
	if payment.Status.IsTerminal() {
		return ErrIllegalTransition
	}

	s.settlements.Cancel(payload.PaymentID)

	message := "webhook: payment failed"
	if target == models.PaymentStateSuccess {
		message = "webhook: payment confirmed"
	}
	return s.applySettlement(payload.PaymentID, target == models.PaymentStateSuccess,
		payload.GatewayTransactionID, message, "webhook")
}

// Refund issues a refund against a successful payment. Admin only; decided
// here that refund DOES move the payment to refunded and the order's payment
// status along with it.
func (s *Service) Refund(paymentID, reason string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if payment.Status != models.PaymentStateSuccess {
		return nil, ErrIllegalTransition
	}

	result, err := s.gw.InitiateRefund(paymentID, payment.Amount, reason)
	if err != nil {
		return nil, ErrGatewayUnavailable
	}

	now := s.nowFunc()
	var order models.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":        models.PaymentStateRefunded,
			"refund_id":     result.RefundID,
			"refund_reason": reason,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.PaymentTimelineEntry{
			PaymentRecordID: payment.ID,
			Status:          models.PaymentStateRefunded,
			Message:         "refund issued, eta " + result.ETA,
			GatewayResponse: result.RefundID,
			Timestamp:       now,
		}).Error; err != nil {
			return err
		}
		if err := tx.First(&order, "id = ?", payment.OrderID).Error; err != nil {
			return err
		}
		if err := tx.Model(&order).Update("payment_status", models.PaymentStatusRefunded).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderTimelineEntry{
			OrderID:   order.ID,
			Status:    order.Status,
			Note:      "refund issued for payment " + paymentID,
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStateRefunded

	order.PaymentStatus = models.PaymentStatusRefunded
	s.notifyOrderChanged(order)
	return &payment, nil
}

// scheduleSettlement registers the delayed continuation that resolves a
// processing payment.
func (s *Service) scheduleSettlement(paymentID string) {
	s.settlements.Schedule(paymentID, s.settleDelay, func() {
		s.runSettlement(paymentID)
	})
}

// runSettlement is the detached continuation. It has no caller to report to;
// its outcome is observable only through the persisted payment state.
func (s *Service) runSettlement(paymentID string) {
	var payment models.Payment
	if err := s.db.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		log.Printf("settlement: payment %s not found: %v", paymentID, err)
		return
	}
	if payment.Status != models.PaymentStateProcessing {
		// Cancelled or already settled while we were waiting.
		return
	}

	result := s.gw.ProcessPayment(paymentID, payment.Method)
	message := result.Message
	if message == "" {
		if result.Success {
			message = "payment processed successfully"
		} else {
			message = "payment declined"
		}
	}
	if err := s.applySettlement(paymentID, result.Success, result.TransactionID, message, result.ErrorCode); err != nil {
		log.Printf("settlement: failed to apply outcome for %s: %v", paymentID, err)
	}
}

// applySettlement moves a non-terminal payment to success or failed and keeps
// the order consistent, all in one transaction. The status change is a
// guarded update so a concurrent cancellation wins cleanly.
func (s *Service) applySettlement(paymentID string, success bool, txnID, message, gatewayResponse string) error {
	now := s.nowFunc()
	var order models.Order
	var applied bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
			return err
		}
		if payment.Status.IsTerminal() {
			return nil
		}

		updates := map[string]interface{}{}
		entry := models.PaymentTimelineEntry{
			PaymentRecordID: payment.ID,
			Message:         message,
			GatewayResponse: gatewayResponse,
			Timestamp:       now,
		}
		if success {
			updates["status"] = models.PaymentStateSuccess
			updates["gateway_transaction_id"] = txnID
			entry.Status = models.PaymentStateSuccess
		} else {
			updates["status"] = models.PaymentStateFailed
			updates["failure_reason"] = message
			entry.Status = models.PaymentStateFailed
		}
		res := tx.Model(&models.Payment{}).
			Where("payment_id = ? AND status IN ?", paymentID, []models.PaymentState{
				models.PaymentStatePending, models.PaymentStateProcessing,
			}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost to a concurrent cancellation; leave everything as is.
			return nil
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if err := tx.First(&order, "id = ?", payment.OrderID).Error; err != nil {
			return err
		}
		if success {
			if err := tx.Model(&order).Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusPaid,
				"status":         models.OrderStatusInReview,
			}).Error; err != nil {
				return err
			}
			order.PaymentStatus = models.PaymentStatusPaid
			order.Status = models.OrderStatusInReview
			if err := tx.Create(&models.OrderTimelineEntry{
				OrderID:   order.ID,
				Status:    models.OrderStatusInReview,
				Note:      "payment received, moved to review",
				Timestamp: now,
			}).Error; err != nil {
				return err
			}
		} else {
			// Order status stays put; only the payment marker flips.
			if err := tx.Model(&order).Update("payment_status", models.PaymentStatusFailed).Error; err != nil {
				return err
			}
			order.PaymentStatus = models.PaymentStatusFailed
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}

	if applied {
		s.notifyOrderChanged(order)
	}
	return nil
}

func (s *Service) fetchOwned(paymentID, userID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, "payment_id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrForbidden
	}
	return &payment, nil
}

func (s *Service) notifyOrderChanged(order models.Order) {
	if s.broadcast != nil {
		s.broadcast(order)
	}
}
