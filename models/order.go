package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses (custom build fulfilment flow)
	OrderStatusPending    OrderStatus = "pending"     // Order placed, awaiting payment
	OrderStatusInReview   OrderStatus = "in_review"   // Paid, parts list under review by staff
	OrderStatusApproved   OrderStatus = "approved"    // Parts list approved for assembly
	OrderStatusInProgress OrderStatus = "in_progress" // Build being assembled
	OrderStatusShipped    OrderStatus = "shipped"     // Out for delivery
	OrderStatusCompleted  OrderStatus = "completed"   // Customer received the build
	OrderStatusCancelled  OrderStatus = "cancelled"   // Cancelled before work started

	// Payment statuses (order level)
	PaymentStatusPending  PaymentStatus = "pending"  // Payment not completed yet
	PaymentStatusPaid     PaymentStatus = "paid"     // Payment completed successfully
	PaymentStatusFailed   PaymentStatus = "failed"   // Payment attempt failed
	PaymentStatusRefunded PaymentStatus = "refunded" // Money returned to customer
)

type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        string         `gorm:"not null;index" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"user"`
	BuildID       uint           `gorm:"index" json:"build_id"`
	BuildSnapshot datatypes.JSON `json:"build_snapshot"` // immutable copy of the build at checkout
	TotalAmount   float64        `json:"total_amount"`
	Currency      string         `gorm:"type:VARCHAR(3);default:'INR'" json:"currency"`
	Status        OrderStatus    `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus PaymentStatus  `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentMethod string         `json:"payment_method"` // e.g. "card", "upi"
	OrderRef      string         `gorm:"uniqueIndex" json:"order_ref"`

	// Timeline is append-only; entries are never updated or removed.
	Timeline []OrderTimelineEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"timeline"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderTimelineEntry struct {
	ID        uint        `gorm:"primaryKey" json:"-"`
	OrderID   uint        `gorm:"index" json:"-"`
	Status    OrderStatus `gorm:"type:VARCHAR(20)" json:"status"`
	Note      string      `json:"note"`
	Timestamp time.Time   `json:"timestamp"`
}
