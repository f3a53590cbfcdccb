package models

import "time"

// GuestUser backs short-lived browse sessions; guests can assemble builds but
// must sign in before checkout.
type GuestUser struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
