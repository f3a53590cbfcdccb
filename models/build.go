package models

import "time"

type BuildStatus string

const (
	BuildStatusDraft   BuildStatus = "draft"   // Still being configured
	BuildStatusOrdered BuildStatus = "ordered" // Checked out; locked against edits
)

// Build is a user-assembled set of component references with a computed total.
type Build struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	UserID     string      `gorm:"index;not null" json:"user_id"`
	Name       string      `json:"name"`
	Items      []BuildItem `gorm:"foreignKey:BuildID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice float64     `json:"total_price"`
	Status     BuildStatus `gorm:"type:VARCHAR(10);default:'draft'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BuildItem snapshots the component at the time it was added, so later
// catalog price changes do not silently reprice a build.
type BuildItem struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	BuildID       uint              `gorm:"index" json:"-"`
	ComponentID   uint              `json:"component_id"`
	Category      ComponentCategory `gorm:"type:VARCHAR(20)" json:"category"`
	ComponentName string            `json:"component_name"`
	UnitPrice     float64           `json:"unit_price"`
	Quantity      int               `json:"quantity"`
}
