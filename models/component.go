package models

import "time"

type ComponentCategory string

const (
	CategoryCPU         ComponentCategory = "cpu"
	CategoryGPU         ComponentCategory = "gpu"
	CategoryMotherboard ComponentCategory = "motherboard"
	CategoryRAM         ComponentCategory = "ram"
	CategoryStorage     ComponentCategory = "storage"
	CategoryPSU         ComponentCategory = "psu"
	CategoryCase        ComponentCategory = "case"
	CategoryCooler      ComponentCategory = "cooler"
)

// Component is one PC part in the catalog.
type Component struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	Category ComponentCategory `gorm:"type:VARCHAR(20);index;not null" json:"category"`
	Name     string            `gorm:"not null" json:"name"`
	Brand    string            `json:"brand"`
	Spec     string            `json:"spec"` // free-form: socket, wattage, capacity, ...
	Price    float64           `json:"price"`
	Stock    int               `json:"stock"`
	Image    string            `json:"image"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
