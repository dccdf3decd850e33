package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BikeStatus string

const (
	BikeStatusAvailable   BikeStatus = "Available"
	BikeStatusRented      BikeStatus = "Rented"
	BikeStatusMaintenance BikeStatus = "Maintenance"
)

// Bike represents a rentable bike. AvailabilityStatus is the only field the
// rental engine mutates.
type Bike struct {
	ID                 int64           `json:"id" db:"id"`
	AdminID            int64           `json:"admin_id" db:"admin_id"`
	Model              string          `json:"model" db:"model"`
	BikeType           string          `json:"bike_type" db:"bike_type"`
	HourlyRate         decimal.Decimal `json:"hourly_rate" db:"hourly_rate"`
	AvailabilityStatus BikeStatus      `json:"availability_status" db:"availability_status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

func (b *Bike) IsAvailable() bool {
	return b.AvailabilityStatus == BikeStatusAvailable
}

// DTOs for requests

type CreateBikeRequest struct {
	Model      string          `json:"model" validate:"required,max=100"`
	BikeType   string          `json:"bike_type" validate:"required,max=50"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

type UpdateBikeStatusRequest struct {
	Status BikeStatus `json:"status" validate:"required,oneof=Available Maintenance"`
}
