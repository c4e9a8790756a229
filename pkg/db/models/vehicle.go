package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Vehicle represents a listed tractor or machine offered for sale.
type Vehicle struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Make            string              `gorm:"column:make;not null"`
	Model           string              `gorm:"column:model;not null"`
	Year            int                 `gorm:"column:year;not null"`
	RegistrationNo  string              `gorm:"column:registration_no;not null"`
	HoursUsed       *int                `gorm:"column:hours_used"`
	ExpectedPrice   int64               `gorm:"column:expected_price;not null"`
	Description     *string             `gorm:"column:description"`
	Status          enums.VehicleStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	ApprovedAt      *time.Time          `gorm:"column:approved_at"`
	SoldAt          *time.Time          `gorm:"column:sold_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
