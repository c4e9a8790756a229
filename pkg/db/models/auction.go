package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Auction represents a scheduled sale window over a single vehicle.
//
// Status only moves forward (SCHEDULED -> LIVE -> ENDED). WinnerID is set
// when the auction ends with at least one bid, and SellerApprovalStatus is
// only meaningful once a winner exists.
type Auction struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID            uuid.UUID                  `gorm:"column:vehicle_id;type:uuid;not null;uniqueIndex"`
	ReferenceNumber      string                     `gorm:"column:reference_number;not null;uniqueIndex"`
	StartTime            time.Time                  `gorm:"column:start_time;not null"`
	EndTime              time.Time                  `gorm:"column:end_time;not null"`
	ReservePrice         int64                      `gorm:"column:reserve_price;not null"`
	MinimumIncrement     int64                      `gorm:"column:minimum_increment;not null"`
	CurrentBid           int64                      `gorm:"column:current_bid;not null"`
	Status               enums.AuctionStatus        `gorm:"column:status;type:text;not null;default:'SCHEDULED'"`
	WinnerID             *uuid.UUID                 `gorm:"column:winner_id;type:uuid"`
	SellerApprovalStatus enums.SellerApprovalStatus `gorm:"column:seller_approval_status;type:text;not null;default:'PENDING'"`
	ApprovalDeadline     *time.Time                 `gorm:"column:approval_deadline"`
	RejectionReason      *string                    `gorm:"column:rejection_reason"`
	EMDRequired          bool                       `gorm:"column:emd_required;not null;default:true"`
	EMDAmount            *int64                     `gorm:"column:emd_amount"`
	Bids                 []Bid                      `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
