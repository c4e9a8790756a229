package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// EarnestMoneyDeposit tracks the refundable deposit a bidder pays to be
// eligible to win an auction. One row per (auction, bidder).
type EarnestMoneyDeposit struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID        uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;uniqueIndex:idx_emd_auction_bidder"`
	BidderID         uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null;uniqueIndex:idx_emd_auction_bidder"`
	Amount           int64           `gorm:"column:amount;not null"`
	Status           enums.EMDStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentID        *string         `gorm:"column:payment_id"`
	GatewayOrderID   *string         `gorm:"column:gateway_order_id"`
	PaidAt           *time.Time      `gorm:"column:paid_at"`
	AppliedToBalance bool            `gorm:"column:applied_to_balance;not null;default:false"`
	AppliedAt        *time.Time      `gorm:"column:applied_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
