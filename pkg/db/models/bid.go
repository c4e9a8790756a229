package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an append-only ledger row. Rows are never updated after insert
// except for the IsWinningBid flag, which is recomputed at auction end.
type Bid struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID    uuid.UUID `gorm:"column:auction_id;type:uuid;not null;index"`
	BidderID     uuid.UUID `gorm:"column:bidder_id;type:uuid;not null"`
	BidAmount    int64     `gorm:"column:bid_amount;not null"`
	BidTime      time.Time `gorm:"column:bid_time;not null"`
	IsWinningBid bool      `gorm:"column:is_winning_bid;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
