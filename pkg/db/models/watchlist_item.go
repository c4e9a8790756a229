package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistItem pins an auction to a user's watchlist.
type WatchlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_watchlist_user_auction"`
	AuctionID uuid.UUID `gorm:"column:auction_id;type:uuid;not null;uniqueIndex:idx_watchlist_user_auction"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
