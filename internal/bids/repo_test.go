package bids

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
)

func setupBidsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS bids (
  id TEXT PRIMARY KEY,
  auction_id TEXT NOT NULL,
  bidder_id TEXT NOT NULL,
  bid_amount INTEGER NOT NULL,
  bid_time DATETIME NOT NULL,
  is_winning_bid INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedBid(t *testing.T, db *gorm.DB, auctionID uuid.UUID, amount int64, bidTime time.Time) models.Bid {
	t.Helper()

	row := models.Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  uuid.New(),
		BidAmount: amount,
		BidTime:   bidTime,
		CreatedAt: bidTime,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestFindHighestPicksLargestAmount(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	auctionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	seedBid(t, db, auctionID, 200000, base)
	top := seedBid(t, db, auctionID, 260000, base.Add(2*time.Minute))
	seedBid(t, db, auctionID, 250000, base.Add(time.Minute))
	// Another auction's higher bid must not leak in.
	seedBid(t, db, uuid.New(), 900000, base)

	got, err := repo.FindHighestTx(ctx, nil, auctionID)
	require.NoError(t, err)
	assert.Equal(t, top.ID, got.ID)
	assert.Equal(t, int64(260000), got.BidAmount)
}

func TestFindHighestBreaksTiesByEarliestBidTime(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	auctionID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	first := seedBid(t, db, auctionID, 250000, base)
	seedBid(t, db, auctionID, 250000, base.Add(time.Minute))

	got, err := repo.FindHighestTx(ctx, nil, auctionID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.BidderID, got.BidderID)
}

func TestFindHighestReportsNoRows(t *testing.T) {
	db := setupBidsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindHighestTx(context.Background(), nil, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
