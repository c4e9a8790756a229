package bids

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auctionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	CompareAndSwapCurrentBidTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next int64) (bool, error)
}

// PlaceBidInput carries a single bid attempt.
type PlaceBidInput struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	BidAmount int64
}

// PlaceBidResult returns the accepted bid and refreshed auction state.
type PlaceBidResult struct {
	Bid         *models.Bid
	CurrentBid  int64
	MinimumNext int64
}

// Service accepts bids against live auctions.
type Service interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*PlaceBidResult, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
}

type service struct {
	repo     Repository
	auctions auctionStore
	tx       txRunner
	now      func() time.Time
}

// NewService builds a bid service with the required dependencies.
func NewService(repo Repository, auctions auctionStore, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if auctions == nil {
		return nil, fmt.Errorf("auction store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		auctions: auctions,
		tx:       tx,
		now:      time.Now,
	}, nil
}

// PlaceBid validates the bid against the auction's current state and then
// commits it with a compare-and-swap on current_bid. A swap miss means a
// concurrent bidder got there first; the caller sees a conflict and should
// retry against the refreshed amount.
func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*PlaceBidResult, error) {
	if input.AuctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.BidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bidder identity missing")
	}
	if input.BidAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	auction, err := s.auctions.FindByID(ctx, input.AuctionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}

	if auction.Status != enums.AuctionStatusLive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not live")
	}

	minimum := auction.CurrentBid + auction.MinimumIncrement
	if input.BidAmount < minimum {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("bid must be at least %d", minimum))
	}

	bid := &models.Bid{
		AuctionID: input.AuctionID,
		BidderID:  input.BidderID,
		BidAmount: input.BidAmount,
		BidTime:   s.now(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		swapped, err := s.auctions.CompareAndSwapCurrentBidTx(ctx, tx, auction.ID, auction.CurrentBid, input.BidAmount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update current bid")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeConflict,
				"auction price changed, refresh and bid again").
				WithDetails(map[string]any{"auctionId": auction.ID})
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record bid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PlaceBidResult{
		Bid:         bid,
		CurrentBid:  input.BidAmount,
		MinimumNext: input.BidAmount + auction.MinimumIncrement,
	}, nil
}

func (s *service) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	rows, err := s.repo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return rows, nil
}
