package bids

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
)

type stubBidRepo struct {
	Repository
	created *models.Bid
	rows    []models.Bid
	listErr error
}

func (s *stubBidRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubBidRepo) Create(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	bid.ID = uuid.New()
	s.created = bid
	return bid, nil
}

func (s *stubBidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	return s.rows, s.listErr
}

type stubAuctionStore struct {
	auction   *models.Auction
	findErr   error
	swapped   bool
	swapErr   error
	swapCalls int
}

func (s *stubAuctionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.auction, nil
}

func (s *stubAuctionStore) CompareAndSwapCurrentBidTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next int64) (bool, error) {
	s.swapCalls++
	return s.swapped, s.swapErr
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func liveAuction(current, increment int64) *models.Auction {
	return &models.Auction{
		ID:               uuid.New(),
		Status:           enums.AuctionStatusLive,
		CurrentBid:       current,
		MinimumIncrement: increment,
	}
}

func TestPlaceBidAcceptsValidBid(t *testing.T) {
	t.Parallel()

	auction := liveAuction(100000, 5000)
	repo := &stubBidRepo{}
	store := &stubAuctionStore{auction: auction, swapped: true}
	svc, err := NewService(repo, store, stubTxRunner{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bidder := uuid.New()
	result, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: auction.ID,
		BidderID:  bidder,
		BidAmount: 105000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrentBid != 105000 {
		t.Fatalf("expected current bid 105000, got %d", result.CurrentBid)
	}
	if result.MinimumNext != 110000 {
		t.Fatalf("expected minimum next 110000, got %d", result.MinimumNext)
	}
	if repo.created == nil || repo.created.BidderID != bidder {
		t.Fatalf("expected bid recorded for bidder")
	}
	if repo.created.BidTime.IsZero() {
		t.Fatal("expected bid time to be set")
	}
}

func TestPlaceBidRejectsBelowMinimumIncrement(t *testing.T) {
	t.Parallel()

	auction := liveAuction(100000, 5000)
	store := &stubAuctionStore{auction: auction, swapped: true}
	svc, _ := NewService(&stubBidRepo{}, store, stubTxRunner{})

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: auction.ID,
		BidderID:  uuid.New(),
		BidAmount: 104999,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.swapCalls != 0 {
		t.Fatal("expected no swap attempt for an invalid bid")
	}
}

func TestPlaceBidRejectsNonLiveAuction(t *testing.T) {
	t.Parallel()

	auction := liveAuction(100000, 5000)
	auction.Status = enums.AuctionStatusScheduled
	svc, _ := NewService(&stubBidRepo{}, &stubAuctionStore{auction: auction}, stubTxRunner{})

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: auction.ID,
		BidderID:  uuid.New(),
		BidAmount: 105000,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestPlaceBidConflictsWhenPriceMoved(t *testing.T) {
	t.Parallel()

	auction := liveAuction(100000, 5000)
	repo := &stubBidRepo{}
	store := &stubAuctionStore{auction: auction, swapped: false}
	svc, _ := NewService(repo, store, stubTxRunner{})

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: auction.ID,
		BidderID:  uuid.New(),
		BidAmount: 110000,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("expected no bid recorded when the swap missed")
	}
}

func TestPlaceBidNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubBidRepo{}, &stubAuctionStore{findErr: gorm.ErrRecordNotFound}, stubTxRunner{})

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: uuid.New(),
		BidderID:  uuid.New(),
		BidAmount: 1000,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceBidValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubBidRepo{}, &stubAuctionStore{auction: liveAuction(0, 1000)}, stubTxRunner{})

	if _, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		BidderID:  uuid.New(),
		BidAmount: 1000,
	}); pkgerrors.As(err) == nil {
		t.Fatal("expected error for missing auction id")
	}

	if _, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: uuid.New(),
		BidAmount: 1000,
	}); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatal("expected unauthorized for missing bidder")
	}

	if _, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AuctionID: uuid.New(),
		BidderID:  uuid.New(),
		BidAmount: 0,
	}); pkgerrors.As(err) == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
