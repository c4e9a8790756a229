package auctions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
)

type sweepRepoStub struct {
	Repository
	dueToStart  []models.Auction
	dueToEnd    []models.Auction
	liveMoved   map[uuid.UUID]bool
	endedMoved  map[uuid.UUID]bool
	deadlines   map[uuid.UUID]time.Time
	winners     map[uuid.UUID]*uuid.UUID
	closingBids map[uuid.UUID]int64
	onMarkEnded func(id uuid.UUID)
}

func newSweepRepoStub() *sweepRepoStub {
	return &sweepRepoStub{
		liveMoved:   map[uuid.UUID]bool{},
		endedMoved:  map[uuid.UUID]bool{},
		deadlines:   map[uuid.UUID]time.Time{},
		winners:     map[uuid.UUID]*uuid.UUID{},
		closingBids: map[uuid.UUID]int64{},
	}
}

func (s *sweepRepoStub) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *sweepRepoStub) FindDueToStart(ctx context.Context, now time.Time) ([]models.Auction, error) {
	return s.dueToStart, nil
}

func (s *sweepRepoStub) FindDueToEnd(ctx context.Context, now time.Time) ([]models.Auction, error) {
	return s.dueToEnd, nil
}

func (s *sweepRepoStub) MarkLive(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.liveMoved[id] {
		return false, nil
	}
	s.liveMoved[id] = true
	return true, nil
}

func (s *sweepRepoStub) MarkEnded(ctx context.Context, id uuid.UUID, approvalDeadline time.Time) (bool, error) {
	if s.endedMoved[id] {
		return false, nil
	}
	s.endedMoved[id] = true
	s.deadlines[id] = approvalDeadline
	if s.onMarkEnded != nil {
		s.onMarkEnded(id)
	}
	return true, nil
}

func (s *sweepRepoStub) UpdateWinnerTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, winnerID uuid.UUID, currentBid int64, approval enums.SellerApprovalStatus) error {
	winner := winnerID
	s.winners[id] = &winner
	s.closingBids[id] = currentBid
	return nil
}

type sweepBidStub struct {
	highest map[uuid.UUID]*models.Bid
	marked  []uuid.UUID
}

func (s *sweepBidStub) FindHighestTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	bid, ok := s.highest[auctionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return bid, nil
}

func (s *sweepBidStub) UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error {
	return nil
}

func (s *sweepBidStub) MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error {
	s.marked = append(s.marked, bidID)
	return nil
}

type sweepTxStub struct{}

func (sweepTxStub) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type sweepOutboxStub struct {
	events []outbox.DomainEvent
}

func (s *sweepOutboxStub) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestSweeper(t *testing.T, repo *sweepRepoStub, bids *sweepBidStub, ob *sweepOutboxStub) *Sweeper {
	t.Helper()
	sw, err := NewSweeper(repo, bids, sweepTxStub{}, ob, logger.New(logger.Options{ServiceName: "test"}), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sw
}

func TestSweepStartsDueAuctions(t *testing.T) {
	t.Parallel()

	repo := newSweepRepoStub()
	auction := models.Auction{ID: uuid.New(), VehicleID: uuid.New(), ReferenceNumber: "AUC-20260801-000001"}
	repo.dueToStart = []models.Auction{auction}
	ob := &sweepOutboxStub{}
	sw := newTestSweeper(t, repo, &sweepBidStub{}, ob)

	result, err := sw.Sweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Started != 1 || result.Ended != 0 || result.Errored != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAuctionStarted {
		t.Fatalf("expected started event, got %+v", ob.events)
	}
}

func TestSweepEndsWithWinner(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := newSweepRepoStub()
	auction := models.Auction{
		ID:        uuid.New(),
		VehicleID: uuid.New(),
		EndTime:   now.Add(-time.Minute),
	}
	repo.dueToEnd = []models.Auction{auction}

	winner := uuid.New()
	bid := &models.Bid{ID: uuid.New(), AuctionID: auction.ID, BidderID: winner, BidAmount: 250000}
	bids := &sweepBidStub{highest: map[uuid.UUID]*models.Bid{auction.ID: bid}}
	ob := &sweepOutboxStub{}
	sw := newTestSweeper(t, repo, bids, ob)

	result, err := sw.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ended != 1 {
		t.Fatalf("expected one ended, got %+v", result)
	}
	if got := repo.winners[auction.ID]; got == nil || *got != winner {
		t.Fatalf("expected winner %s recorded, got %v", winner, got)
	}
	if len(bids.marked) != 1 || bids.marked[0] != bid.ID {
		t.Fatal("expected highest bid marked winning")
	}

	wantDeadline := auction.EndTime.Add(7 * 24 * time.Hour)
	if !repo.deadlines[auction.ID].Equal(wantDeadline) {
		t.Fatalf("expected approval deadline %v, got %v", wantDeadline, repo.deadlines[auction.ID])
	}

	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAuctionEnded {
		t.Fatalf("expected ended event, got %+v", ob.events)
	}
	payload, ok := ob.events[0].Data.(AuctionEndedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", ob.events[0].Data)
	}
	if !payload.HadBids || payload.ClosingBid != 250000 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSweepCrownsBidLandingDuringClose(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := newSweepRepoStub()
	auction := models.Auction{
		ID:         uuid.New(),
		VehicleID:  uuid.New(),
		EndTime:    now.Add(-time.Minute),
		CurrentBid: 250000,
	}
	repo.dueToEnd = []models.Auction{auction}

	early := &models.Bid{ID: uuid.New(), AuctionID: auction.ID, BidderID: uuid.New(), BidAmount: 250000}
	late := &models.Bid{ID: uuid.New(), AuctionID: auction.ID, BidderID: uuid.New(), BidAmount: 260000}
	bids := &sweepBidStub{highest: map[uuid.UUID]*models.Bid{auction.ID: early}}
	// A bid committing while the close runs becomes visible only once the
	// status flip has taken the row.
	repo.onMarkEnded = func(id uuid.UUID) {
		bids.highest[id] = late
	}
	ob := &sweepOutboxStub{}
	sw := newTestSweeper(t, repo, bids, ob)

	if _, err := sw.Sweep(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.winners[auction.ID]; got == nil || *got != late.BidderID {
		t.Fatalf("expected late bidder crowned, got %v", got)
	}
	if repo.closingBids[auction.ID] != 260000 {
		t.Fatalf("expected closing bid 260000, got %d", repo.closingBids[auction.ID])
	}
	if len(bids.marked) != 1 || bids.marked[0] != late.ID {
		t.Fatal("expected late bid marked winning")
	}
	payload := ob.events[0].Data.(AuctionEndedEvent)
	if payload.ClosingBid != 260000 || payload.WinnerID == nil || *payload.WinnerID != late.BidderID {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSweepEndsWithoutBids(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := newSweepRepoStub()
	auction := models.Auction{ID: uuid.New(), VehicleID: uuid.New(), EndTime: now.Add(-time.Minute)}
	repo.dueToEnd = []models.Auction{auction}
	bids := &sweepBidStub{}
	ob := &sweepOutboxStub{}
	sw := newTestSweeper(t, repo, bids, ob)

	result, err := sw.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ended != 1 {
		t.Fatalf("expected one ended, got %+v", result)
	}
	if repo.winners[auction.ID] != nil {
		t.Fatal("expected no winner without bids")
	}
	if len(bids.marked) != 0 {
		t.Fatal("expected no winning bid marked")
	}
	payload := ob.events[0].Data.(AuctionEndedEvent)
	if payload.HadBids || payload.WinnerID != nil {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSweepIsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	now := time.Now()
	repo := newSweepRepoStub()
	start := models.Auction{ID: uuid.New(), VehicleID: uuid.New()}
	end := models.Auction{ID: uuid.New(), VehicleID: uuid.New(), EndTime: now.Add(-time.Minute)}
	repo.dueToStart = []models.Auction{start}
	repo.dueToEnd = []models.Auction{end}
	ob := &sweepOutboxStub{}
	sw := newTestSweeper(t, repo, &sweepBidStub{}, ob)

	if _, err := sw.Sweep(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same rows show up again before the status update is visible.
	result, err := sw.Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Started != 0 || result.Ended != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %+v", result)
	}
	if len(ob.events) != 2 {
		t.Fatalf("expected no duplicate events, got %d", len(ob.events))
	}
}
