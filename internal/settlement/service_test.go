package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
)

type stubAuctions struct {
	auction          *models.Auction
	findErr          error
	approvalStatus   enums.SellerApprovalStatus
	approvalReason   *string
	approvalResolved bool
	winnerSet        bool
}

func (s *stubAuctions) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.auction, nil
}

func (s *stubAuctions) UpdateWinnerTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, winnerID uuid.UUID, currentBid int64, approval enums.SellerApprovalStatus) error {
	s.winnerSet = true
	return nil
}

func (s *stubAuctions) UpdateSellerApprovalTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SellerApprovalStatus, reason *string) (bool, error) {
	if s.approvalResolved {
		return false, nil
	}
	s.approvalStatus = status
	s.approvalReason = reason
	return true, nil
}

type stubBids struct {
	byID    *models.Bid
	winning *models.Bid
	marked  uuid.UUID
	unset   bool
}

func (s *stubBids) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Bid, error) {
	if s.byID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byID, nil
}

func (s *stubBids) UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error {
	s.unset = true
	return nil
}

func (s *stubBids) MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error {
	s.marked = bidID
	return nil
}

func (s *stubBids) FindWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	if s.winning == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.winning, nil
}

type stubDeposits struct {
	deposit *models.EarnestMoneyDeposit
	applied bool
}

func (s *stubDeposits) FindTx(ctx context.Context, tx *gorm.DB, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error) {
	if s.deposit == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.deposit, nil
}

func (s *stubDeposits) MarkAppliedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, appliedAt time.Time) (bool, error) {
	s.applied = true
	return true, nil
}

type stubPurchases struct {
	exists  bool
	created *models.Purchase
}

func (s *stubPurchases) CreateTx(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.Purchase, error) {
	purchase.ID = uuid.New()
	s.created = purchase
	return purchase, nil
}

func (s *stubPurchases) ExistsForVehicleBuyerTx(ctx context.Context, tx *gorm.DB, vehicleID, buyerID uuid.UUID) (bool, error) {
	return s.exists, nil
}

type stubVehicles struct {
	vehicle *models.Vehicle
	moved   bool
}

func (s *stubVehicles) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if s.vehicle == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vehicle, nil
}

func (s *stubVehicles) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to enums.VehicleStatus) (bool, error) {
	return s.moved, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	auctions  *stubAuctions
	bids      *stubBids
	deposits  *stubDeposits
	purchases *stubPurchases
	vehicles  *stubVehicles
	outbox    *stubOutbox
	svc       Service
}

func standardFees() config.FeesConfig {
	return config.FeesConfig{StandardBps: 250, OfferBps: 100}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	winnerID := uuid.New()
	sellerID := uuid.New()
	vehicleID := uuid.New()
	auction := &models.Auction{
		ID:                   uuid.New(),
		VehicleID:            vehicleID,
		Status:               enums.AuctionStatusEnded,
		ReservePrice:         150000,
		CurrentBid:           210000,
		WinnerID:             &winnerID,
		SellerApprovalStatus: enums.SellerApprovalPending,
	}
	winning := &models.Bid{
		ID:           uuid.New(),
		AuctionID:    auction.ID,
		BidderID:     winnerID,
		BidAmount:    210000,
		IsWinningBid: true,
	}

	f := &fixture{
		auctions:  &stubAuctions{auction: auction},
		bids:      &stubBids{byID: winning, winning: winning},
		deposits:  &stubDeposits{},
		purchases: &stubPurchases{},
		vehicles:  &stubVehicles{vehicle: &models.Vehicle{ID: vehicleID, SellerID: sellerID}, moved: true},
		outbox:    &stubOutbox{},
	}

	svc, err := NewService(f.auctions, f.bids, f.deposits, f.purchases, f.vehicles, stubTx{}, f.outbox, standardFees())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) sellerApprove() ApproveInput {
	return ApproveInput{
		AuctionID:      f.auctions.auction.ID,
		ApprovalStatus: enums.SellerApprovalApproved,
		ActorID:        f.vehicles.vehicle.SellerID,
		ActorRole:      enums.UserRoleSeller,
	}
}

func TestApproveSettlesWithEMD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deposits.deposit = &models.EarnestMoneyDeposit{
		ID:        uuid.New(),
		AuctionID: f.auctions.auction.ID,
		BidderID:  *f.auctions.auction.WinnerID,
		Amount:    10000,
		Status:    enums.EMDStatusPaid,
	}

	purchase, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if purchase.PurchasePrice != 210000 {
		t.Fatalf("expected purchase price 210000, got %d", purchase.PurchasePrice)
	}
	if purchase.TransactionFee != 5250 {
		t.Fatalf("expected fee 5250, got %d", purchase.TransactionFee)
	}
	if !purchase.EMDApplied || purchase.EMDAmount == nil || *purchase.EMDAmount != 10000 {
		t.Fatalf("expected EMD applied for 10000, got %+v", purchase)
	}
	if purchase.BalanceAmount == nil || *purchase.BalanceAmount != 200000 {
		t.Fatalf("expected balance 200000, got %+v", purchase.BalanceAmount)
	}
	if purchase.Status != enums.PurchaseStatusPaymentPending {
		t.Fatalf("expected payment pending, got %s", purchase.Status)
	}
	if !f.deposits.applied {
		t.Fatal("expected deposit marked applied")
	}
	if f.auctions.approvalStatus != enums.SellerApprovalApproved {
		t.Fatal("expected approval recorded")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventAuctionSettled {
		t.Fatalf("expected settled event, got %+v", f.outbox.events)
	}
}

func TestApproveSettlesWithoutEMD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	purchase, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchase.EMDApplied {
		t.Fatal("expected no EMD applied")
	}
	if purchase.BalanceAmount == nil || *purchase.BalanceAmount != 210000 {
		t.Fatalf("expected full balance, got %+v", purchase.BalanceAmount)
	}
}

func TestApproveSkipsAlreadyAppliedDeposit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deposits.deposit = &models.EarnestMoneyDeposit{
		ID:               uuid.New(),
		Amount:           10000,
		Status:           enums.EMDStatusPaid,
		AppliedToBalance: true,
	}

	purchase, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchase.EMDApplied {
		t.Fatal("expected already applied deposit to be skipped")
	}
	if f.deposits.applied {
		t.Fatal("expected no second apply")
	}
}

func TestApproveRejectionRecordsReason(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	reason := "vehicle withdrawn"

	purchase, err := f.svc.Approve(context.Background(), ApproveInput{
		AuctionID:       f.auctions.auction.ID,
		ApprovalStatus:  enums.SellerApprovalRejected,
		RejectionReason: &reason,
		ActorID:         f.vehicles.vehicle.SellerID,
		ActorRole:       enums.UserRoleSeller,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchase != nil {
		t.Fatal("expected no purchase on rejection")
	}
	if f.auctions.approvalStatus != enums.SellerApprovalRejected {
		t.Fatal("expected rejection recorded")
	}
	if f.auctions.approvalReason == nil || *f.auctions.approvalReason != reason {
		t.Fatal("expected reason recorded")
	}
	if f.purchases.created != nil {
		t.Fatal("expected no purchase created")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventWinnerRejected {
		t.Fatalf("expected winner rejected event, got %+v", f.outbox.events)
	}
}

func TestApproveGuardsDuplicatePurchase(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.purchases.exists = true

	_, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApproveRejectsBelowReserve(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.bids.winning.BidAmount = 140000

	_, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApproveForbidsNonSeller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), ApproveInput{
		AuctionID:      f.auctions.auction.ID,
		ApprovalStatus: enums.SellerApprovalApproved,
		ActorID:        uuid.New(),
		ActorRole:      enums.UserRoleSeller,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestApproveAllowsAdminActor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), ApproveInput{
		AuctionID:      f.auctions.auction.ID,
		ApprovalStatus: enums.SellerApprovalApproved,
		ActorID:        uuid.New(),
		ActorRole:      enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApproveRequiresPendingApproval(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.auctions.auction.SellerApprovalStatus = enums.SellerApprovalApproved

	_, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApproveConflictsWhenGateLosesRace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// Snapshot reads PENDING but a concurrent resolution takes the row
	// before the conditional update runs.
	f.auctions.approvalResolved = true

	_, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.purchases.created != nil {
		t.Fatal("expected no purchase when approval already resolved")
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("expected no events, got %+v", f.outbox.events)
	}
}

func TestRejectConflictsWhenGateLosesRace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.auctions.approvalResolved = true
	reason := "vehicle withdrawn"

	_, err := f.svc.Approve(context.Background(), ApproveInput{
		AuctionID:       f.auctions.auction.ID,
		ApprovalStatus:  enums.SellerApprovalRejected,
		RejectionReason: &reason,
		ActorID:         f.vehicles.vehicle.SellerID,
		ActorRole:       enums.UserRoleSeller,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("expected no events, got %+v", f.outbox.events)
	}
}

func TestApproveRequiresEndedAuction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.auctions.auction.Status = enums.AuctionStatusLive

	_, err := f.svc.Approve(context.Background(), f.sellerApprove())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmWinnerPinsBid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := ConfirmWinnerInput{
		AuctionID:   f.auctions.auction.ID,
		WinnerBidID: f.bids.byID.ID,
		WinnerID:    f.bids.byID.BidderID,
		ActorID:     uuid.New(),
	}

	auction, err := f.svc.ConfirmWinner(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auction.WinnerID == nil || *auction.WinnerID != input.WinnerID {
		t.Fatal("expected winner pinned")
	}
	if auction.SellerApprovalStatus != enums.SellerApprovalPending {
		t.Fatal("expected approval window left open")
	}
	if !f.bids.unset || f.bids.marked != f.bids.byID.ID {
		t.Fatal("expected winning flag moved to the confirmed bid")
	}
	if f.purchases.created != nil {
		t.Fatal("expected no purchase from confirm")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventWinnerConfirmed {
		t.Fatalf("expected winner confirmed event, got %+v", f.outbox.events)
	}
}

func TestConfirmWinnerRejectsForeignBid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.bids.byID.AuctionID = uuid.New()

	_, err := f.svc.ConfirmWinner(context.Background(), ConfirmWinnerInput{
		AuctionID:   f.auctions.auction.ID,
		WinnerBidID: f.bids.byID.ID,
		WinnerID:    f.bids.byID.BidderID,
		ActorID:     uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
