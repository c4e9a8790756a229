package emd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/razorpay"
)

type stubDepositRepo struct {
	Repository
	deposit *models.EarnestMoneyDeposit
	created *models.EarnestMoneyDeposit

	paidID  uuid.UUID
	paidRef string

	resetID      uuid.UUID
	resetOrderID *string
}

func (s *stubDepositRepo) Find(ctx context.Context, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error) {
	if s.deposit == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.deposit, nil
}

func (s *stubDepositRepo) Create(ctx context.Context, deposit *models.EarnestMoneyDeposit) (*models.EarnestMoneyDeposit, error) {
	deposit.ID = uuid.New()
	s.created = deposit
	return deposit, nil
}

func (s *stubDepositRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	s.paidID = id
	s.paidRef = paymentID
	return true, nil
}

func (s *stubDepositRepo) ResetToPending(ctx context.Context, id uuid.UUID, gatewayOrderID *string) error {
	s.resetID = id
	s.resetOrderID = gatewayOrderID
	return nil
}

type stubAuctionFinder struct {
	auction *models.Auction
}

func (s *stubAuctionFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if s.auction == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.auction, nil
}

type stubGateway struct {
	request razorpay.OrderRequest
	order   *razorpay.Order
}

func (s *stubGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	s.request = req
	return s.order, nil
}

func (s *stubGateway) NewReceipt(prefix string) string {
	return prefix + "_test_receipt"
}

func auctionWithDeposit(amount int64) *models.Auction {
	return &models.Auction{
		ID:          uuid.New(),
		Status:      enums.AuctionStatusScheduled,
		EMDRequired: true,
		EMDAmount:   &amount,
	}
}

func TestStatusDefaultsToNotPaid(t *testing.T) {
	t.Parallel()

	auction := auctionWithDeposit(10000)
	svc, err := NewService(&stubDepositRepo{}, &stubAuctionFinder{auction: auction}, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Status(context.Background(), auction.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.EMDRequired || result.Status != enums.EMDStatusNotPaid {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.EMDAmount == nil || *result.EMDAmount != 10000 {
		t.Fatalf("expected deposit amount 10000, got %v", result.EMDAmount)
	}
}

func TestStatusWhenDepositNotRequired(t *testing.T) {
	t.Parallel()

	auction := &models.Auction{ID: uuid.New(), Status: enums.AuctionStatusLive}
	svc, _ := NewService(&stubDepositRepo{}, &stubAuctionFinder{auction: auction}, nil, true)

	result, err := svc.Status(context.Background(), auction.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EMDRequired || result.EMDAmount != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestStatusReflectsExistingDeposit(t *testing.T) {
	t.Parallel()

	auction := auctionWithDeposit(10000)
	repo := &stubDepositRepo{deposit: &models.EarnestMoneyDeposit{
		ID:        uuid.New(),
		AuctionID: auction.ID,
		Status:    enums.EMDStatusPaid,
	}}
	svc, _ := NewService(repo, &stubAuctionFinder{auction: auction}, nil, true)

	result, err := svc.Status(context.Background(), auction.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != enums.EMDStatusPaid {
		t.Fatalf("expected PAID, got %s", result.Status)
	}
}

func TestInitiateInTestModeMarksPaid(t *testing.T) {
	t.Parallel()

	auction := auctionWithDeposit(10000)
	repo := &stubDepositRepo{}
	svc, _ := NewService(repo, &stubAuctionFinder{auction: auction}, nil, true)

	result, err := svc.Initiate(context.Background(), auction.ID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Paid || result.Order != nil {
		t.Fatalf("expected synthetic paid result, got %+v", result)
	}
	if repo.created == nil || repo.created.Amount != 10000 {
		t.Fatalf("expected deposit created for 10000, got %+v", repo.created)
	}
	if repo.paidID != repo.created.ID {
		t.Fatal("expected the created deposit to be marked paid")
	}
	if !strings.HasPrefix(repo.paidRef, "test-") {
		t.Fatalf("expected synthetic payment reference, got %q", repo.paidRef)
	}
	if result.Deposit.Status != enums.EMDStatusPaid {
		t.Fatalf("expected PAID deposit, got %s", result.Deposit.Status)
	}
}

func TestInitiateCreatesGatewayOrder(t *testing.T) {
	t.Parallel()

	auction := auctionWithDeposit(10000)
	repo := &stubDepositRepo{}
	gw := &stubGateway{order: &razorpay.Order{ID: "order_123", AmountPaise: 1000000, Currency: "INR"}}
	svc, _ := NewService(repo, &stubAuctionFinder{auction: auction}, gw, false)

	bidder := uuid.New()
	result, err := svc.Initiate(context.Background(), auction.ID, bidder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Paid || result.Order == nil || result.Order.ID != "order_123" {
		t.Fatalf("expected pending order result, got %+v", result)
	}
	if gw.request.AmountPaise != 1000000 {
		t.Fatalf("expected order for 1000000 paise, got %d", gw.request.AmountPaise)
	}
	if gw.request.Notes["payment_type"] != string(enums.PaymentTypeEMD) {
		t.Fatalf("unexpected order notes: %+v", gw.request.Notes)
	}
	if gw.request.Notes["auction_id"] != auction.ID.String() || gw.request.Notes["bidder_id"] != bidder.String() {
		t.Fatalf("unexpected order notes: %+v", gw.request.Notes)
	}
	if repo.resetID != repo.created.ID || repo.resetOrderID == nil || *repo.resetOrderID != "order_123" {
		t.Fatal("expected deposit pinned to the gateway order")
	}
}

func TestInitiateRejectsAlreadyPaidDeposit(t *testing.T) {
	t.Parallel()

	auction := auctionWithDeposit(10000)
	repo := &stubDepositRepo{deposit: &models.EarnestMoneyDeposit{
		ID:        uuid.New(),
		AuctionID: auction.ID,
		Status:    enums.EMDStatusPaid,
	}}
	svc, _ := NewService(repo, &stubAuctionFinder{auction: auction}, nil, true)

	_, err := svc.Initiate(context.Background(), auction.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestInitiateRejectsAuctionWithoutDeposit(t *testing.T) {
	t.Parallel()

	auction := &models.Auction{ID: uuid.New(), Status: enums.AuctionStatusScheduled}
	svc, _ := NewService(&stubDepositRepo{}, &stubAuctionFinder{auction: auction}, nil, true)

	_, err := svc.Initiate(context.Background(), auction.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestInitiateFailsOnMissingDepositAmount(t *testing.T) {
	t.Parallel()

	auction := &models.Auction{ID: uuid.New(), Status: enums.AuctionStatusScheduled, EMDRequired: true}
	svc, _ := NewService(&stubDepositRepo{}, &stubAuctionFinder{auction: auction}, nil, true)

	_, err := svc.Initiate(context.Background(), auction.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestInitiateAuctionNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubDepositRepo{}, &stubAuctionFinder{}, nil, true)

	_, err := svc.Initiate(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
