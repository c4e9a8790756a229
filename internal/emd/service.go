package emd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/razorpay"
)

type auctionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

type gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	NewReceipt(prefix string) string
}

// StatusResult reports the deposit state for a (auction, bidder) pair.
type StatusResult struct {
	EMDRequired bool            `json:"emdRequired"`
	EMDAmount   *int64          `json:"emdAmount,omitempty"`
	Status      enums.EMDStatus `json:"emdStatus"`
}

// InitiateResult carries either the synthetic test-mode confirmation or the
// gateway order descriptor the client completes checkout with.
type InitiateResult struct {
	Deposit *models.EarnestMoneyDeposit `json:"deposit"`
	Order   *razorpay.Order             `json:"order,omitempty"`
	Paid    bool                        `json:"paid"`
}

// Service tracks earnest money deposits per (auction, bidder).
type Service interface {
	Status(ctx context.Context, auctionID, bidderID uuid.UUID) (*StatusResult, error)
	Initiate(ctx context.Context, auctionID, bidderID uuid.UUID) (*InitiateResult, error)
}

type service struct {
	repo     Repository
	auctions auctionStore
	gateway  gateway
	testMode bool
	now      func() time.Time
}

// NewService builds an EMD service with the required dependencies. The
// gateway may be nil only in test mode.
func NewService(repo Repository, auctions auctionStore, gw gateway, testMode bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("emd repository required")
	}
	if auctions == nil {
		return nil, fmt.Errorf("auction store required")
	}
	if gw == nil && !testMode {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		repo:     repo,
		auctions: auctions,
		gateway:  gw,
		testMode: testMode,
		now:      time.Now,
	}, nil
}

func (s *service) Status(ctx context.Context, auctionID, bidderID uuid.UUID) (*StatusResult, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bidder identity missing")
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		EMDRequired: auction.EMDRequired,
		Status:      enums.EMDStatusNotPaid,
	}
	if !auction.EMDRequired {
		return result, nil
	}
	result.EMDAmount = auction.EMDAmount

	deposit, err := s.repo.Find(ctx, auctionID, bidderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deposit")
	}
	result.Status = deposit.Status
	return result, nil
}

// Initiate creates or resets the deposit row to PENDING and starts payment.
// A deposit already PAID or APPLIED is rejected so the bidder cannot pay
// twice for the same auction.
func (s *service) Initiate(ctx context.Context, auctionID, bidderID uuid.UUID) (*InitiateResult, error) {
	if auctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if bidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bidder identity missing")
	}

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !auction.EMDRequired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction does not require a deposit")
	}
	if auction.EMDAmount == nil || *auction.EMDAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auction deposit amount not configured")
	}
	amount := *auction.EMDAmount

	deposit, err := s.repo.Find(ctx, auctionID, bidderID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deposit")
	}

	if deposit != nil {
		switch deposit.Status {
		case enums.EMDStatusPaid, enums.EMDStatusApplied:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit already paid")
		}
	} else {
		deposit = &models.EarnestMoneyDeposit{
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			Status:    enums.EMDStatusPending,
		}
		if _, err := s.repo.Create(ctx, deposit); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deposit")
		}
	}

	if s.testMode {
		ref := fmt.Sprintf("test-%s", uuid.NewString())
		if _, err := s.repo.MarkPaid(ctx, deposit.ID, ref, s.now()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark deposit paid")
		}
		deposit.Status = enums.EMDStatusPaid
		deposit.PaymentID = &ref
		return &InitiateResult{Deposit: deposit, Paid: true}, nil
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: amount * 100,
		Receipt:     s.gateway.NewReceipt("emd"),
		Notes: map[string]string{
			"payment_type": string(enums.PaymentTypeEMD),
			"emd_id":       deposit.ID.String(),
			"auction_id":   auctionID.String(),
			"bidder_id":    bidderID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	if err := s.repo.ResetToPending(ctx, deposit.ID, &order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset deposit")
	}
	deposit.Status = enums.EMDStatusPending
	deposit.GatewayOrderID = &order.ID

	return &InitiateResult{Deposit: deposit, Order: order}, nil
}

func (s *service) loadAuction(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.FindByID(ctx, auctionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	return auction, nil
}
