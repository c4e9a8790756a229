package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
)

const maxRejectionReasonLen = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auctionStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	UpdateWinnerTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, winnerID uuid.UUID, currentBid int64, approval enums.SellerApprovalStatus) error
	UpdateSellerApprovalTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SellerApprovalStatus, reason *string) (bool, error)
}

type bidStore interface {
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Bid, error)
	UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error
	MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error
	FindWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
}

type emdStore interface {
	FindTx(ctx context.Context, tx *gorm.DB, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error)
	MarkAppliedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, appliedAt time.Time) (bool, error)
}

type purchaseStore interface {
	CreateTx(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.Purchase, error)
	ExistsForVehicleBuyerTx(ctx context.Context, tx *gorm.DB, vehicleID, buyerID uuid.UUID) (bool, error)
}

type vehicleStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to enums.VehicleStatus) (bool, error)
}

// ConfirmWinnerInput is the admin path: fix the winning bid explicitly and
// open the seller approval window. No purchase is created yet.
type ConfirmWinnerInput struct {
	AuctionID   uuid.UUID
	WinnerBidID uuid.UUID
	WinnerID    uuid.UUID
	ActorID     uuid.UUID
}

// ApproveInput is the seller/admin path: ratify or reject the winner. An
// approval runs full settlement.
type ApproveInput struct {
	AuctionID       uuid.UUID
	ApprovalStatus  enums.SellerApprovalStatus
	RejectionReason *string
	ActorID         uuid.UUID
	ActorRole       enums.UserRole
}

// SettledEvent is emitted when a purchase is composed from a winning bid.
type SettledEvent struct {
	AuctionID      uuid.UUID `json:"auction_id"`
	PurchaseID     uuid.UUID `json:"purchase_id"`
	VehicleID      uuid.UUID `json:"vehicle_id"`
	BuyerID        uuid.UUID `json:"buyer_id"`
	PurchasePrice  int64     `json:"purchase_price"`
	BalanceAmount  int64     `json:"balance_amount"`
	EMDApplied     bool      `json:"emd_applied"`
	TransactionFee int64     `json:"transaction_fee"`
}

// RejectedEvent is emitted when the seller rejects the winning bid.
type RejectedEvent struct {
	AuctionID uuid.UUID  `json:"auction_id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

// Service converts a confirmed auction winner into a purchase.
type Service interface {
	ConfirmWinner(ctx context.Context, input ConfirmWinnerInput) (*models.Auction, error)
	Approve(ctx context.Context, input ApproveInput) (*models.Purchase, error)
}

type service struct {
	auctions  auctionStore
	bids      bidStore
	deposits  emdStore
	purchases purchaseStore
	vehicles  vehicleStore
	tx        txRunner
	outbox    outboxPublisher
	fees      config.FeesConfig
	now       func() time.Time
}

// NewService builds the settlement service with the required dependencies.
func NewService(
	auctions auctionStore,
	bids bidStore,
	deposits emdStore,
	purchases purchaseStore,
	vehicles vehicleStore,
	tx txRunner,
	ob outboxPublisher,
	fees config.FeesConfig,
) (Service, error) {
	if auctions == nil {
		return nil, fmt.Errorf("auction store required")
	}
	if bids == nil {
		return nil, fmt.Errorf("bid store required")
	}
	if deposits == nil {
		return nil, fmt.Errorf("emd store required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase store required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		auctions:  auctions,
		bids:      bids,
		deposits:  deposits,
		purchases: purchases,
		vehicles:  vehicles,
		tx:        tx,
		outbox:    ob,
		fees:      fees,
		now:       time.Now,
	}, nil
}

// ConfirmWinner pins the winning bid for an ended auction. The seller
// approval window stays open; settlement happens on Approve.
func (s *service) ConfirmWinner(ctx context.Context, input ConfirmWinnerInput) (*models.Auction, error) {
	if input.AuctionID == uuid.Nil || input.WinnerBidID == uuid.Nil || input.WinnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction, bid, and winner ids are required")
	}

	auction, err := s.loadEndedAuction(ctx, input.AuctionID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bid, err := s.bids.FindByIDTx(ctx, tx, input.WinnerBidID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}
		if bid.AuctionID != auction.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "bid does not belong to this auction")
		}
		if bid.BidderID != input.WinnerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "bid does not belong to the named winner")
		}
		if bid.BidAmount < auction.ReservePrice {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("winning bid %d is below the reserve price %d", bid.BidAmount, auction.ReservePrice))
		}

		if err := s.bids.UnsetWinningTx(ctx, tx, auction.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unset winning bids")
		}
		if err := s.bids.MarkWinningTx(ctx, tx, bid.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark winning bid")
		}
		if err := s.auctions.UpdateWinnerTx(ctx, tx, auction.ID, input.WinnerID, bid.BidAmount, enums.SellerApprovalPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update auction winner")
		}

		auction.WinnerID = &input.WinnerID
		auction.CurrentBid = bid.BidAmount
		auction.SellerApprovalStatus = enums.SellerApprovalPending

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWinnerConfirmed,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Data: map[string]any{
				"auction_id": auction.ID,
				"winner_id":  input.WinnerID,
				"bid_id":     bid.ID,
				"amount":     bid.BidAmount,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

// Approve resolves the seller approval gate. APPROVED runs the full
// settlement transaction; REJECTED records the reason and leaves the
// vehicle untouched.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Purchase, error) {
	if input.AuctionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	if input.ApprovalStatus != enums.SellerApprovalApproved && input.ApprovalStatus != enums.SellerApprovalRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approval status must be APPROVED or REJECTED")
	}
	if input.RejectionReason != nil && len(strings.TrimSpace(*input.RejectionReason)) > maxRejectionReasonLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("rejection reason must be at most %d characters", maxRejectionReasonLen))
	}

	auction, err := s.loadEndedAuction(ctx, input.AuctionID)
	if err != nil {
		return nil, err
	}
	if auction.WinnerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction has no winner to approve")
	}
	if auction.SellerApprovalStatus != enums.SellerApprovalPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "winner approval already resolved")
	}

	if input.ActorRole != enums.UserRoleAdmin {
		vehicle, err := s.vehicles.FindByID(ctx, auction.VehicleID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
		}
		if vehicle.SellerID != input.ActorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can resolve the winning bid")
		}
	}

	if input.ApprovalStatus == enums.SellerApprovalRejected {
		return nil, s.reject(ctx, auction, input)
	}
	return s.settle(ctx, auction, input)
}

func (s *service) reject(ctx context.Context, auction *models.Auction, input ApproveInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.auctions.UpdateSellerApprovalTx(ctx, tx, auction.ID, enums.SellerApprovalRejected, input.RejectionReason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rejection")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "winner approval already resolved")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWinnerRejected,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(input.ActorRole)},
			Data: RejectedEvent{
				AuctionID: auction.ID,
				VehicleID: auction.VehicleID,
				WinnerID:  auction.WinnerID,
				Reason:    input.RejectionReason,
			},
			Version: 1,
		})
	})
}

// settle runs the atomic sequence: re-pin the winning bid, approve, apply
// EMD, compose the purchase, and mark the vehicle sold. A failure at any
// step rolls back the lot, so an APPLIED deposit always has its purchase.
func (s *service) settle(ctx context.Context, auction *models.Auction, input ApproveInput) (*models.Purchase, error) {
	var purchase *models.Purchase

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		winningBid, err := s.bids.FindWinningTx(ctx, tx, auction.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no winning bid recorded for this auction")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load winning bid")
		}
		if winningBid.BidderID != *auction.WinnerID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "winning bid does not match auction winner")
		}
		if winningBid.BidAmount < auction.ReservePrice {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("winning bid %d is below the reserve price %d", winningBid.BidAmount, auction.ReservePrice))
		}

		exists, err := s.purchases.ExistsForVehicleBuyerTx(ctx, tx, auction.VehicleID, *auction.WinnerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing purchase")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already settled for this auction")
		}

		approved, err := s.auctions.UpdateSellerApprovalTx(ctx, tx, auction.ID, enums.SellerApprovalApproved, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve winner")
		}
		if !approved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "winner approval already resolved")
		}

		purchasePrice := winningBid.BidAmount
		fee := ComputeTransactionFee(purchasePrice, s.fees.ActiveBps())

		p := &models.Purchase{
			VehicleID:      auction.VehicleID,
			BuyerID:        *auction.WinnerID,
			PurchasePrice:  purchasePrice,
			PurchaseType:   enums.PurchaseTypeAuction,
			TransactionFee: fee,
		}

		deposit, err := s.deposits.FindTx(ctx, tx, auction.ID, *auction.WinnerID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deposit")
		}

		balance := purchasePrice
		if deposit != nil && deposit.Status == enums.EMDStatusPaid && !deposit.AppliedToBalance {
			applied, err := s.deposits.MarkAppliedTx(ctx, tx, deposit.ID, s.now())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply deposit")
			}
			if applied {
				p.EMDApplied = true
				p.EMDAmount = &deposit.Amount
				balance = purchasePrice - deposit.Amount
				if balance < 0 {
					balance = 0
				}
			}
		}
		p.BalanceAmount = &balance

		if balance > 0 || fee > 0 {
			p.Status = enums.PurchaseStatusPaymentPending
		} else {
			p.Status = enums.PurchaseStatusPending
		}

		if _, err := s.purchases.CreateTx(ctx, tx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		sold, err := s.vehicles.UpdateStatusTx(ctx, tx, auction.VehicleID, enums.VehicleStatusAuction, enums.VehicleStatusSold)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark vehicle sold")
		}
		if !sold {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle is not in auction state")
		}

		purchase = p

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionSettled,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   p.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(input.ActorRole)},
			Data: SettledEvent{
				AuctionID:      auction.ID,
				PurchaseID:     p.ID,
				VehicleID:      auction.VehicleID,
				BuyerID:        *auction.WinnerID,
				PurchasePrice:  purchasePrice,
				BalanceAmount:  balance,
				EMDApplied:     p.EMDApplied,
				TransactionFee: fee,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *service) loadEndedAuction(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	auction, err := s.auctions.FindByID(ctx, auctionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	if auction.Status != enums.AuctionStatusEnded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction has not ended")
	}
	return auction, nil
}
