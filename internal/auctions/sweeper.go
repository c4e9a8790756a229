package auctions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/outbox"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type bidStore interface {
	FindHighestTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
	UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error
	MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error
}

// SweepResult summarizes one transition pass for the cron log.
type SweepResult struct {
	Started int      `json:"started"`
	Ended   int      `json:"ended"`
	Errored int      `json:"errored"`
	Errors  []string `json:"errors,omitempty"`
}

// AuctionStartedEvent is emitted when an auction goes LIVE.
type AuctionStartedEvent struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	ReferenceNumber string    `json:"reference_number"`
	EndTime         time.Time `json:"end_time"`
}

// AuctionEndedEvent is emitted when an auction closes.
type AuctionEndedEvent struct {
	AuctionID       uuid.UUID  `json:"auction_id"`
	VehicleID       uuid.UUID  `json:"vehicle_id"`
	ReferenceNumber string     `json:"reference_number"`
	WinnerID        *uuid.UUID `json:"winner_id,omitempty"`
	ClosingBid      int64      `json:"closing_bid"`
	HadBids         bool       `json:"had_bids"`
}

// Sweeper drives the clock-based SCHEDULED -> LIVE -> ENDED transitions.
// It is invoked externally (cron endpoint or worker) with an explicit
// timestamp so tests can control the clock.
type Sweeper struct {
	repo             Repository
	bids             bidStore
	tx               txRunner
	outbox           outboxPublisher
	logg             *logger.Logger
	approvalDeadline time.Duration
}

// NewSweeper builds the transition sweeper.
func NewSweeper(repo Repository, bids bidStore, tx txRunner, ob outboxPublisher, logg *logger.Logger, approvalDeadline time.Duration) (*Sweeper, error) {
	if repo == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if bids == nil {
		return nil, fmt.Errorf("bid store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if approvalDeadline <= 0 {
		approvalDeadline = 7 * 24 * time.Hour
	}
	return &Sweeper{
		repo:             repo,
		bids:             bids,
		tx:               tx,
		outbox:           ob,
		logg:             logg,
		approvalDeadline: approvalDeadline,
	}, nil
}

// Sweep runs one transition pass. Failures are isolated per auction so one
// bad row cannot stall the rest of the sweep.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	var errs error

	due, err := s.repo.FindDueToStart(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query auctions due to start")
	}
	for _, auction := range due {
		moved, err := s.startAuction(ctx, auction)
		if err != nil {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("start %s: %v", auction.ID, err))
			errs = multierr.Append(errs, err)
			continue
		}
		if moved {
			result.Started++
		}
	}

	ending, err := s.repo.FindDueToEnd(ctx, now)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query auctions due to end")
	}
	for _, auction := range ending {
		moved, err := s.endAuction(ctx, auction, now)
		if err != nil {
			result.Errored++
			result.Errors = append(result.Errors, fmt.Sprintf("end %s: %v", auction.ID, err))
			errs = multierr.Append(errs, err)
			continue
		}
		if moved {
			result.Ended++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"started": result.Started,
		"ended":   result.Ended,
		"errored": result.Errored,
	})
	s.logg.Info(logCtx, "auction status sweep completed")

	return result, errs
}

func (s *Sweeper) startAuction(ctx context.Context, auction models.Auction) (bool, error) {
	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).MarkLive(ctx, auction.ID)
		if err != nil {
			return err
		}
		if !moved {
			// Another sweep already transitioned it.
			return nil
		}
		transitioned = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionStarted,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Data: AuctionStartedEvent{
				AuctionID:       auction.ID,
				VehicleID:       auction.VehicleID,
				ReferenceNumber: auction.ReferenceNumber,
				EndTime:         auction.EndTime,
			},
			Version: 1,
		})
	})
	return transitioned, err
}

func (s *Sweeper) endAuction(ctx context.Context, auction models.Auction, now time.Time) (bool, error) {
	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The status flip goes first. Its LIVE precondition holds the row,
		// so any bid CAS still in flight re-evaluates against ENDED and
		// fails; the highest-bid read below then sees the final ledger.
		deadline := auction.EndTime.Add(s.approvalDeadline)
		moved, err := repo.MarkEnded(ctx, auction.ID, deadline)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		transitioned = true

		winning, err := s.bids.FindHighestTx(ctx, tx, auction.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		event := AuctionEndedEvent{
			AuctionID:       auction.ID,
			VehicleID:       auction.VehicleID,
			ReferenceNumber: auction.ReferenceNumber,
			ClosingBid:      auction.CurrentBid,
		}
		if winning != nil {
			if err := s.bids.UnsetWinningTx(ctx, tx, auction.ID); err != nil {
				return err
			}
			if err := s.bids.MarkWinningTx(ctx, tx, winning.ID); err != nil {
				return err
			}
			if err := repo.UpdateWinnerTx(ctx, tx, auction.ID, winning.BidderID, winning.BidAmount, enums.SellerApprovalPending); err != nil {
				return err
			}
			event.WinnerID = &winning.BidderID
			event.HadBids = true
			event.ClosingBid = winning.BidAmount
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionEnded,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Data:          event,
			Version:       1,
			OccurredAt:    now,
		})
	})
	return transitioned, err
}
