package auctions

import (
	"context"
	"crypto/rand"
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

type vehicleStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to enums.VehicleStatus) (bool, error)
}

// PriceTier holds the increment and deposit defaults derived from the
// vehicle's expected price band.
type PriceTier struct {
	MinimumIncrement int64
	EMDAmount        int64
}

// TierFor returns the defaults for the given expected price.
func TierFor(expectedPrice int64) PriceTier {
	switch {
	case expectedPrice < 500_000:
		return PriceTier{MinimumIncrement: 5_000, EMDAmount: 10_000}
	case expectedPrice < 2_000_000:
		return PriceTier{MinimumIncrement: 10_000, EMDAmount: 25_000}
	default:
		return PriceTier{MinimumIncrement: 25_000, EMDAmount: 50_000}
	}
}

// ScheduleInput carries the admin-provided auction parameters. Zero-valued
// overrides fall back to price-tier defaults.
type ScheduleInput struct {
	VehicleID        uuid.UUID
	StartTime        time.Time
	EndTime          time.Time
	ReservePrice     int64
	MinimumIncrement int64
	EMDRequired      *bool
	EMDAmount        int64
}

// Service defines auction scheduling and read operations.
type Service interface {
	Schedule(ctx context.Context, input ScheduleInput) (*models.Auction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	ListByStatus(ctx context.Context, status enums.AuctionStatus, limit int) ([]models.Auction, error)
}

type service struct {
	repo     Repository
	vehicles vehicleStore
	tx       txRunner
	now      func() time.Time
}

// NewService builds an auction service with the required dependencies.
func NewService(repo Repository, vehicles vehicleStore, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auctions repository required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		vehicles: vehicles,
		tx:       tx,
		now:      time.Now,
	}, nil
}

func (s *service) Schedule(ctx context.Context, input ScheduleInput) (*models.Auction, error) {
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end time required")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	if input.EndTime.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be in the future")
	}

	vehicle, err := s.vehicles.FindByID(ctx, input.VehicleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	if vehicle.Status != enums.VehicleStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle is not approved for auction")
	}

	tier := TierFor(vehicle.ExpectedPrice)

	reserve := input.ReservePrice
	if reserve <= 0 {
		reserve = vehicle.ExpectedPrice
	}
	increment := input.MinimumIncrement
	if increment <= 0 {
		increment = tier.MinimumIncrement
	}
	emdRequired := true
	if input.EMDRequired != nil {
		emdRequired = *input.EMDRequired
	}
	emdAmount := input.EMDAmount
	if emdAmount <= 0 {
		emdAmount = tier.EMDAmount
	}

	auction := &models.Auction{
		VehicleID:            input.VehicleID,
		ReferenceNumber:      newReferenceNumber(s.now()),
		StartTime:            input.StartTime,
		EndTime:              input.EndTime,
		ReservePrice:         reserve,
		MinimumIncrement:     increment,
		CurrentBid:           reserve,
		Status:               enums.AuctionStatusScheduled,
		SellerApprovalStatus: enums.SellerApprovalPending,
		EMDRequired:          emdRequired,
	}
	if emdRequired {
		auction.EMDAmount = &emdAmount
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.vehicles.UpdateStatusTx(ctx, tx, vehicle.ID, enums.VehicleStatusApproved, enums.VehicleStatusAuction)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move vehicle to auction")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle already scheduled")
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, auction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auction, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	auction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	return auction, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.AuctionStatus, limit int) ([]models.Auction, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid auction status")
	}
	rows, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list auctions")
	}
	return rows, nil
}

const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newReferenceNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is effectively fatal elsewhere; fall back to
		// a uuid-derived suffix rather than panic.
		return fmt.Sprintf("AUC-%s-%s", now.Format("20060102"), uuid.NewString()[:6])
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return fmt.Sprintf("AUC-%s-%s", now.Format("20060102"), string(buf))
}
