package vehicles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
)

// SubmitInput carries a seller's new listing.
type SubmitInput struct {
	SellerID       uuid.UUID
	Make           string
	Model          string
	Year           int
	RegistrationNo string
	HoursUsed      *int
	ExpectedPrice  int64
	Description    *string
}

// ReviewInput carries an admin approval or rejection of a pending listing.
type ReviewInput struct {
	VehicleID uuid.UUID
	Approved  bool
	Reason    *string
}

// Service exposes vehicle listing and review operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Vehicle, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListByStatus(ctx context.Context, status enums.VehicleStatus, limit int) ([]models.Vehicle, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Vehicle, error)
	Review(ctx context.Context, input ReviewInput) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a vehicle service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Vehicle, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if strings.TrimSpace(input.Make) == "" || strings.TrimSpace(input.Model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "make and model are required")
	}
	if input.Year < 1950 || input.Year > s.now().Year()+1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid year")
	}
	if strings.TrimSpace(input.RegistrationNo) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number required")
	}
	if input.ExpectedPrice <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected price must be positive")
	}

	vehicle := &models.Vehicle{
		SellerID:       input.SellerID,
		Make:           strings.TrimSpace(input.Make),
		Model:          strings.TrimSpace(input.Model),
		Year:           input.Year,
		RegistrationNo: strings.TrimSpace(input.RegistrationNo),
		HoursUsed:      input.HoursUsed,
		ExpectedPrice:  input.ExpectedPrice,
		Description:    input.Description,
		Status:         enums.VehicleStatusPending,
	}
	if _, err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vehicle")
	}
	return vehicle, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	return vehicle, nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.VehicleStatus, limit int) ([]models.Vehicle, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle status")
	}
	rows, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return rows, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Vehicle, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return rows, nil
}

func (s *service) Review(ctx context.Context, input ReviewInput) error {
	if input.VehicleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	if !input.Approved && (input.Reason == nil || strings.TrimSpace(*input.Reason) == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	moved, err := s.repo.Review(ctx, input.VehicleID, input.Approved, input.Reason, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review vehicle")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle is not pending review")
	}
	return nil
}
