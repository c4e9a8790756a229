package vehicles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Repository exposes vehicle persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListByStatus(ctx context.Context, status enums.VehicleStatus, limit int) ([]models.Vehicle, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Vehicle, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to enums.VehicleStatus) (bool, error)
	Review(ctx context.Context, id uuid.UUID, approved bool, reason *string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vehicle repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.VehicleStatus, limit int) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	q := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	q := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusTx moves a vehicle between statuses with a precondition on
// the current value, so concurrent transitions cannot clobber each other.
func (r *repository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to enums.VehicleStatus) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	updates := map[string]any{"status": to}
	if to == enums.VehicleStatusSold {
		updates["sold_at"] = time.Now()
	}
	res := conn.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) Review(ctx context.Context, id uuid.UUID, approved bool, reason *string, at time.Time) (bool, error) {
	updates := map[string]any{}
	if approved {
		updates["status"] = enums.VehicleStatusApproved
		updates["approved_at"] = at
	} else {
		updates["status"] = enums.VehicleStatusRejected
		if reason != nil {
			updates["rejection_reason"] = *reason
		}
	}
	res := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", id, enums.VehicleStatusPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
