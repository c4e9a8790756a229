package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Repository exposes purchase persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTx(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.Purchase, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ExistsForVehicleBuyerTx(ctx context.Context, tx *gorm.DB, vehicleID, buyerID uuid.UUID) (bool, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Purchase, error)
	SetBalanceOrderID(ctx context.Context, id uuid.UUID, orderID string) error
	SetFeeOrderID(ctx context.Context, id uuid.UUID, orderID string) error
	MarkBalancePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	MarkFeePaid(ctx context.Context, id uuid.UUID) (bool, error)
	PromoteIfFullyPaid(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTx(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.Purchase, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ExistsForVehicleBuyerTx(ctx context.Context, tx *gorm.DB, vehicleID, buyerID uuid.UUID) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var count int64
	err := conn.WithContext(ctx).Model(&models.Purchase{}).
		Where("vehicle_id = ? AND buyer_id = ?", vehicleID, buyerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Purchase, error) {
	var rows []models.Purchase
	q := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetBalanceOrderID(ctx context.Context, id uuid.UUID, orderID string) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Update("balance_order_id", orderID).Error
}

func (r *repository) SetFeeOrderID(ctx context.Context, id uuid.UUID, orderID string) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Update("fee_order_id", orderID).Error
}

// MarkBalancePaid zeroes the balance once. The balance_paid_at filter keeps
// retried webhooks from double-applying.
func (r *repository) MarkBalancePaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND balance_paid_at IS NULL", id).
		Updates(map[string]any{
			"balance_amount":  0,
			"balance_paid_at": paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkFeePaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND transaction_fee_paid = ?", id, false).
		Update("transaction_fee_paid", true)
	return res.RowsAffected > 0, res.Error
}

// PromoteIfFullyPaid moves payment_pending to pending once nothing is owed.
func (r *repository) PromoteIfFullyPaid(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusPaymentPending).
		Where("(balance_amount IS NULL OR balance_amount = 0)").
		Where("(transaction_fee = 0 OR transaction_fee_paid = ?)", true).
		Update("status", enums.PurchaseStatusPending).Error
}
