package emd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Repository exposes earnest money deposit persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deposit *models.EarnestMoneyDeposit) (*models.EarnestMoneyDeposit, error)
	Find(ctx context.Context, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error)
	FindTx(ctx context.Context, tx *gorm.DB, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.EarnestMoneyDeposit, error)
	ResetToPending(ctx context.Context, id uuid.UUID, gatewayOrderID *string) error
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) (bool, error)
	MarkAppliedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, appliedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an EMD repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deposit *models.EarnestMoneyDeposit) (*models.EarnestMoneyDeposit, error) {
	if err := r.db.WithContext(ctx).Create(deposit).Error; err != nil {
		return nil, err
	}
	return deposit, nil
}

func (r *repository) Find(ctx context.Context, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error) {
	var deposit models.EarnestMoneyDeposit
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND bidder_id = ?", auctionID, bidderID).
		First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) FindTx(ctx context.Context, tx *gorm.DB, auctionID, bidderID uuid.UUID) (*models.EarnestMoneyDeposit, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var deposit models.EarnestMoneyDeposit
	err := conn.WithContext(ctx).
		Where("auction_id = ? AND bidder_id = ?", auctionID, bidderID).
		First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EarnestMoneyDeposit, error) {
	var deposit models.EarnestMoneyDeposit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) ResetToPending(ctx context.Context, id uuid.UUID, gatewayOrderID *string) error {
	updates := map[string]any{
		"status":     enums.EMDStatusPending,
		"payment_id": nil,
		"paid_at":    nil,
	}
	if gatewayOrderID != nil {
		updates["gateway_order_id"] = *gatewayOrderID
	}
	return r.db.WithContext(ctx).Model(&models.EarnestMoneyDeposit{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkPaid transitions PENDING -> PAID. The status filter makes repeated
// webhook deliveries no-ops.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.EarnestMoneyDeposit{}).
		Where("id = ? AND status = ?", id, enums.EMDStatusPending).
		Updates(map[string]any{
			"status":     enums.EMDStatusPaid,
			"payment_id": paymentID,
			"paid_at":    paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkAppliedTx flips a PAID deposit to APPLIED exactly once. The filter on
// applied_to_balance guards against a second settlement re-consuming it.
func (r *repository) MarkAppliedTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, appliedAt time.Time) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).Model(&models.EarnestMoneyDeposit{}).
		Where("id = ? AND status = ? AND applied_to_balance = ?", id, enums.EMDStatusPaid, false).
		Updates(map[string]any{
			"status":             enums.EMDStatusApplied,
			"applied_to_balance": true,
			"applied_at":         appliedAt,
		})
	return res.RowsAffected > 0, res.Error
}
