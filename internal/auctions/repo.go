package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Repository exposes auction persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*models.Auction, error)
	ListByStatus(ctx context.Context, status enums.AuctionStatus, limit int) ([]models.Auction, error)
	FindDueToStart(ctx context.Context, now time.Time) ([]models.Auction, error)
	FindDueToEnd(ctx context.Context, now time.Time) ([]models.Auction, error)
	FindPendingApproval(ctx context.Context, endedBefore time.Time) ([]models.Auction, error)
	MarkLive(ctx context.Context, id uuid.UUID) (bool, error)
	MarkEnded(ctx context.Context, id uuid.UUID, approvalDeadline time.Time) (bool, error)
	CompareAndSwapCurrentBidTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next int64) (bool, error)
	UpdateWinnerTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, winnerID uuid.UUID, currentBid int64, approval enums.SellerApprovalStatus) error
	UpdateSellerApprovalTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SellerApprovalStatus, reason *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an auction repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if err := r.db.WithContext(ctx).Create(auction).Error; err != nil {
		return nil, err
	}
	return auction, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *repository) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).First(&auction).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.AuctionStatus, limit int) ([]models.Auction, error) {
	var rows []models.Auction
	q := r.db.WithContext(ctx).Where("status = ?", status).Order("start_time ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindDueToStart(ctx context.Context, now time.Time) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ? AND end_time > ?", enums.AuctionStatusScheduled, now, now).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindDueToEnd(ctx context.Context, now time.Time) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", enums.AuctionStatusLive, now).
		Order("end_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindPendingApproval(ctx context.Context, endedBefore time.Time) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND winner_id IS NOT NULL AND seller_approval_status = ? AND end_time <= ?",
			enums.AuctionStatusEnded, enums.SellerApprovalPending, endedBefore).
		Order("end_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkLive flips SCHEDULED to LIVE. The status filter keeps repeated sweeps
// from re-transitioning an auction.
func (r *repository) MarkLive(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, enums.AuctionStatusScheduled).
		Update("status", enums.AuctionStatusLive)
	return res.RowsAffected > 0, res.Error
}

// MarkEnded flips LIVE to ENDED and stamps the approval deadline. The LIVE
// filter holds the row, so a bid CAS racing the close re-evaluates against
// ENDED and fails. Winner fields are written afterwards via UpdateWinnerTx.
func (r *repository) MarkEnded(ctx context.Context, id uuid.UUID, approvalDeadline time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND status = ?", id, enums.AuctionStatusLive).
		Updates(map[string]any{
			"status":            enums.AuctionStatusEnded,
			"approval_deadline": approvalDeadline,
		})
	return res.RowsAffected > 0, res.Error
}

// CompareAndSwapCurrentBidTx performs the optimistic update that serializes
// concurrent bid placement. It only succeeds while the auction is LIVE and
// current_bid still equals the value the caller validated against.
func (r *repository) CompareAndSwapCurrentBidTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next int64) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND status = ? AND current_bid = ?", id, enums.AuctionStatusLive, expected).
		Update("current_bid", next)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) UpdateWinnerTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, winnerID uuid.UUID, currentBid int64, approval enums.SellerApprovalStatus) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"winner_id":              winnerID,
			"current_bid":            currentBid,
			"seller_approval_status": approval,
		}).Error
}

// UpdateSellerApprovalTx resolves the approval gate. The PENDING filter
// makes the transition one-shot: a concurrent resolution that already won
// the row reports zero rows moved here.
func (r *repository) UpdateSellerApprovalTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.SellerApprovalStatus, reason *string) (bool, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	updates := map[string]any{
		"seller_approval_status": status,
	}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}
	res := conn.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND seller_approval_status = ?", id, enums.SellerApprovalPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
