package bids

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
)

// Repository exposes the append-only bid ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Bid, error)
	FindHighestTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
	FindWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
	UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error
	MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bid repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	var rows []models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Bid, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var bid models.Bid
	err := conn.WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// FindWinningTx returns the bid currently flagged as winning.
func (r *repository) FindWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var bid models.Bid
	err := conn.WithContext(ctx).
		Where("auction_id = ? AND is_winning_bid = ?", auctionID, true).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// FindHighestTx returns the winning candidate: highest amount, ties broken
// by earliest bid time.
func (r *repository) FindHighestTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	var bid models.Bid
	err := conn.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("bid_amount DESC").
		Order("bid_time ASC").
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *repository) UnsetWinningTx(ctx context.Context, tx *gorm.DB, auctionID uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Model(&models.Bid{}).
		Where("auction_id = ? AND is_winning_bid = ?", auctionID, true).
		Update("is_winning_bid", false).Error
}

func (r *repository) MarkWinningTx(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Model(&models.Bid{}).
		Where("id = ?", bidID).
		Update("is_winning_bid", true).Error
}
