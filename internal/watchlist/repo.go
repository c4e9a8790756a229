package watchlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
)

// Repository exposes watchlist persistence operations.
type Repository interface {
	Add(ctx context.Context, item *models.WatchlistItem) error
	Remove(ctx context.Context, userID, auctionID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WatchlistItem, error)
	ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a watchlist repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Add(ctx context.Context, item *models.WatchlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Remove(ctx context.Context, userID, auctionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND auction_id = ?", userID, auctionID).
		Delete(&models.WatchlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WatchlistItem, error) {
	var rows []models.WatchlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListWatchers returns the user ids watching an auction, used by the
// notification consumer for fan-out.
func (r *repository) ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.WatchlistItem{}).
		Where("auction_id = ?", auctionID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
