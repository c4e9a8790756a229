package watchlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/db"
	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
)

// Service exposes watchlist operations.
type Service interface {
	Add(ctx context.Context, userID, auctionID uuid.UUID) error
	Remove(ctx context.Context, userID, auctionID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.WatchlistItem, error)
}

type service struct {
	repo Repository
}

// NewService builds the watchlist service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("watchlist repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Add(ctx context.Context, userID, auctionID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if auctionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	err := s.repo.Add(ctx, &models.WatchlistItem{UserID: userID, AuctionID: auctionID})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_watchlist_user_auction") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add watchlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, auctionID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if auctionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "auction id required")
	}
	removed, err := s.repo.Remove(ctx, userID, auctionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove watchlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "watchlist item not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.WatchlistItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list watchlist")
	}
	return rows, nil
}
