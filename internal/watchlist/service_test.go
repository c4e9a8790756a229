package watchlist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
)

type stubWatchlistRepo struct {
	Repository
	added   *models.WatchlistItem
	addErr  error
	removed bool
	rows    []models.WatchlistItem
}

func (s *stubWatchlistRepo) Add(ctx context.Context, item *models.WatchlistItem) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = item
	return nil
}

func (s *stubWatchlistRepo) Remove(ctx context.Context, userID, auctionID uuid.UUID) (bool, error) {
	return s.removed, nil
}

func (s *stubWatchlistRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WatchlistItem, error) {
	return s.rows, nil
}

func TestAddRecordsItem(t *testing.T) {
	t.Parallel()

	repo := &stubWatchlistRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, auctionID := uuid.New(), uuid.New()
	if err := svc.Add(context.Background(), userID, auctionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.added == nil || repo.added.UserID != userID || repo.added.AuctionID != auctionID {
		t.Fatalf("expected item recorded, got %+v", repo.added)
	}
}

func TestAddSwallowsDuplicate(t *testing.T) {
	t.Parallel()

	repo := &stubWatchlistRepo{addErr: errors.New(`duplicate key value violates unique constraint "idx_watchlist_user_auction"`)}
	svc, _ := NewService(repo)

	if err := svc.Add(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("expected duplicate add to be a no-op, got %v", err)
	}
}

func TestAddValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubWatchlistRepo{})

	err := svc.Add(context.Background(), uuid.Nil, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	err = svc.Add(context.Background(), uuid.New(), uuid.Nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveMissingItem(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubWatchlistRepo{removed: false})

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveExistingItem(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubWatchlistRepo{removed: true})

	if err := svc.Remove(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListReturnsRows(t *testing.T) {
	t.Parallel()

	rows := []models.WatchlistItem{{ID: uuid.New()}, {ID: uuid.New()}}
	svc, _ := NewService(&stubWatchlistRepo{rows: rows})

	got, err := svc.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}
