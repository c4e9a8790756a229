package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  auction_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, read bool) models.Notification {
	t.Helper()

	row := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationAuctionEnded,
		Title:     "Auction ended",
		Body:      fmt.Sprintf("auction closed at %s", createdAt.Format(time.RFC3339)),
		CreatedAt: createdAt,
	}
	if read {
		readAt := createdAt.Add(time.Minute)
		row.ReadAt = &readAt
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestNotificationsListPaginates(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Minute), false)
	}
	// Another user's rows must not leak in.
	seedNotification(t, db, uuid.New(), base, false)

	rows, cursor, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.NotNil(t, cursor)
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))

	rest, next, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Nil(t, next)
}

func TestNotificationsListUnreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	unread := seedNotification(t, db, userID, base.Add(time.Minute), false)
	seedNotification(t, db, userID, base, true)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
}

func TestNotificationsMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	row := seedNotification(t, db, userID, time.Now().UTC(), false)
	now := time.Now().UTC()

	mark, err := repo.MarkRead(ctx, userID, row.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Updated)
	assert.True(t, mark.Found)

	// Second pass finds the row but changes nothing.
	mark, err = repo.MarkRead(ctx, userID, row.ID, now)
	require.NoError(t, err)
	assert.False(t, mark.Updated)
	assert.True(t, mark.Found)

	// A different user cannot mark someone else's notification.
	mark, err = repo.MarkRead(ctx, uuid.New(), row.ID, now)
	require.NoError(t, err)
	assert.False(t, mark.Updated)
	assert.False(t, mark.Found)
}

func TestNotificationsMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	seedNotification(t, db, userID, base, false)
	seedNotification(t, db, userID, base.Add(time.Minute), false)
	seedNotification(t, db, userID, base.Add(2*time.Minute), true)

	updated, err := repo.MarkAllRead(ctx, userID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	rows, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
