package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Notification is a per-user in-app notification row written by the
// notification consumer.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body;not null"`
	AuctionID *uuid.UUID             `gorm:"column:auction_id;type:uuid"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
