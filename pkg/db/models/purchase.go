package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tractorbid/tractorbid-backend/pkg/enums"
)

// Purchase is the commercial record produced by settlement. It references
// the vehicle and buyer directly so the auction row stays an audit trail.
type Purchase struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID          uuid.UUID            `gorm:"column:vehicle_id;type:uuid;not null"`
	BuyerID            uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null"`
	PurchasePrice      int64                `gorm:"column:purchase_price;not null"`
	PurchaseType       enums.PurchaseType   `gorm:"column:purchase_type;type:text;not null"`
	Status             enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'payment_pending'"`
	BalanceAmount      *int64               `gorm:"column:balance_amount"`
	BalancePaidAt      *time.Time           `gorm:"column:balance_paid_at"`
	BalanceOrderID     *string              `gorm:"column:balance_order_id"`
	EMDApplied         bool                 `gorm:"column:emd_applied;not null;default:false"`
	EMDAmount          *int64               `gorm:"column:emd_amount"`
	TransactionFee     int64                `gorm:"column:transaction_fee;not null;default:0"`
	TransactionFeePaid bool                 `gorm:"column:transaction_fee_paid;not null;default:false"`
	FeeOrderID         *string              `gorm:"column:fee_order_id"`
	DeliveredAt        *time.Time           `gorm:"column:delivered_at"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
