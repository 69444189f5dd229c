package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// Commission is one payout entry produced by a settlement. Reseller rows
// carry the chain distance in Level (0 = direct seller); affiliate rows
// leave it null. Refunds append equal-and-opposite rows, they never
// delete history. IsPaid tracks a payout lifecycle decoupled from the
// transaction status.
type Commission struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	TransactionID    uuid.UUID            `gorm:"column:transaction_id;type:uuid;not null"`
	Type             enums.CommissionType `gorm:"column:commission_type;type:commission_type;not null"`
	Level            *int                 `gorm:"column:level"`
	BaseAmount       decimal.Decimal      `gorm:"column:base_amount;type:numeric(15,2);not null"`
	CommissionRate   decimal.Decimal      `gorm:"column:commission_rate;type:numeric(8,4);not null"`
	CommissionAmount decimal.Decimal      `gorm:"column:commission_amount;type:numeric(15,2);not null"`
	IsReversal       bool                 `gorm:"column:is_reversal;not null;default:false"`
	IsPaid           bool                 `gorm:"column:is_paid;not null;default:false"`
	PaidAt           *time.Time           `gorm:"column:paid_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
}
