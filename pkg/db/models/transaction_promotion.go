package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionPromotion freezes the discount a promotion actually granted
// to a transaction, independent of later promotion edits.
type TransactionPromotion struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID  uuid.UUID       `gorm:"column:transaction_id;type:uuid;not null;index"`
	PromotionID    uuid.UUID       `gorm:"column:promotion_id;type:uuid;not null;index"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null"`
}
