package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// Transaction is the unit of settlement. Immutable once completed except
// for the single transition to refunded.
type Transaction struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	TransactionNumber string                  `gorm:"column:transaction_number;not null;uniqueIndex"`
	UserID            *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	CashierID         *uuid.UUID              `gorm:"column:cashier_id;type:uuid"`
	ResellerID        *uuid.UUID              `gorm:"column:reseller_id;type:uuid"`
	AffiliateID       *uuid.UUID              `gorm:"column:affiliate_id;type:uuid"`
	AffiliateLinkCode *string                 `gorm:"column:affiliate_link_code"`
	Type              enums.TransactionType   `gorm:"column:transaction_type;type:transaction_type;not null;default:'pos'"`
	Status            enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`
	Subtotal          decimal.Decimal         `gorm:"column:subtotal;type:numeric(15,2);not null"`
	DiscountAmount    decimal.Decimal         `gorm:"column:discount_amount;type:numeric(15,2);not null;default:0"`
	TaxAmount         decimal.Decimal         `gorm:"column:tax_amount;type:numeric(15,2);not null;default:0"`
	TotalAmount       decimal.Decimal         `gorm:"column:total_amount;type:numeric(15,2);not null"`
	PaymentMethod     string                  `gorm:"column:payment_method;not null"`
	Notes             *string                 `gorm:"column:notes"`

	Items       []TransactionItem      `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Commissions []Commission           `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Promotions  []TransactionPromotion `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}
