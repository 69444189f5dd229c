package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResellerProfile places a user inside the multi-level reseller tree.
// ParentResellerID is a plain column walked iteratively; the chain must
// stay acyclic and terminate within ten hops.
type ResellerProfile struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Level            int             `gorm:"column:level;not null"`
	ParentResellerID *uuid.UUID      `gorm:"column:parent_reseller_id;type:uuid"`
	ReferralCode     string          `gorm:"column:referral_code;not null;uniqueIndex"`
	CommissionRate   decimal.Decimal `gorm:"column:commission_rate;type:numeric(8,4);not null;default:0"`
	TotalSales       decimal.Decimal `gorm:"column:total_sales;type:numeric(15,2);not null;default:0"`
	TotalCommission  decimal.Decimal `gorm:"column:total_commission;type:numeric(15,2);not null;default:0"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
