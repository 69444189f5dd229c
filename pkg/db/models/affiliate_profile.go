package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AffiliateProfile holds the referral configuration for an affiliate user.
type AffiliateProfile struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	AffiliateCode   string          `gorm:"column:affiliate_code;not null;uniqueIndex"`
	CommissionRate  decimal.Decimal `gorm:"column:commission_rate;type:numeric(8,4);not null;default:0"`
	TotalSales      decimal.Decimal `gorm:"column:total_sales;type:numeric(15,2);not null;default:0"`
	TotalCommission decimal.Decimal `gorm:"column:total_commission;type:numeric(15,2);not null;default:0"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`

	Links []AffiliateLink `gorm:"foreignKey:AffiliateProfileID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
