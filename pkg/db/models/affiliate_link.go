package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AffiliateLink tracks clicks and conversions for a shareable referral code.
type AffiliateLink struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	AffiliateProfileID uuid.UUID       `gorm:"column:affiliate_profile_id;type:uuid;not null"`
	ProductID          *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	LinkCode           string          `gorm:"column:link_code;not null;uniqueIndex"`
	Clicks             int             `gorm:"column:clicks;not null;default:0"`
	Conversions        int             `gorm:"column:conversions;not null;default:0"`
	TotalSales         decimal.Decimal `gorm:"column:total_sales;type:numeric(15,2);not null;default:0"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}
