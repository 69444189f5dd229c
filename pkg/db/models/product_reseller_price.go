package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductResellerPrice overrides a product's price for one reseller
// profile or for a whole reseller level. Exactly one of the two scopes
// is set per row; a profile-scoped row wins over a level-scoped one.
type ProductResellerPrice struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ResellerProfileID *uuid.UUID      `gorm:"column:reseller_profile_id;type:uuid"`
	ResellerLevel     *int            `gorm:"column:reseller_level"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}
