package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/enums"
	"github.com/riezafm/levelpos-backend/pkg/types"
)

// Promotion is an active discount campaign. UsageCount never exceeds
// UsageLimit when a limit is set; the increment happens under the same
// lock discipline as stock at commit time.
type Promotion struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name              string              `gorm:"column:name;not null"`
	Description       *string             `gorm:"column:description"`
	Type              enums.PromotionType `gorm:"column:promotion_type;type:promotion_type;not null"`
	DiscountValue     decimal.Decimal     `gorm:"column:discount_value;type:numeric(10,2);not null"`
	MinPurchaseAmount *decimal.Decimal    `gorm:"column:min_purchase_amount;type:numeric(10,2)"`
	MaxDiscountAmount *decimal.Decimal    `gorm:"column:max_discount_amount;type:numeric(10,2)"`
	BuyQuantity       int                 `gorm:"column:buy_quantity;not null;default:0"`
	GetQuantity       int                 `gorm:"column:get_quantity;not null;default:0"`
	StartDate         time.Time           `gorm:"column:start_date;not null"`
	EndDate           time.Time           `gorm:"column:end_date;not null"`
	IsActive          bool                `gorm:"column:is_active;not null;default:true"`
	IsCombinable      bool                `gorm:"column:is_combinable;not null;default:true"`
	UsageLimit        *int                `gorm:"column:usage_limit"`
	UsageCount        int                 `gorm:"column:usage_count;not null;default:0"`
	ApplicableRoles   types.RoleSet       `gorm:"column:applicable_roles;type:jsonb;serializer:json"`

	Products []PromotionProduct `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// PromotionProduct scopes a promotion to a product. A promotion with no
// product rows applies to the whole cart subtotal.
type PromotionProduct struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PromotionID uuid.UUID `gorm:"column:promotion_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
}
