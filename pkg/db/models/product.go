package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/types"
)

// Product is the sellable catalog entry. StockQuantity is only mutated by
// the inventory ledger and never drops below zero.
type Product struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name          string            `gorm:"column:name;not null"`
	Description   *string           `gorm:"column:description"`
	SKU           string            `gorm:"column:sku;not null;uniqueIndex"`
	Barcode       *string           `gorm:"column:barcode"`
	CategoryID    uuid.UUID         `gorm:"column:category_id;type:uuid;not null"`
	BasePrice     decimal.Decimal   `gorm:"column:base_price;type:numeric(10,2);not null"`
	CostPrice     decimal.Decimal   `gorm:"column:cost_price;type:numeric(10,2);not null"`
	StockQuantity int               `gorm:"column:stock_quantity;not null;default:0"`
	MinStockLevel int               `gorm:"column:min_stock_level;not null;default:0"`
	IsActive      bool              `gorm:"column:is_active;not null;default:true"`
	ImageURL      *string           `gorm:"column:image_url"`
	Weight        *decimal.Decimal  `gorm:"column:weight;type:numeric(8,2)"`
	Dimensions    *types.Dimensions `gorm:"column:dimensions;type:jsonb;serializer:json"`

	ResellerPrices []ProductResellerPrice `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
