package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// StockMovement is an append-only audit entry. NewQuantity is always
// PreviousQuantity plus the signed Quantity; rows are never mutated or
// deleted, refunds append reversing movements instead.
type StockMovement struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Type             enums.MovementType `gorm:"column:movement_type;type:movement_type;not null"`
	Quantity         int                `gorm:"column:quantity;not null"`
	PreviousQuantity int                `gorm:"column:previous_quantity;not null"`
	NewQuantity      int                `gorm:"column:new_quantity;not null"`
	ReferenceNumber  *string            `gorm:"column:reference_number;index"`
	Notes            *string            `gorm:"column:notes"`
	CreatedBy        *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}
