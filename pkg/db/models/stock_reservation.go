package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// StockReservation is the ledger's in-flight hold on stock during
// settlement. The status flag is what makes release idempotent: a
// replayed release on an already-released reservation is a no-op.
type StockReservation struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID               `gorm:"column:transaction_id;type:uuid;not null;index"`
	Status        enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'held'"`

	Items []StockReservationItem `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// StockReservationItem is one held line within a reservation.
type StockReservationItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReservationID uuid.UUID `gorm:"column:reservation_id;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
}
