package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
)

// Line is one requested stock deduction.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Reserve deducts stock for every line and records out movements, all
// inside the caller's transaction. Validation runs before any write so
// the first short product is named without partial effects; if a later
// write fails the surrounding transaction rolls the rest back.
func Reserve(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID, reference string, createdBy *uuid.UUID, lines []Line) (*models.StockReservation, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation requires at least one line")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
	}

	for _, line := range lines {
		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product in reservation").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
		}
		if product.StockQuantity < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": line.ProductID,
					"available":  product.StockQuantity,
					"requested":  line.Quantity,
				})
		}
	}

	reservation := &models.StockReservation{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Status:        enums.ReservationStatusHeld,
	}
	for _, line := range lines {
		if err := move(ctx, tx, line.ProductID, enums.MovementTypeOut, -line.Quantity, &reference, createdBy); err != nil {
			return nil, err
		}
		reservation.Items = append(reservation.Items, models.StockReservationItem{
			ID:            uuid.New(),
			ReservationID: reservation.ID,
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
		})
	}
	if err := tx.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist reservation")
	}
	return reservation, nil
}

// Commit marks a held reservation as committed. Committing an already
// committed reservation is a no-op; committing a released one is a
// state conflict.
func Commit(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) error {
	reservation, err := load(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	switch reservation.Status {
	case enums.ReservationStatusCommitted:
		return nil
	case enums.ReservationStatusReleased:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot commit a released reservation").
			WithDetails(map[string]any{"reservation_id": reservationID})
	}
	return setStatus(ctx, tx, reservation, enums.ReservationStatusCommitted)
}

// Release restores the held stock and marks the reservation released.
// The reference ties the adjustment movements back to the transaction
// whose hold is being undone. Idempotent: anything not currently held
// is left untouched.
func Release(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID, reference *string, createdBy *uuid.UUID) error {
	reservation, err := load(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if reservation.Status != enums.ReservationStatusHeld {
		return nil
	}
	for _, item := range reservation.Items {
		if err := move(ctx, tx, item.ProductID, enums.MovementTypeAdjustment, item.Quantity, reference, createdBy); err != nil {
			return err
		}
	}
	return setStatus(ctx, tx, reservation, enums.ReservationStatusReleased)
}

// ReleaseByTransaction releases every held reservation belonging to the
// transaction. Missing reservations are fine, the cancel path runs
// whether or not stock was ever held.
func ReleaseByTransaction(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID, reference *string, createdBy *uuid.UUID) error {
	var reservations []models.StockReservation
	err := tx.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, enums.ReservationStatusHeld).
		Find(&reservations).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}
	for _, reservation := range reservations {
		if err := Release(ctx, tx, reservation.ID, reference, createdBy); err != nil {
			return err
		}
	}
	return nil
}

// Reverse appends in movements undoing the out movements recorded under
// the reference. Quantities are restored additively from the original
// rows, ignoring whatever the stock level has drifted to since.
func Reverse(ctx context.Context, tx *gorm.DB, reference string, createdBy *uuid.UUID) error {
	var originals []models.StockMovement
	err := tx.WithContext(ctx).
		Where("reference_number = ? AND movement_type = ?", reference, enums.MovementTypeOut).
		Order("created_at ASC").
		Find(&originals).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movements")
	}
	for _, original := range originals {
		if err := move(ctx, tx, original.ProductID, enums.MovementTypeIn, -original.Quantity, &reference, createdBy); err != nil {
			return err
		}
	}
	return nil
}

// Restock adds received stock and records the matching in movement.
func Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int, reference *string, createdBy *uuid.UUID) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive").
			WithDetails(map[string]any{"product_id": productID})
	}
	return move(ctx, tx, productID, enums.MovementTypeIn, quantity, reference, createdBy)
}

// move applies the signed quantity to the product counter and appends
// the matching movement row. NewQuantity is always PreviousQuantity
// plus the signed quantity.
func move(ctx context.Context, tx *gorm.DB, productID uuid.UUID, movementType enums.MovementType, quantity int, reference *string, createdBy *uuid.UUID) error {
	var product models.Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	previous := product.StockQuantity
	next := previous + quantity
	if next < 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "movement would drive stock negative").
			WithDetails(map[string]any{"product_id": productID, "available": previous})
	}

	res := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity = ?", productID, previous).
		UpdateColumn("stock_quantity", next)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "concurrent stock update").
			WithDetails(map[string]any{"product_id": productID})
	}

	movement := &models.StockMovement{
		ID:               uuid.New(),
		ProductID:        productID,
		Type:             movementType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      next,
		ReferenceNumber:  reference,
		CreatedBy:        createdBy,
	}
	if err := tx.WithContext(ctx).Create(movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement")
	}
	return nil
}

func load(ctx context.Context, tx *gorm.DB, reservationID uuid.UUID) (*models.StockReservation, error) {
	var reservation models.StockReservation
	err := tx.WithContext(ctx).Preload("Items").First(&reservation, "id = ?", reservationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found").
				WithDetails(map[string]any{"reservation_id": reservationID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return &reservation, nil
}

func setStatus(ctx context.Context, tx *gorm.DB, reservation *models.StockReservation, status enums.ReservationStatus) error {
	res := tx.WithContext(ctx).Model(&models.StockReservation{}).
		Where("id = ? AND status = ?", reservation.ID, reservation.Status).
		UpdateColumn("status", status)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update reservation status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "concurrent reservation update").
			WithDetails(map[string]any{"reservation_id": reservation.ID})
	}
	reservation.Status = status
	return nil
}
