package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.StockMovement{},
		&models.StockReservation{},
		&models.StockReservationItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:            uuid.New(),
		Name:          "House Blend 250g",
		SKU:           "SKU-" + uuid.NewString()[:8],
		CategoryID:    uuid.New(),
		BasePrice:     decimal.RequireFromString("12.00"),
		CostPrice:     decimal.RequireFromString("6.00"),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func stockOf(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	if err := conn.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func movementsOf(t *testing.T, conn *gorm.DB, productID uuid.UUID) []models.StockMovement {
	t.Helper()

	var rows []models.StockMovement
	if err := conn.Where("product_id = ?", productID).Order("created_at ASC, new_quantity ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	return rows
}

func TestReserveDeductsStockAndRecordsMovement(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()

	reservation, err := Reserve(ctx, conn, uuid.New(), "TXN-1", nil, []Line{{ProductID: product.ID, Quantity: 3}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reservation.Status != enums.ReservationStatusHeld {
		t.Fatalf("expected held reservation, got %s", reservation.Status)
	}
	if got := stockOf(t, conn, product.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}

	rows := movementsOf(t, conn, product.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(rows))
	}
	row := rows[0]
	if row.Type != enums.MovementTypeOut || row.Quantity != -3 {
		t.Fatalf("expected out movement of -3, got %s %d", row.Type, row.Quantity)
	}
	if row.NewQuantity != row.PreviousQuantity+row.Quantity {
		t.Fatalf("movement arithmetic broken: %d != %d + %d", row.NewQuantity, row.PreviousQuantity, row.Quantity)
	}
	if row.ReferenceNumber == nil || *row.ReferenceNumber != "TXN-1" {
		t.Fatalf("expected reference TXN-1")
	}
}

func TestReserveNamesFirstShortProductWithoutWrites(t *testing.T) {
	conn := openTestDB(t)
	plenty := seedProduct(t, conn, 100)
	short := seedProduct(t, conn, 1)
	ctx := context.Background()

	_, err := Reserve(ctx, conn, uuid.New(), "TXN-2", nil, []Line{
		{ProductID: plenty.ID, Quantity: 5},
		{ProductID: short.ID, Quantity: 2},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok || details["product_id"] != short.ID {
		t.Fatalf("expected error to name the short product")
	}
	if got := stockOf(t, conn, plenty.ID); got != 100 {
		t.Fatalf("expected no deduction on the other line, got %d", got)
	}
	if rows := movementsOf(t, conn, plenty.ID); len(rows) != 0 {
		t.Fatalf("expected no movements, got %d", len(rows))
	}
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)

	_, err := Reserve(context.Background(), conn, uuid.New(), "TXN-3", nil, []Line{{ProductID: product.ID, Quantity: 0}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReleaseRestoresStockOnce(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()

	reference := "TXN-4"
	reservation, err := Reserve(ctx, conn, uuid.New(), reference, nil, []Line{{ProductID: product.ID, Quantity: 4}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Release(ctx, conn, reservation.ID, &reference, nil); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := stockOf(t, conn, product.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	// Replay must not double-credit.
	if err := Release(ctx, conn, reservation.ID, &reference, nil); err != nil {
		t.Fatalf("release replay: %v", err)
	}
	if got := stockOf(t, conn, product.ID); got != 10 {
		t.Fatalf("expected stock still 10 after replay, got %d", got)
	}

	rows := movementsOf(t, conn, product.ID)
	if len(rows) != 2 {
		t.Fatalf("expected out plus adjustment, got %d movements", len(rows))
	}
	adjustment := rows[1]
	if adjustment.Type != enums.MovementTypeAdjustment {
		t.Fatalf("expected adjustment movement, got %s", adjustment.Type)
	}
	if adjustment.ReferenceNumber == nil || *adjustment.ReferenceNumber != reference {
		t.Fatalf("adjustment should carry the transaction reference, got %v", adjustment.ReferenceNumber)
	}
}

func TestCommitTransitions(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()

	reservation, err := Reserve(ctx, conn, uuid.New(), "TXN-5", nil, []Line{{ProductID: product.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Commit(ctx, conn, reservation.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := Commit(ctx, conn, reservation.ID); err != nil {
		t.Fatalf("commit replay: %v", err)
	}

	// Committed stock stays deducted.
	if got := stockOf(t, conn, product.ID); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}

	// A committed reservation cannot be released back.
	if err := Release(ctx, conn, reservation.ID, nil, nil); err != nil {
		t.Fatalf("release after commit: %v", err)
	}
	if got := stockOf(t, conn, product.ID); got != 8 {
		t.Fatalf("expected stock unchanged at 8, got %d", got)
	}
}

func TestCommitReleasedReservationConflicts(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()

	reservation, err := Reserve(ctx, conn, uuid.New(), "TXN-6", nil, []Line{{ProductID: product.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Release(ctx, conn, reservation.ID, nil, nil); err != nil {
		t.Fatalf("release: %v", err)
	}
	err = Commit(ctx, conn, reservation.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReverseAppendsInMovements(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()

	reservation, err := Reserve(ctx, conn, uuid.New(), "TXN-7", nil, []Line{{ProductID: product.ID, Quantity: 6}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := Commit(ctx, conn, reservation.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := Reverse(ctx, conn, "TXN-7", nil); err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got := stockOf(t, conn, product.ID); got != 10 {
		t.Fatalf("expected stock back at 10, got %d", got)
	}

	rows := movementsOf(t, conn, product.ID)
	last := rows[len(rows)-1]
	if last.Type != enums.MovementTypeIn || last.Quantity != 6 {
		t.Fatalf("expected in movement of 6, got %s %d", last.Type, last.Quantity)
	}
	if last.NewQuantity != last.PreviousQuantity+last.Quantity {
		t.Fatalf("movement arithmetic broken")
	}
}

func TestReleaseByTransactionIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, 10)
	ctx := context.Background()
	transactionID := uuid.New()

	reference := "TXN-8"
	if _, err := Reserve(ctx, conn, transactionID, reference, nil, []Line{{ProductID: product.ID, Quantity: 5}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := ReleaseByTransaction(ctx, conn, transactionID, &reference, nil); err != nil {
		t.Fatalf("release by transaction: %v", err)
	}
	if err := ReleaseByTransaction(ctx, conn, transactionID, &reference, nil); err != nil {
		t.Fatalf("release replay: %v", err)
	}
	if got := stockOf(t, conn, product.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}

	rows := movementsOf(t, conn, product.ID)
	if len(rows) != 2 {
		t.Fatalf("expected out plus adjustment, got %d movements", len(rows))
	}
	if rows[1].ReferenceNumber == nil || *rows[1].ReferenceNumber != reference {
		t.Fatalf("adjustment should carry the transaction reference, got %v", rows[1].ReferenceNumber)
	}
}
