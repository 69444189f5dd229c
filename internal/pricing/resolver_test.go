package pricing

import (
	"context"
	"fmt"
	"testing"
	"time"

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

	dsn := fmt.Sprintf("file:pricing_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.ProductResellerPrice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, base string, active bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Arabica Beans 1kg",
		SKU:        "SKU-" + uuid.NewString()[:8],
		CategoryID: uuid.New(),
		BasePrice:  decimal.RequireFromString(base),
		CostPrice:  decimal.RequireFromString("5.00"),
		IsActive:   active,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedOverride(t *testing.T, conn *gorm.DB, productID uuid.UUID, profileID *uuid.UUID, level *int, price string, active bool, age time.Duration) {
	t.Helper()

	row := &models.ProductResellerPrice{
		ID:                uuid.New(),
		ProductID:         productID,
		ResellerProfileID: profileID,
		ResellerLevel:     level,
		Price:             decimal.RequireFromString(price),
		IsActive:          active,
		CreatedAt:         time.Now().Add(-age),
	}
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("seed override: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestResolveUnitPriceBasePriceForConsumer(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", true)

	buyer := Buyer{UserID: uuid.New(), Role: enums.UserRoleConsumer}
	price, got, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected base price 10.00, got %s", price)
	}
	if got.ID != product.ID {
		t.Fatalf("expected product %s, got %s", product.ID, got.ID)
	}
}

func TestResolveUnitPriceProfileOverrideWins(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", true)

	profileID := uuid.New()
	level := 2
	seedOverride(t, conn, product.ID, &profileID, nil, "7.50", true, 0)
	seedOverride(t, conn, product.ID, nil, intPtr(level), "8.50", true, 0)

	buyer := Buyer{
		UserID:            uuid.New(),
		Role:              enums.UserRoleReseller,
		ResellerProfileID: &profileID,
		ResellerLevel:     &level,
	}
	price, _, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected profile price 7.50, got %s", price)
	}
}

func TestResolveUnitPriceLevelOverrideWhenNoProfileRow(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", true)

	profileID := uuid.New()
	level := 2
	seedOverride(t, conn, product.ID, nil, intPtr(level), "8.50", true, 0)

	buyer := Buyer{
		UserID:            uuid.New(),
		Role:              enums.UserRoleReseller,
		ResellerProfileID: &profileID,
		ResellerLevel:     &level,
	}
	price, _, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("8.50")) {
		t.Fatalf("expected level price 8.50, got %s", price)
	}
}

func TestResolveUnitPriceNewestRowWinsWithinScope(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", true)

	profileID := uuid.New()
	seedOverride(t, conn, product.ID, &profileID, nil, "9.00", true, 48*time.Hour)
	seedOverride(t, conn, product.ID, &profileID, nil, "6.75", true, time.Hour)

	buyer := Buyer{UserID: uuid.New(), Role: enums.UserRoleReseller, ResellerProfileID: &profileID}
	price, _, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("6.75")) {
		t.Fatalf("expected newest override 6.75, got %s", price)
	}
}

func TestResolveUnitPriceIgnoresInactiveOverrides(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", true)

	profileID := uuid.New()
	seedOverride(t, conn, product.ID, &profileID, nil, "7.50", false, 0)

	buyer := Buyer{UserID: uuid.New(), Role: enums.UserRoleReseller, ResellerProfileID: &profileID}
	price, _, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected fallback to base 10.00, got %s", price)
	}
}

func TestResolveUnitPriceInactiveProduct(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "10.00", false)

	buyer := Buyer{UserID: uuid.New(), Role: enums.UserRoleConsumer}
	_, _, err := ResolveUnitPrice(context.Background(), conn, product.ID, buyer)
	if !pkgerrors.HasCode(err, pkgerrors.CodePricing) {
		t.Fatalf("expected pricing error, got %v", err)
	}
}

func TestResolveUnitPriceUnknownProduct(t *testing.T) {
	conn := openTestDB(t)

	buyer := Buyer{UserID: uuid.New(), Role: enums.UserRoleConsumer}
	_, _, err := ResolveUnitPrice(context.Background(), conn, uuid.New(), buyer)
	if !pkgerrors.HasCode(err, pkgerrors.CodePricing) {
		t.Fatalf("expected pricing error, got %v", err)
	}
}
