package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
)

// Buyer carries the pricing-relevant facts about the purchasing user.
type Buyer struct {
	UserID            uuid.UUID
	Role              enums.UserRole
	ResellerProfileID *uuid.UUID
	ResellerLevel     *int
}

// IsReseller reports whether reseller price overrides apply to the buyer.
func (b Buyer) IsReseller() bool {
	return b.Role == enums.UserRoleReseller && b.ResellerProfileID != nil
}

// ResolveUnitPrice returns the applicable unit price for the product.
// Resolution order, first match wins: an active override scoped to the
// buyer's reseller profile, an active override scoped to the buyer's
// reseller level, then the product base price. Non-resellers always get
// the base price. Read-only: no side effects.
func ResolveUnitPrice(ctx context.Context, tx *gorm.DB, productID uuid.UUID, buyer Buyer) (decimal.Decimal, *models.Product, error) {
	if tx == nil {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if productID == uuid.Nil {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var product models.Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodePricing, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodePricing, "product is inactive").
			WithDetails(map[string]any{"product_id": productID})
	}

	if !buyer.IsReseller() {
		return product.BasePrice, &product, nil
	}

	if price, ok, err := profileScopedPrice(ctx, tx, productID, *buyer.ResellerProfileID); err != nil {
		return decimal.Zero, nil, err
	} else if ok {
		return price, &product, nil
	}

	if buyer.ResellerLevel != nil {
		if price, ok, err := levelScopedPrice(ctx, tx, productID, *buyer.ResellerLevel); err != nil {
			return decimal.Zero, nil, err
		} else if ok {
			return price, &product, nil
		}
	}

	return product.BasePrice, &product, nil
}

func profileScopedPrice(ctx context.Context, tx *gorm.DB, productID, profileID uuid.UUID) (decimal.Decimal, bool, error) {
	var row models.ProductResellerPrice
	err := tx.WithContext(ctx).
		Where("product_id = ? AND reseller_profile_id = ? AND is_active = ?", productID, profileID, true).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reseller price")
	}
	return row.Price, true, nil
}

func levelScopedPrice(ctx context.Context, tx *gorm.DB, productID uuid.UUID, level int) (decimal.Decimal, bool, error) {
	var row models.ProductResellerPrice
	err := tx.WithContext(ctx).
		Where("product_id = ? AND reseller_level = ? AND reseller_profile_id IS NULL AND is_active = ?", productID, level, true).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load level price")
	}
	return row.Price, true, nil
}
