package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/pkg/db/models"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
)

// ActiveCandidates loads promotions whose window covers now, with their
// product scopes preloaded. Role, minimum purchase and usage checks
// happen in Evaluate; this only trims the obvious misses.
func ActiveCandidates(ctx context.Context, tx *gorm.DB, now time.Time) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := tx.WithContext(ctx).
		Preload("Products").
		Where("is_active = ? AND start_date <= ? AND end_date > ?", true, now, now).
		Order("created_at ASC").
		Find(&promos).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotions")
	}
	return promos, nil
}

// ConsumeUsage increments the promotion usage counter, enforcing the
// usage limit in the same statement so concurrent settlements cannot
// both take the last slot.
func ConsumeUsage(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error {
	res := tx.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", promotionID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume promotion usage")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodePromotionLimit, "promotion usage limit reached").
			WithDetails(map[string]any{"promotion_id": promotionID})
	}
	return nil
}

// ReleaseUsage gives back one usage slot after a refund. Floors at
// zero so a replay cannot drive the counter negative.
func ReleaseUsage(ctx context.Context, tx *gorm.DB, promotionID uuid.UUID) error {
	res := tx.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ? AND usage_count > 0", promotionID).
		UpdateColumn("usage_count", gorm.Expr("usage_count - 1"))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release promotion usage")
	}
	return nil
}
