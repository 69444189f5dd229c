package commissions

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

// maxChainDepth bounds the ancestry walk. A chain longer than this, or
// one that revisits a profile, indicates corrupt tree data.
const maxChainDepth = 10

// Compute writes the commission rows for a completed transaction and
// bumps the running totals on the earning profiles. The commission base
// is the discounted subtotal, tax excluded. Returns the rows written.
func Compute(ctx context.Context, tx *gorm.DB, txn *models.Transaction) ([]models.Commission, error) {
	base := txn.Subtotal.Sub(txn.DiscountAmount)
	if base.IsNegative() {
		base = decimal.Zero
	}

	var rows []models.Commission
	if txn.ResellerID != nil {
		resellerRows, err := computeResellerChain(ctx, tx, txn, base)
		if err != nil {
			return nil, err
		}
		rows = append(rows, resellerRows...)
	}
	if txn.AffiliateID != nil {
		affiliateRow, err := computeAffiliate(ctx, tx, txn, base)
		if err != nil {
			return nil, err
		}
		if affiliateRow != nil {
			rows = append(rows, *affiliateRow)
		}
	}

	if len(rows) > 0 {
		if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist commissions")
		}
	}
	return rows, nil
}

// computeResellerChain walks the reseller ancestry starting at the
// attributed seller and emits one row per active ancestor, each at that
// ancestor's own rate. Level 0 is the direct seller.
func computeResellerChain(ctx context.Context, tx *gorm.DB, txn *models.Transaction, base decimal.Decimal) ([]models.Commission, error) {
	chain, err := BuildChain(ctx, tx, *txn.ResellerID)
	if err != nil {
		return nil, err
	}

	var rows []models.Commission
	for depth, profile := range chain {
		if !profile.IsActive {
			continue
		}
		level := depth
		amount := base.Mul(profile.CommissionRate).Round(2)
		rows = append(rows, models.Commission{
			ID:               uuid.New(),
			UserID:           profile.UserID,
			TransactionID:    txn.ID,
			Type:             enums.CommissionTypeReseller,
			Level:            &level,
			BaseAmount:       base,
			CommissionRate:   profile.CommissionRate,
			CommissionAmount: amount,
		})

		updates := map[string]any{
			"total_commission": gorm.Expr("total_commission + ?", amount),
		}
		if depth == 0 {
			updates["total_sales"] = gorm.Expr("total_sales + ?", base)
		}
		err := tx.WithContext(ctx).Model(&models.ResellerProfile{}).
			Where("id = ?", profile.ID).
			UpdateColumns(updates).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reseller totals")
		}
	}
	return rows, nil
}

func computeAffiliate(ctx context.Context, tx *gorm.DB, txn *models.Transaction, base decimal.Decimal) (*models.Commission, error) {
	var profile models.AffiliateProfile
	err := tx.WithContext(ctx).First(&profile, "user_id = ?", *txn.AffiliateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate profile not found").
				WithDetails(map[string]any{"user_id": *txn.AffiliateID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate profile")
	}
	if !profile.IsActive {
		return nil, nil
	}

	amount := base.Mul(profile.CommissionRate).Round(2)
	row := &models.Commission{
		ID:               uuid.New(),
		UserID:           profile.UserID,
		TransactionID:    txn.ID,
		Type:             enums.CommissionTypeAffiliate,
		BaseAmount:       base,
		CommissionRate:   profile.CommissionRate,
		CommissionAmount: amount,
	}

	err = tx.WithContext(ctx).Model(&models.AffiliateProfile{}).
		Where("id = ?", profile.ID).
		UpdateColumns(map[string]any{
			"total_sales":      gorm.Expr("total_sales + ?", base),
			"total_commission": gorm.Expr("total_commission + ?", amount),
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update affiliate totals")
	}

	if txn.AffiliateLinkCode != nil {
		err = tx.WithContext(ctx).Model(&models.AffiliateLink{}).
			Where("link_code = ?", *txn.AffiliateLinkCode).
			UpdateColumns(map[string]any{
				"conversions": gorm.Expr("conversions + 1"),
				"total_sales": gorm.Expr("total_sales + ?", txn.TotalAmount),
			}).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update affiliate link")
		}
	}
	return row, nil
}

// BuildChain returns the reseller ancestry for the given seller user,
// direct seller first. Fails when the walk revisits a profile or runs
// past maxChainDepth hops.
func BuildChain(ctx context.Context, tx *gorm.DB, sellerUserID uuid.UUID) ([]models.ResellerProfile, error) {
	var current models.ResellerProfile
	err := tx.WithContext(ctx).First(&current, "user_id = ?", sellerUserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reseller profile not found").
				WithDetails(map[string]any{"user_id": sellerUserID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reseller profile")
	}

	chain := []models.ResellerProfile{current}
	visited := map[uuid.UUID]struct{}{current.ID: {}}

	for current.ParentResellerID != nil {
		if len(chain) >= maxChainDepth {
			return nil, pkgerrors.New(pkgerrors.CodeCommissionChain, "reseller chain exceeds maximum depth").
				WithDetails(map[string]any{"seller_user_id": sellerUserID})
		}
		var parent models.ResellerProfile
		err := tx.WithContext(ctx).First(&parent, "id = ?", *current.ParentResellerID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeCommissionChain, "reseller chain points at a missing parent").
					WithDetails(map[string]any{"parent_id": *current.ParentResellerID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent profile")
		}
		if _, seen := visited[parent.ID]; seen {
			return nil, pkgerrors.New(pkgerrors.CodeCommissionChain, "reseller chain contains a cycle").
				WithDetails(map[string]any{"seller_user_id": sellerUserID})
		}
		visited[parent.ID] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// Reverse appends equal-and-opposite commission rows for a refunded
// transaction and takes the original contribution back out of the
// profile totals. Original rows are never touched.
func Reverse(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	var originals []models.Commission
	err := tx.WithContext(ctx).
		Where("transaction_id = ? AND is_reversal = ?", txn.ID, false).
		Order("created_at ASC").
		Find(&originals).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commissions")
	}
	if len(originals) == 0 {
		return nil
	}

	reversals := make([]models.Commission, 0, len(originals))
	for _, original := range originals {
		reversal := models.Commission{
			ID:               uuid.New(),
			UserID:           original.UserID,
			TransactionID:    original.TransactionID,
			Type:             original.Type,
			Level:            original.Level,
			BaseAmount:       original.BaseAmount,
			CommissionRate:   original.CommissionRate,
			CommissionAmount: original.CommissionAmount.Neg(),
			IsReversal:       true,
		}
		reversals = append(reversals, reversal)

		if err := rollBackTotals(ctx, tx, original); err != nil {
			return err
		}
	}
	if err := tx.WithContext(ctx).Create(&reversals).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist reversals")
	}

	if txn.AffiliateLinkCode != nil {
		err = tx.WithContext(ctx).Model(&models.AffiliateLink{}).
			Where("link_code = ? AND conversions > 0", *txn.AffiliateLinkCode).
			UpdateColumns(map[string]any{
				"conversions": gorm.Expr("conversions - 1"),
				"total_sales": gorm.Expr("total_sales - ?", txn.TotalAmount),
			}).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll back affiliate link")
		}
	}
	return nil
}

func rollBackTotals(ctx context.Context, tx *gorm.DB, original models.Commission) error {
	switch original.Type {
	case enums.CommissionTypeReseller:
		updates := map[string]any{
			"total_commission": gorm.Expr("total_commission - ?", original.CommissionAmount),
		}
		if original.Level != nil && *original.Level == 0 {
			updates["total_sales"] = gorm.Expr("total_sales - ?", original.BaseAmount)
		}
		err := tx.WithContext(ctx).Model(&models.ResellerProfile{}).
			Where("user_id = ?", original.UserID).
			UpdateColumns(updates).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll back reseller totals")
		}
	case enums.CommissionTypeAffiliate:
		err := tx.WithContext(ctx).Model(&models.AffiliateProfile{}).
			Where("user_id = ?", original.UserID).
			UpdateColumns(map[string]any{
				"total_sales":      gorm.Expr("total_sales - ?", original.BaseAmount),
				"total_commission": gorm.Expr("total_commission - ?", original.CommissionAmount),
			}).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll back affiliate totals")
		}
	}
	return nil
}

// Totals is the result of replaying a user's commission ledger.
type Totals struct {
	TotalSales      decimal.Decimal
	TotalCommission decimal.Decimal
}

// RecomputeTotals replays the commission ledger for a user and rewrites
// the profile running totals from scratch. Reversal rows already carry
// negated amounts, so the commission total is a plain sum; sales sum
// level-0 and affiliate bases with reversals subtracted.
func RecomputeTotals(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (Totals, error) {
	var rows []models.Commission
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission ledger")
	}

	totals := Totals{TotalSales: decimal.Zero, TotalCommission: decimal.Zero}
	for _, row := range rows {
		totals.TotalCommission = totals.TotalCommission.Add(row.CommissionAmount)

		countsAsSale := row.Type == enums.CommissionTypeAffiliate ||
			(row.Level != nil && *row.Level == 0)
		if !countsAsSale {
			continue
		}
		if row.IsReversal {
			totals.TotalSales = totals.TotalSales.Sub(row.BaseAmount)
		} else {
			totals.TotalSales = totals.TotalSales.Add(row.BaseAmount)
		}
	}

	updates := map[string]any{
		"total_sales":      totals.TotalSales,
		"total_commission": totals.TotalCommission,
	}
	res := tx.WithContext(ctx).Model(&models.ResellerProfile{}).
		Where("user_id = ?", userID).
		UpdateColumns(updates)
	if res.Error != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "rewrite reseller totals")
	}
	if res.RowsAffected == 0 {
		err := tx.WithContext(ctx).Model(&models.AffiliateProfile{}).
			Where("user_id = ?", userID).
			UpdateColumns(updates).Error
		if err != nil {
			return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rewrite affiliate totals")
		}
	}
	return totals, nil
}
