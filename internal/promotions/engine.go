package promotions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// PricedLine is one cart line after price resolution.
type PricedLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price for the line.
func (l PricedLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Applied records the discount one promotion granted to the cart.
type Applied struct {
	Promotion models.Promotion
	Discount  decimal.Decimal
}

// Evaluate selects eligible promotions for the cart and returns the
// total discount plus per-promotion breakdown. Combinable promotions
// stack additively; each non-combinable promotion is priced alone and
// the larger of the stacked total and the best standalone wins. The
// returned discount never exceeds the cart subtotal.
func Evaluate(cart []PricedLine, buyerRole enums.UserRole, now time.Time, candidates []models.Promotion) (decimal.Decimal, []Applied) {
	subtotal := cartSubtotal(cart)
	if subtotal.IsZero() {
		return decimal.Zero, nil
	}

	var stacked []Applied
	stackedTotal := decimal.Zero
	var bestSolo *Applied

	for _, promo := range candidates {
		if !eligible(promo, buyerRole, subtotal, now) {
			continue
		}
		discount := discountFor(promo, cart)
		if !discount.IsPositive() {
			continue
		}
		applied := Applied{Promotion: promo, Discount: discount}
		if promo.IsCombinable {
			stacked = append(stacked, applied)
			stackedTotal = stackedTotal.Add(discount)
			continue
		}
		if bestSolo == nil || discount.GreaterThan(bestSolo.Discount) {
			solo := applied
			bestSolo = &solo
		}
	}

	winners := stacked
	total := stackedTotal
	if bestSolo != nil && bestSolo.Discount.GreaterThan(stackedTotal) {
		winners = []Applied{*bestSolo}
		total = bestSolo.Discount
	}

	if total.GreaterThan(subtotal) {
		total = subtotal
	}
	return total, winners
}

func cartSubtotal(cart []PricedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range cart {
		sum = sum.Add(line.Subtotal())
	}
	return sum
}

func eligible(promo models.Promotion, role enums.UserRole, subtotal decimal.Decimal, now time.Time) bool {
	if !promo.IsActive {
		return false
	}
	if now.Before(promo.StartDate) || !now.Before(promo.EndDate) {
		return false
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return false
	}
	if !promo.ApplicableRoles.Allows(role) {
		return false
	}
	if promo.MinPurchaseAmount != nil && subtotal.LessThan(*promo.MinPurchaseAmount) {
		return false
	}
	return true
}

func discountFor(promo models.Promotion, cart []PricedLine) decimal.Decimal {
	scoped := scopedLines(promo, cart)
	if len(scoped) == 0 {
		return decimal.Zero
	}

	switch promo.Type {
	case enums.PromotionTypePercentage:
		base := cartSubtotal(scoped)
		discount := base.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}
		return discount

	case enums.PromotionTypeFixedAmount:
		discount := decimal.Zero
		for _, line := range scoped {
			discount = discount.Add(decimal.Min(promo.DiscountValue, line.Subtotal()))
		}
		return discount.Round(2)

	case enums.PromotionTypeBuyXGetY:
		if promo.BuyQuantity <= 0 || promo.GetQuantity <= 0 {
			return decimal.Zero
		}
		bundle := promo.BuyQuantity + promo.GetQuantity
		discount := decimal.Zero
		for _, line := range scoped {
			free := (line.Quantity / bundle) * promo.GetQuantity
			if free > 0 {
				discount = discount.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(free))))
			}
		}
		return discount.Round(2)
	}
	return decimal.Zero
}

// scopedLines returns the cart lines the promotion applies to. A
// promotion with no product rows covers every line.
func scopedLines(promo models.Promotion, cart []PricedLine) []PricedLine {
	if len(promo.Products) == 0 {
		return cart
	}
	wanted := make(map[uuid.UUID]struct{}, len(promo.Products))
	for _, row := range promo.Products {
		wanted[row.ProductID] = struct{}{}
	}
	var scoped []PricedLine
	for _, line := range cart {
		if _, ok := wanted[line.ProductID]; ok {
			scoped = append(scoped, line)
		}
	}
	return scoped
}
