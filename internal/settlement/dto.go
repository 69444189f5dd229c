package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// CartLine is one requested purchase line. UnitPriceOverride is the
// cashier POS escape hatch and is only honored when the cart carries a
// cashier.
type CartLine struct {
	ProductID         uuid.UUID
	Quantity          int
	UnitPriceOverride *decimal.Decimal
}

// CartInput is everything needed to settle a cart. All attribution
// fields are optional; a walk-in POS sale carries none of them.
type CartInput struct {
	UserID            *uuid.UUID
	CashierID         *uuid.UUID
	ResellerID        *uuid.UUID
	AffiliateID       *uuid.UUID
	AffiliateLinkCode *string
	Type              enums.TransactionType
	PaymentMethod     string
	TaxAmount         decimal.Decimal
	Notes             *string
	Lines             []CartLine
}
