package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/riezafm/levelpos-backend/internal/commissions"
	"github.com/riezafm/levelpos-backend/internal/inventory"
	"github.com/riezafm/levelpos-backend/internal/pricing"
	"github.com/riezafm/levelpos-backend/internal/promotions"
	"github.com/riezafm/levelpos-backend/pkg/db"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
	"github.com/riezafm/levelpos-backend/pkg/metrics"
	"github.com/riezafm/levelpos-backend/pkg/outbox"
)

// Service orchestrates the settlement pipeline. Every public operation
// runs inside one database transaction; a failure at any stage leaves
// no partial state behind.
type Service struct {
	db     *db.Client
	logg   *logger.Logger
	meter  *metrics.SettlementMetrics
	events *outbox.Service
	clock  func() time.Time
}

func NewService(client *db.Client, logg *logger.Logger, meter *metrics.SettlementMetrics, events *outbox.Service) *Service {
	return &Service{
		db:     client,
		logg:   logg,
		meter:  meter,
		events: events,
		clock:  time.Now,
	}
}

// eventData is the payload shape for transaction lifecycle events.
type eventData struct {
	TransactionID     uuid.UUID               `json:"transactionId"`
	TransactionNumber string                  `json:"transactionNumber"`
	Status            enums.TransactionStatus `json:"status"`
	TotalAmount       decimal.Decimal         `json:"totalAmount"`
}

// Settle prices, discounts, reserves and commits a cart in one atomic
// step. This is the POS path: either the transaction completes with all
// its side effects or nothing happened.
func (s *Service) Settle(ctx context.Context, input CartInput) (*models.Transaction, error) {
	started := s.clock()
	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.createTx(ctx, tx, input)
		if err != nil {
			return err
		}
		if err := s.completeTx(ctx, tx, created); err != nil {
			return err
		}
		txn = created
		return nil
	})
	s.observe("settle", started, err)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithTransactionID(ctx, txn.ID.String())
	s.logg.Info(logCtx, "transaction settled")
	return txn, nil
}

// Create records a pending transaction with frozen prices and discounts
// but no counter effects: stock, usage counts and commissions are only
// touched at completion.
func (s *Service) Create(ctx context.Context, input CartInput) (*models.Transaction, error) {
	started := s.clock()
	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.createTx(ctx, tx, input)
		if err != nil {
			return err
		}
		txn = created
		return nil
	})
	s.observe("create", started, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Complete moves a pending transaction to completed, applying every
// side effect: stock is reserved and committed, promotion usage is
// consumed under its limit, and commissions are cut.
func (s *Service) Complete(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	started := s.clock()
	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := loadTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if err := s.completeTx(ctx, tx, loaded); err != nil {
			return err
		}
		txn = loaded
		return nil
	})
	s.observe("complete", started, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Cancel voids a pending transaction. Any held stock is released; a
// transaction that never reserved anything cancels cleanly too.
func (s *Service) Cancel(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	started := s.clock()
	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := loadTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if !loaded.Status.CanTransitionTo(enums.TransactionStatusCancelled) {
			return transitionConflict(loaded, enums.TransactionStatusCancelled)
		}

		if err := inventory.ReleaseByTransaction(ctx, tx, loaded.ID, &loaded.TransactionNumber, loaded.CashierID); err != nil {
			return err
		}
		if err := setStatus(ctx, tx, loaded, enums.TransactionStatusCancelled, nil); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, loaded, enums.EventTransactionCancelled); err != nil {
			return err
		}
		txn = loaded
		return nil
	})
	s.observe("cancel", started, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Refund reverses a completed transaction: stock flows back in,
// opposite commission rows are appended, promotion usage is returned.
// The original audit trail stays intact.
func (s *Service) Refund(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	started := s.clock()
	var txn *models.Transaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		loaded, err := loadTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if !loaded.Status.CanTransitionTo(enums.TransactionStatusRefunded) {
			return transitionConflict(loaded, enums.TransactionStatusRefunded)
		}

		if err := inventory.Reverse(ctx, tx, loaded.TransactionNumber, loaded.CashierID); err != nil {
			return err
		}
		if err := commissions.Reverse(ctx, tx, loaded); err != nil {
			return err
		}
		for _, applied := range loaded.Promotions {
			if err := promotions.ReleaseUsage(ctx, tx, applied.PromotionID); err != nil {
				return err
			}
		}
		if err := setStatus(ctx, tx, loaded, enums.TransactionStatusRefunded, nil); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, loaded, enums.EventTransactionRefunded); err != nil {
			return err
		}
		txn = loaded
		return nil
	})
	s.observe("refund", started, err)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithTransactionID(ctx, txn.ID.String())
	s.logg.Info(logCtx, "transaction refunded")
	return txn, nil
}

// createTx builds and persists the pending transaction snapshot.
func (s *Service) createTx(ctx context.Context, tx *gorm.DB, input CartInput) (*models.Transaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	buyer, err := resolveBuyer(ctx, tx, input.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var cart []promotions.PricedLine
	var items []models.TransactionItem
	for _, line := range input.Lines {
		unitPrice, _, err := pricing.ResolveUnitPrice(ctx, tx, line.ProductID, buyer)
		if err != nil {
			return nil, err
		}
		if line.UnitPriceOverride != nil {
			unitPrice = *line.UnitPriceOverride
		}
		cart = append(cart, promotions.PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	candidates, err := promotions.ActiveCandidates(ctx, tx, now)
	if err != nil {
		return nil, err
	}
	discount, applied := promotions.Evaluate(cart, buyer.Role, now, candidates)

	subtotal := decimal.Zero
	for _, line := range cart {
		subtotal = subtotal.Add(line.Subtotal())
	}
	total := subtotal.Sub(discount).Add(input.TaxAmount)

	txn := &models.Transaction{
		ID:                uuid.New(),
		TransactionNumber: s.newTransactionNumber(),
		UserID:            input.UserID,
		CashierID:         input.CashierID,
		ResellerID:        input.ResellerID,
		AffiliateID:       input.AffiliateID,
		AffiliateLinkCode: input.AffiliateLinkCode,
		Type:              input.Type,
		Status:            enums.TransactionStatusPending,
		Subtotal:          subtotal,
		DiscountAmount:    discount,
		TaxAmount:         input.TaxAmount,
		TotalAmount:       total,
		PaymentMethod:     input.PaymentMethod,
		Notes:             input.Notes,
	}
	for _, line := range cart {
		items = append(items, models.TransactionItem{
			ID:             uuid.New(),
			TransactionID:  txn.ID,
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: decimal.Zero,
			TotalPrice:     line.Subtotal(),
		})
	}
	txn.Items = items
	for _, win := range applied {
		txn.Promotions = append(txn.Promotions, models.TransactionPromotion{
			ID:             uuid.New(),
			TransactionID:  txn.ID,
			PromotionID:    win.Promotion.ID,
			DiscountAmount: win.Discount,
		})
	}

	if err := tx.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transaction")
	}
	return txn, nil
}

// completeTx applies the completion side effects to a loaded pending
// transaction. Promotion usage is re-checked here, not at create time:
// the slot is only taken when the sale actually lands.
func (s *Service) completeTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	if !txn.Status.CanTransitionTo(enums.TransactionStatusCompleted) {
		return transitionConflict(txn, enums.TransactionStatusCompleted)
	}

	for _, applied := range txn.Promotions {
		if err := promotions.ConsumeUsage(ctx, tx, applied.PromotionID); err != nil {
			return err
		}
	}

	lines := make([]inventory.Line, 0, len(txn.Items))
	for _, item := range txn.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	reservation, err := inventory.Reserve(ctx, tx, txn.ID, txn.TransactionNumber, txn.CashierID, lines)
	if err != nil {
		return err
	}
	if err := inventory.Commit(ctx, tx, reservation.ID); err != nil {
		return err
	}

	if txn.ResellerID != nil || txn.AffiliateID != nil {
		rows, err := commissions.Compute(ctx, tx, txn)
		if err != nil {
			return err
		}
		txn.Commissions = rows
	}

	completedAt := s.clock()
	if err := setStatus(ctx, tx, txn, enums.TransactionStatusCompleted, &completedAt); err != nil {
		return err
	}
	return s.emit(ctx, tx, txn, enums.EventTransactionCompleted)
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, txn *models.Transaction, eventType enums.OutboxEventType) error {
	if s.events == nil {
		return nil
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Version:       1,
		Data: eventData{
			TransactionID:     txn.ID,
			TransactionNumber: txn.TransactionNumber,
			Status:            txn.Status,
			TotalAmount:       txn.TotalAmount,
		},
	})
}

func (s *Service) observe(operation string, started time.Time, err error) {
	s.meter.ObserveDuration(operation, s.clock().Sub(started))
	if err == nil {
		s.meter.IncOutcome(operation, "ok")
		return
	}
	s.meter.IncOutcome(operation, "error")
	if typed := pkgerrors.As(err); typed != nil {
		s.meter.IncRejection(strings.ToLower(string(typed.Code())))
	}
}

func (s *Service) newTransactionNumber() string {
	stamp := s.clock().UTC().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("TXN-%s-%s", stamp, suffix)
}

func validateInput(input CartInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if line.UnitPriceOverride != nil {
			if input.CashierID == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "price override requires a cashier")
			}
			if line.UnitPriceOverride.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "price override cannot be negative")
			}
		}
	}
	if input.PaymentMethod == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction type")
	}
	if input.TaxAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax amount cannot be negative")
	}
	if input.AffiliateLinkCode != nil && input.AffiliateID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "affiliate link code requires an affiliate")
	}
	return nil
}

// resolveBuyer loads the purchasing user and, for resellers, the
// profile that drives tier pricing. A cart without a user settles at
// consumer pricing.
func resolveBuyer(ctx context.Context, tx *gorm.DB, userID *uuid.UUID) (pricing.Buyer, error) {
	buyer := pricing.Buyer{Role: enums.UserRoleConsumer}
	if userID == nil {
		return buyer, nil
	}

	var user models.User
	if err := tx.WithContext(ctx).First(&user, "id = ?", *userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return buyer, pkgerrors.New(pkgerrors.CodeValidation, "unknown user").
				WithDetails(map[string]any{"user_id": *userID})
		}
		return buyer, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	buyer.UserID = user.ID
	buyer.Role = user.Role

	if user.Role == enums.UserRoleReseller {
		var profile models.ResellerProfile
		err := tx.WithContext(ctx).First(&profile, "user_id = ?", user.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return buyer, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reseller profile")
		}
		if err == nil {
			buyer.ResellerProfileID = &profile.ID
			buyer.ResellerLevel = &profile.Level
		}
	}
	return buyer, nil
}

// Get fetches a transaction with its item, commission and promotion
// snapshots.
func (s *Service) Get(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.DB().WithContext(ctx).
		Preload("Items").
		Preload("Commissions").
		Preload("Promotions").
		First(&txn, "id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
				WithDetails(map[string]any{"transaction_id": transactionID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return &txn, nil
}

func loadTransaction(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := tx.WithContext(ctx).
		Preload("Items").
		Preload("Promotions").
		First(&txn, "id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
				WithDetails(map[string]any{"transaction_id": transactionID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return &txn, nil
}

// setStatus performs a guarded transition so a concurrent writer racing
// on the same row loses instead of double-applying side effects.
func setStatus(ctx context.Context, tx *gorm.DB, txn *models.Transaction, next enums.TransactionStatus, completedAt *time.Time) error {
	updates := map[string]any{"status": next}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := tx.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", txn.ID, txn.Status).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update transaction status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction changed concurrently").
			WithDetails(map[string]any{"transaction_id": txn.ID})
	}
	txn.Status = next
	txn.CompletedAt = completedAt
	return nil
}

func transitionConflict(txn *models.Transaction, next enums.TransactionStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
		WithDetails(map[string]any{
			"transaction_id": txn.ID,
			"from":           txn.Status,
			"to":             next,
		})
}
