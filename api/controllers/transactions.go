package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/api/responses"
	"github.com/riezafm/levelpos-backend/api/validators"
	"github.com/riezafm/levelpos-backend/internal/settlement"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	"github.com/riezafm/levelpos-backend/pkg/enums"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
)

type cartLineRequest struct {
	ProductID         uuid.UUID        `json:"product_id" validate:"required,uuid4"`
	Quantity          int              `json:"quantity" validate:"required,gt=0"`
	UnitPriceOverride *decimal.Decimal `json:"unit_price_override,omitempty"`
}

type cartRequest struct {
	UserID            *uuid.UUID        `json:"user_id,omitempty" validate:"omitempty,uuid4"`
	CashierID         *uuid.UUID        `json:"cashier_id,omitempty" validate:"omitempty,uuid4"`
	ResellerID        *uuid.UUID        `json:"reseller_id,omitempty" validate:"omitempty,uuid4"`
	AffiliateID       *uuid.UUID        `json:"affiliate_id,omitempty" validate:"omitempty,uuid4"`
	AffiliateLinkCode *string           `json:"affiliate_link_code,omitempty"`
	Type              string            `json:"type" validate:"required"`
	PaymentMethod     string            `json:"payment_method" validate:"required"`
	TaxAmount         decimal.Decimal   `json:"tax_amount"`
	Notes             *string           `json:"notes,omitempty"`
	Lines             []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (p cartRequest) toInput() settlement.CartInput {
	lines := make([]settlement.CartLine, 0, len(p.Lines))
	for _, line := range p.Lines {
		lines = append(lines, settlement.CartLine{
			ProductID:         line.ProductID,
			Quantity:          line.Quantity,
			UnitPriceOverride: line.UnitPriceOverride,
		})
	}
	return settlement.CartInput{
		UserID:            p.UserID,
		CashierID:         p.CashierID,
		ResellerID:        p.ResellerID,
		AffiliateID:       p.AffiliateID,
		AffiliateLinkCode: p.AffiliateLinkCode,
		Type:              enums.TransactionType(p.Type),
		PaymentMethod:     p.PaymentMethod,
		TaxAmount:         p.TaxAmount,
		Notes:             p.Notes,
		Lines:             lines,
	}
}

// TransactionCreate records a pending cart without applying counter
// effects. Stock, promotion usage and commissions move on completion.
func TransactionCreate(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionResponse(txn))
	}
}

// TransactionSettle creates and completes a cart in one shot, the POS
// counter path.
func TransactionSettle(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Settle(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionResponse(txn))
	}
}

func TransactionComplete(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, svc.Complete)
}

func TransactionCancel(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, svc.Cancel)
}

func TransactionRefund(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, svc.Refund)
}

func TransactionGet(svc *settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := transactionIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionResponse(txn))
	}
}

func transitionHandler(logg *logger.Logger, fn func(context.Context, uuid.UUID) (*models.Transaction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := transactionIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := fn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionResponse(txn))
	}
}

func transactionIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "transactionId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id")
	}
	return id, nil
}

type transactionResponse struct {
	ID                uuid.UUID                     `json:"id"`
	TransactionNumber string                        `json:"transaction_number"`
	UserID            *uuid.UUID                    `json:"user_id,omitempty"`
	CashierID         *uuid.UUID                    `json:"cashier_id,omitempty"`
	ResellerID        *uuid.UUID                    `json:"reseller_id,omitempty"`
	AffiliateID       *uuid.UUID                    `json:"affiliate_id,omitempty"`
	Type              string                        `json:"type"`
	Status            string                        `json:"status"`
	Subtotal          decimal.Decimal               `json:"subtotal"`
	DiscountAmount    decimal.Decimal               `json:"discount_amount"`
	TaxAmount         decimal.Decimal               `json:"tax_amount"`
	TotalAmount       decimal.Decimal               `json:"total_amount"`
	PaymentMethod     string                        `json:"payment_method"`
	Notes             *string                       `json:"notes,omitempty"`
	Items             []transactionItemResponse     `json:"items"`
	Commissions       []commissionResponse          `json:"commissions,omitempty"`
	Promotions        []transactionPromoResponse    `json:"promotions,omitempty"`
	CreatedAt         time.Time                     `json:"created_at"`
	CompletedAt       *time.Time                    `json:"completed_at,omitempty"`
}

type transactionItemResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

type commissionResponse struct {
	UserID           uuid.UUID       `json:"user_id"`
	Type             string          `json:"type"`
	Level            *int            `json:"level,omitempty"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	IsReversal       bool            `json:"is_reversal"`
}

type transactionPromoResponse struct {
	PromotionID    uuid.UUID       `json:"promotion_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

func newTransactionResponse(txn *models.Transaction) transactionResponse {
	if txn == nil {
		return transactionResponse{}
	}
	items := make([]transactionItemResponse, 0, len(txn.Items))
	for _, item := range txn.Items {
		items = append(items, transactionItemResponse{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			TotalPrice:     item.TotalPrice,
		})
	}
	commissions := make([]commissionResponse, 0, len(txn.Commissions))
	for _, c := range txn.Commissions {
		commissions = append(commissions, commissionResponse{
			UserID:           c.UserID,
			Type:             string(c.Type),
			Level:            c.Level,
			BaseAmount:       c.BaseAmount,
			CommissionRate:   c.CommissionRate,
			CommissionAmount: c.CommissionAmount,
			IsReversal:       c.IsReversal,
		})
	}
	promos := make([]transactionPromoResponse, 0, len(txn.Promotions))
	for _, p := range txn.Promotions {
		promos = append(promos, transactionPromoResponse{
			PromotionID:    p.PromotionID,
			DiscountAmount: p.DiscountAmount,
		})
	}
	return transactionResponse{
		ID:                txn.ID,
		TransactionNumber: txn.TransactionNumber,
		UserID:            txn.UserID,
		CashierID:         txn.CashierID,
		ResellerID:        txn.ResellerID,
		AffiliateID:       txn.AffiliateID,
		Type:              string(txn.Type),
		Status:            string(txn.Status),
		Subtotal:          txn.Subtotal,
		DiscountAmount:    txn.DiscountAmount,
		TaxAmount:         txn.TaxAmount,
		TotalAmount:       txn.TotalAmount,
		PaymentMethod:     txn.PaymentMethod,
		Notes:             txn.Notes,
		Items:             items,
		Commissions:       commissions,
		Promotions:        promos,
		CreatedAt:         txn.CreatedAt,
		CompletedAt:       txn.CompletedAt,
	}
}
