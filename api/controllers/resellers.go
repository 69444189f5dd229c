package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/api/responses"
	"github.com/riezafm/levelpos-backend/api/validators"
	"github.com/riezafm/levelpos-backend/internal/resellers"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
)

type createResellerRequest struct {
	UserID           uuid.UUID       `json:"user_id" validate:"required,uuid4"`
	Level            int             `json:"level" validate:"gte=0"`
	ParentResellerID *uuid.UUID      `json:"parent_reseller_id,omitempty" validate:"omitempty,uuid4"`
	CommissionRate   decimal.Decimal `json:"commission_rate" validate:"required"`
}

func ResellerCreate(svc *resellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createResellerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.CreateProfile(r.Context(), resellers.CreateProfileInput{
			UserID:           payload.UserID,
			Level:            payload.Level,
			ParentResellerID: payload.ParentResellerID,
			CommissionRate:   payload.CommissionRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newResellerResponse(profile))
	}
}

type reparentRequest struct {
	ParentResellerID *uuid.UUID `json:"parent_reseller_id,omitempty" validate:"omitempty,uuid4"`
}

// ResellerReparent moves a profile under a new parent, or detaches it to
// the root when the body carries no parent.
func ResellerReparent(svc *resellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := resellerIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reparentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Reparent(r.Context(), profileID, payload.ParentResellerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":                 profileID,
			"parent_reseller_id": payload.ParentResellerID,
		})
	}
}

type commissionRateRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate" validate:"required"`
}

func ResellerSetCommissionRate(svc *resellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := resellerIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload commissionRateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetCommissionRate(r.Context(), profileID, payload.CommissionRate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":              profileID,
			"commission_rate": payload.CommissionRate,
		})
	}
}

// ResellerAuditTotals replays the commission ledger and rewrites the
// cached totals, returning the replayed figures.
func ResellerAuditTotals(svc *resellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := resellerIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := svc.AuditTotals(r.Context(), profileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":               profileID,
			"total_sales":      totals.TotalSales,
			"total_commission": totals.TotalCommission,
		})
	}
}

func resellerIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "resellerId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reseller profile id")
	}
	return id, nil
}

type resellerResponse struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Level            int             `json:"level"`
	ParentResellerID *uuid.UUID      `json:"parent_reseller_id,omitempty"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	ReferralCode     string          `json:"referral_code"`
	IsActive         bool            `json:"is_active"`
}

func newResellerResponse(profile *models.ResellerProfile) resellerResponse {
	if profile == nil {
		return resellerResponse{}
	}
	return resellerResponse{
		ID:               profile.ID,
		UserID:           profile.UserID,
		Level:            profile.Level,
		ParentResellerID: profile.ParentResellerID,
		CommissionRate:   profile.CommissionRate,
		ReferralCode:     profile.ReferralCode,
		IsActive:         profile.IsActive,
	}
}
