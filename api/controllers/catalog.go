package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/riezafm/levelpos-backend/api/responses"
	"github.com/riezafm/levelpos-backend/api/validators"
	"github.com/riezafm/levelpos-backend/internal/catalog"
	"github.com/riezafm/levelpos-backend/pkg/db/models"
	pkgerrors "github.com/riezafm/levelpos-backend/pkg/errors"
	"github.com/riezafm/levelpos-backend/pkg/logger"
	"github.com/riezafm/levelpos-backend/pkg/types"
)

type createCategoryRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description *string    `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" validate:"omitempty,uuid4"`
}

func CategoryCreate(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
			ParentID:    payload.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":        category.ID,
			"name":      category.Name,
			"parent_id": category.ParentCategoryID,
		})
	}
}

type createProductRequest struct {
	Name          string            `json:"name" validate:"required"`
	Description   *string           `json:"description,omitempty"`
	SKU           string            `json:"sku" validate:"required"`
	Barcode       *string           `json:"barcode,omitempty"`
	CategoryID    uuid.UUID         `json:"category_id" validate:"required,uuid4"`
	BasePrice     decimal.Decimal   `json:"base_price" validate:"required"`
	CostPrice     decimal.Decimal   `json:"cost_price"`
	InitialStock  int               `json:"initial_stock" validate:"gte=0"`
	MinStockLevel int               `json:"min_stock_level" validate:"gte=0"`
	Weight        *decimal.Decimal  `json:"weight,omitempty"`
	Dimensions    *types.Dimensions `json:"dimensions,omitempty"`
}

func ProductCreate(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:          payload.Name,
			Description:   payload.Description,
			SKU:           payload.SKU,
			Barcode:       payload.Barcode,
			CategoryID:    payload.CategoryID,
			BasePrice:     payload.BasePrice,
			CostPrice:     payload.CostPrice,
			InitialStock:  payload.InitialStock,
			MinStockLevel: payload.MinStockLevel,
			Weight:        payload.Weight,
			Dimensions:    payload.Dimensions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

type setResellerPriceRequest struct {
	ResellerProfileID *uuid.UUID      `json:"reseller_profile_id,omitempty" validate:"omitempty,uuid4"`
	ResellerLevel     *int            `json:"reseller_level,omitempty" validate:"omitempty,gte=0"`
	Price             decimal.Decimal `json:"price" validate:"required"`
}

// ProductSetResellerPrice records a tier price override scoped to either
// a single profile or a whole level.
func ProductSetResellerPrice(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setResellerPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := svc.SetResellerPrice(r.Context(), catalog.SetResellerPriceInput{
			ProductID:         productID,
			ResellerProfileID: payload.ResellerProfileID,
			ResellerLevel:     payload.ResellerLevel,
			Price:             payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"id":                  price.ID,
			"product_id":          price.ProductID,
			"reseller_profile_id": price.ResellerProfileID,
			"reseller_level":      price.ResellerLevel,
			"price":               price.Price,
		})
	}
}

type restockRequest struct {
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" validate:"omitempty,uuid4"`
}

func ProductRestock(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Restock(r.Context(), productID, payload.Quantity, payload.CreatedBy); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": productID,
			"quantity":   payload.Quantity,
		})
	}
}

func productIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "productId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	return id, nil
}

type productResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    uuid.UUID       `json:"category_id"`
	BasePrice     decimal.Decimal `json:"base_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	IsActive      bool            `json:"is_active"`
}

func newProductResponse(product *models.Product) productResponse {
	if product == nil {
		return productResponse{}
	}
	return productResponse{
		ID:            product.ID,
		Name:          product.Name,
		SKU:           product.SKU,
		CategoryID:    product.CategoryID,
		BasePrice:     product.BasePrice,
		StockQuantity: product.StockQuantity,
		MinStockLevel: product.MinStockLevel,
		IsActive:      product.IsActive,
	}
}
