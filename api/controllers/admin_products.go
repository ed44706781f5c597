package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/api/responses"
	"github.com/dmarquezg/storefront-backend/api/validators"
	"github.com/dmarquezg/storefront-backend/internal/products"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

type variantPayload struct {
	Name  string           `json:"name" validate:"required"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

func variantInputs(payloads []variantPayload) []products.VariantInput {
	if payloads == nil {
		return nil
	}
	inputs := make([]products.VariantInput, len(payloads))
	for i, p := range payloads {
		inputs[i] = products.VariantInput{Name: p.Name, Price: p.Price}
	}
	return inputs
}

type createProductRequest struct {
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	Title          string           `json:"title" validate:"required"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	ImageURL       *string          `json:"image_url,omitempty"`
	Variants       []variantPayload `json:"variants,omitempty" validate:"omitempty,dive"`
}

// AdminProductCreate adds a listing to an owned store.
func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeID"), "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), merchantID, storeID, products.CreateProductInput{
			CategoryID:     payload.CategoryID,
			Title:          payload.Title,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			ImageURL:       payload.ImageURL,
			Variants:       variantInputs(payload.Variants),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// AdminProductList pages through a store's full catalog, inactive
// listings included.
func AdminProductList(storeSvc stores.Service, svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeID"), "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := storeSvc.GetByID(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if store.OwnerID != merchantID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByStore(r.Context(), storeID, products.ListFilter{
			Page: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

type updateProductRequest struct {
	CategoryID     *uuid.UUID        `json:"category_id,omitempty"`
	Title          *string           `json:"title,omitempty" validate:"omitempty,min=1"`
	Description    *string           `json:"description,omitempty"`
	Price          *decimal.Decimal  `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal  `json:"compare_at_price,omitempty"`
	ImageURL       *string           `json:"image_url,omitempty"`
	IsActive       *bool             `json:"is_active,omitempty"`
	Variants       *[]variantPayload `json:"variants,omitempty" validate:"omitempty,dive"`
}

// AdminProductUpdate adjusts the mutable listing fields.
func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productID"), "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateProductInput{
			CategoryID:     payload.CategoryID,
			Title:          payload.Title,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			ImageURL:       payload.ImageURL,
			IsActive:       payload.IsActive,
		}
		if payload.Variants != nil {
			variants := variantInputs(*payload.Variants)
			input.Variants = &variants
		}

		record, err := svc.Update(r.Context(), merchantID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// AdminProductDelete removes a listing from an owned store.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productID"), "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), merchantID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
