package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/api/middleware"
	"github.com/dmarquezg/storefront-backend/api/responses"
	"github.com/dmarquezg/storefront-backend/api/validators"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// merchantIDFromRequest pulls the authenticated merchant out of the
// request context.
func merchantIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.MerchantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id")
	}
	return id, nil
}

type createStoreRequest struct {
	Slug          string          `json:"slug" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   *string         `json:"description,omitempty"`
	WhatsAppPhone *string         `json:"whatsapp_phone,omitempty"`
	Currency      string          `json:"currency" validate:"required"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Theme         *types.Theme    `json:"theme,omitempty"`
	Address       *types.Address  `json:"address,omitempty"`
}

// AdminStoreCreate provisions a new storefront for the merchant.
func AdminStoreCreate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), merchantID, stores.CreateStoreInput{
			Slug:          payload.Slug,
			Name:          payload.Name,
			Description:   payload.Description,
			WhatsAppPhone: payload.WhatsAppPhone,
			Currency:      payload.Currency,
			DeliveryFee:   payload.DeliveryFee,
			Theme:         payload.Theme,
			Address:       payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// AdminStoreList returns every store the merchant owns.
func AdminStoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		merchantID, err := merchantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByOwner(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminStoreGet returns one owned store by id.
func AdminStoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
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

		record, err := svc.GetByID(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if record.OwnerID != merchantID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant"))
			return
		}

		responses.WriteSuccess(w, record)
	}
}

type updateStoreRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Description   *string          `json:"description,omitempty"`
	WhatsAppPhone *string          `json:"whatsapp_phone,omitempty"`
	DeliveryFee   *decimal.Decimal `json:"delivery_fee,omitempty"`
	Theme         *types.Theme     `json:"theme,omitempty"`
	Address       *types.Address   `json:"address,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

// AdminStoreUpdate adjusts the mutable store fields.
func AdminStoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
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

		var payload updateStoreRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Update(r.Context(), merchantID, storeID, stores.UpdateStoreInput{
			Name:          payload.Name,
			Description:   payload.Description,
			WhatsAppPhone: payload.WhatsAppPhone,
			DeliveryFee:   payload.DeliveryFee,
			Theme:         payload.Theme,
			Address:       payload.Address,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}
