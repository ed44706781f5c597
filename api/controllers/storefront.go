package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmarquezg/storefront-backend/api/responses"
	"github.com/dmarquezg/storefront-backend/api/validators"
	"github.com/dmarquezg/storefront-backend/internal/categories"
	"github.com/dmarquezg/storefront-backend/internal/products"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

// resolveStoreID maps the slug path parameter to the store identity,
// going through the snapshot cache.
func resolveStoreID(r *http.Request, svc stores.Service) (uuid.UUID, error) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "store slug required")
	}
	snapshot, err := svc.Snapshot(r.Context(), slug)
	if err != nil {
		return uuid.Nil, err
	}
	return snapshot.ID, nil
}

// StorefrontSnapshot serves the public store profile for a slug.
func StorefrontSnapshot(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		snapshot, err := svc.Snapshot(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// StorefrontProducts lists the active catalog of a store, newest first.
func StorefrontProducts(storeSvc stores.Service, productSvc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil || productSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		storeID, err := resolveStoreID(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := products.ListFilter{
			ActiveOnly: true,
			Page: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			categoryID, parseErr := validators.ParseUUIDParam(raw, "category")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			filter.CategoryID = &categoryID
		}

		page, err := productSvc.ListByStore(r.Context(), storeID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// StorefrontProduct serves a single listing.
func StorefrontProduct(storeSvc stores.Service, productSvc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil || productSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		storeID, err := resolveStoreID(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productID"), "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := productSvc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product.StoreID != storeID || !product.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// StorefrontCategories lists the store's categories in display order.
func StorefrontCategories(storeSvc stores.Service, categorySvc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil || categorySvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		storeID, err := resolveStoreID(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := categorySvc.ListByStore(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
