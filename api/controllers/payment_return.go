package controllers

import (
	"net/http"

	"github.com/dmarquezg/storefront-backend/api/responses"
	"github.com/dmarquezg/storefront-backend/internal/payments"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
)

// PaymentReturn resolves the redirect from the payment provider into a
// canonical payment status. Ambiguous or partial parameters degrade to
// an unconfirmed resolution rather than an error, so the buyer always
// lands on a usable confirmation page.
func PaymentReturn(reconciler payments.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reconciler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment reconciler unavailable"))
			return
		}

		query := r.URL.Query()
		params := payments.ReturnParams{
			PaymentID:           query.Get("payment_id"),
			CollectionID:        query.Get("collection_id"),
			ExternalReference:   query.Get("external_reference"),
			ExternalReferenceID: query.Get("external_reference_id"),
			Status:              query.Get("status"),
			CollectionStatus:    query.Get("collection_status"),
		}

		resolution, err := reconciler.Resolve(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resolution)
	}
}
