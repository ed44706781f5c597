package controllers

import (
	"net/http"

	"github.com/dmarquezg/storefront-backend/api/middleware"
	"github.com/dmarquezg/storefront-backend/api/responses"
	"github.com/dmarquezg/storefront-backend/api/validators"
	checkoutsvc "github.com/dmarquezg/storefront-backend/internal/checkout"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

type placeOrderRequest struct {
	CustomerName   string         `json:"customer_name" validate:"required"`
	CustomerPhone  string         `json:"customer_phone" validate:"required"`
	CustomerEmail  *string        `json:"customer_email,omitempty"`
	DeliveryMethod string         `json:"delivery_method" validate:"required"`
	Address        *types.Address `json:"address,omitempty"`
	PaymentMethod  string         `json:"payment_method" validate:"required"`
	Notes          *string        `json:"notes,omitempty"`
	CardToken      string         `json:"card_token,omitempty"`
}

func (p placeOrderRequest) toInput() (checkoutsvc.PlaceOrderInput, error) {
	delivery, err := enums.ParseDeliveryMethod(p.DeliveryMethod)
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method")
	}
	payment, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return checkoutsvc.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return checkoutsvc.PlaceOrderInput{
		CustomerName:   p.CustomerName,
		CustomerPhone:  p.CustomerPhone,
		CustomerEmail:  p.CustomerEmail,
		DeliveryMethod: delivery,
		Address:        p.Address,
		PaymentMethod:  payment,
		Notes:          p.Notes,
		CardToken:      p.CardToken,
	}, nil
}

// CheckoutPlaceOrder converts the session cart into an order through
// the chosen payment path.
func CheckoutPlaceOrder(storeSvc stores.Service, svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session missing"))
			return
		}

		storeID, err := resolveStoreID(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), storeID, sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
