package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/mercadopago"
)

type paymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type orderStore interface {
	FindByExternalReference(ctx context.Context, ref string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByProviderPaymentID(ctx context.Context, providerID string) (*models.Payment, error)
}

// ReturnParams carries the raw query parameters from the processor's
// redirect back to the store. The processor spells several of them two
// ways; both spellings are accepted.
type ReturnParams struct {
	PaymentID           string
	CollectionID        string
	ExternalReference   string
	ExternalReferenceID string
	Status              string
	CollectionStatus    string
}

func (p ReturnParams) paymentID() string {
	for _, raw := range []string{p.PaymentID, p.CollectionID} {
		id := strings.TrimSpace(raw)
		if id != "" && !strings.EqualFold(id, "null") {
			return id
		}
	}
	return ""
}

func (p ReturnParams) externalReference() string {
	for _, raw := range []string{p.ExternalReference, p.ExternalReferenceID} {
		ref := strings.TrimSpace(raw)
		if ref != "" && !strings.EqualFold(ref, "null") {
			return ref
		}
	}
	return ""
}

// hintedStatus reads the provisional status from the redirect itself.
// Absent or unrecognized values resolve to pending.
func (p ReturnParams) hintedStatus() enums.PaymentStatus {
	for _, raw := range []string{p.Status, p.CollectionStatus} {
		if parsed, err := enums.ParsePaymentStatus(strings.TrimSpace(raw)); err == nil {
			return parsed
		}
	}
	return enums.PaymentStatusPending
}

// Resolution is the canonical read of a payment return. Confirmed is true
// only when the status came from a provider lookup; unconfirmed
// resolutions never mutate order state.
type Resolution struct {
	Status            enums.PaymentStatus `json:"status"`
	Confirmed         bool                `json:"confirmed"`
	PaymentID         string              `json:"payment_id,omitempty"`
	ExternalReference string              `json:"external_reference,omitempty"`
	OrderID           *uuid.UUID          `json:"order_id,omitempty"`
}

// Reconciler resolves redirect query parameters into one canonical
// payment status.
type Reconciler interface {
	Resolve(ctx context.Context, params ReturnParams) (*Resolution, error)
}

type reconciler struct {
	provider paymentProvider
	orders   orderStore
	payments paymentStore
	logger   *logger.Logger
}

// NewReconciler builds the payment-return reconciler.
func NewReconciler(provider paymentProvider, orders orderStore, payments paymentStore, logg *logger.Logger) (Reconciler, error) {
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &reconciler{provider: provider, orders: orders, payments: payments, logger: logg}, nil
}

// Resolve never hard-fails on ambiguity: a missing payment id or a failed
// provider lookup degrades to the hinted status, unconfirmed.
func (r *reconciler) Resolve(ctx context.Context, params ReturnParams) (*Resolution, error) {
	resolution := &Resolution{
		Status:            params.hintedStatus(),
		PaymentID:         params.paymentID(),
		ExternalReference: params.externalReference(),
	}
	r.attachOrder(ctx, resolution)

	if resolution.PaymentID == "" {
		return resolution, nil
	}

	payment, err := r.provider.GetPayment(ctx, resolution.PaymentID)
	if err != nil {
		r.logger.Error(ctx, "payment lookup failed, using hinted status", err)
		return resolution, nil
	}

	confirmed, err := enums.ParsePaymentStatus(payment.Status)
	if err != nil {
		r.logger.Warn(r.logger.WithField(ctx, "provider_status", payment.Status),
			"provider returned unrecognized payment status, using hint")
		return resolution, nil
	}
	resolution.Status = confirmed
	resolution.Confirmed = true
	if payment.ExternalReference != "" {
		resolution.ExternalReference = payment.ExternalReference
	}
	r.attachOrder(ctx, resolution)

	r.persist(ctx, resolution, payment)
	return resolution, nil
}

// attachOrder links the resolution to its order when the reference
// resolves. Lookup failures leave the resolution order-less.
func (r *reconciler) attachOrder(ctx context.Context, resolution *Resolution) {
	if resolution.OrderID != nil || resolution.ExternalReference == "" {
		return
	}
	order, err := r.orders.FindByExternalReference(ctx, resolution.ExternalReference)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Error(ctx, "order lookup by external reference failed", err)
		}
		return
	}
	resolution.OrderID = &order.ID
}

// persist records the confirmed status on the order and its payment row.
// Failures here do not change the resolution the caller sees.
func (r *reconciler) persist(ctx context.Context, resolution *Resolution, payment *mercadopago.Payment) {
	if resolution.OrderID == nil {
		return
	}
	if err := r.orders.UpdatePaymentStatus(ctx, *resolution.OrderID, resolution.Status); err != nil {
		r.logger.Error(ctx, "updating order payment status failed", err)
	}

	providerID := strconv.FormatInt(payment.ID, 10)
	row, err := r.payments.FindByProviderPaymentID(ctx, providerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Error(ctx, "payment row lookup failed", err)
			return
		}
		row = &models.Payment{
			OrderID:           *resolution.OrderID,
			ProviderPaymentID: &providerID,
			Currency:          enums.Currency(payment.CurrencyID),
			Amount:            decimal.NewFromFloat(payment.TransactionAmount),
			Status:            resolution.Status,
		}
		if payment.StatusDetail != "" {
			detail := payment.StatusDetail
			row.StatusDetail = &detail
		}
		if _, cerr := r.payments.Create(ctx, row); cerr != nil {
			r.logger.Error(ctx, "creating payment row failed", cerr)
		}
		return
	}

	row.Status = resolution.Status
	if payment.StatusDetail != "" {
		detail := payment.StatusDetail
		row.StatusDetail = &detail
	}
	if _, uerr := r.payments.Update(ctx, row); uerr != nil {
		r.logger.Error(ctx, "updating payment row failed", uerr)
	}
}
