package payments

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
	"github.com/dmarquezg/storefront-backend/pkg/mercadopago"
)

type stubProvider struct {
	payment *mercadopago.Payment
	err     error
	calls   int
}

func (p *stubProvider) GetPayment(context.Context, string) (*mercadopago.Payment, error) {
	p.calls++
	return p.payment, p.err
}

type stubOrderStore struct {
	byRef    map[string]*models.Order
	statuses map[uuid.UUID]enums.PaymentStatus
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{
		byRef:    make(map[string]*models.Order),
		statuses: make(map[uuid.UUID]enums.PaymentStatus),
	}
}

func (s *stubOrderStore) FindByExternalReference(_ context.Context, ref string) (*models.Order, error) {
	order, ok := s.byRef[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	s.statuses[id] = status
	return nil
}

type stubPaymentStore struct {
	byProviderID map[string]*models.Payment
	created      []*models.Payment
	updated      []*models.Payment
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{byProviderID: make(map[string]*models.Payment)}
}

func (s *stubPaymentStore) Create(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New()
	if payment.ProviderPaymentID != nil {
		s.byProviderID[*payment.ProviderPaymentID] = payment
	}
	s.created = append(s.created, payment)
	return payment, nil
}

func (s *stubPaymentStore) Update(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	s.updated = append(s.updated, payment)
	return payment, nil
}

func (s *stubPaymentStore) FindByProviderPaymentID(_ context.Context, providerID string) (*models.Payment, error) {
	payment, ok := s.byProviderID[providerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func testReconciler(t *testing.T, provider *stubProvider, orders *stubOrderStore, payments *stubPaymentStore) Reconciler {
	t.Helper()
	logg := logger.New(logger.Options{Output: io.Discard, Level: zerolog.Disabled})
	rec, err := NewReconciler(provider, orders, payments, logg)
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	return rec
}

func TestResolveWithoutPaymentIDReturnsHintUnconfirmed(t *testing.T) {
	provider := &stubProvider{}
	rec := testReconciler(t, provider, newStubOrderStore(), newStubPaymentStore())

	res, err := rec.Resolve(context.Background(), ReturnParams{Status: "approved"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Status != enums.PaymentStatusApproved || res.Confirmed {
		t.Fatalf("expected unconfirmed approved hint, got %+v", res)
	}
	if provider.calls != 0 {
		t.Fatalf("no payment id should mean no provider call")
	}
}

func TestResolveDefaultsHintToPending(t *testing.T) {
	rec := testReconciler(t, &stubProvider{}, newStubOrderStore(), newStubPaymentStore())

	res, err := rec.Resolve(context.Background(), ReturnParams{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Status != enums.PaymentStatusPending || res.Confirmed {
		t.Fatalf("expected unconfirmed pending, got %+v", res)
	}
}

func TestResolveProviderStatusOverridesHint(t *testing.T) {
	orders := newStubOrderStore()
	order := &models.Order{ID: uuid.New(), ExternalReference: "order-abc"}
	orders.byRef[order.ExternalReference] = order
	payments := newStubPaymentStore()
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                123,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "order-abc",
		TransactionAmount: 7000,
		CurrencyID:        "ARS",
	}}
	rec := testReconciler(t, provider, orders, payments)

	res, err := rec.Resolve(context.Background(), ReturnParams{PaymentID: "123", Status: "pending"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Status != enums.PaymentStatusApproved || !res.Confirmed {
		t.Fatalf("provider status should override the hint, got %+v", res)
	}
	if provider.calls != 1 {
		t.Fatalf("expected one provider lookup, got %d", provider.calls)
	}
	if orders.statuses[order.ID] != enums.PaymentStatusApproved {
		t.Fatalf("confirmed resolution should update the order payment status")
	}
	if len(payments.created) != 1 {
		t.Fatalf("expected a payment row, got %d", len(payments.created))
	}
	row := payments.created[0]
	if row.ProviderPaymentID == nil || *row.ProviderPaymentID != "123" {
		t.Fatalf("payment row should carry the provider id")
	}
	if row.StatusDetail == nil || *row.StatusDetail != "accredited" {
		t.Fatalf("payment row should carry the status detail")
	}
}

func TestResolveFallsBackToHintOnProviderFailure(t *testing.T) {
	orders := newStubOrderStore()
	order := &models.Order{ID: uuid.New(), ExternalReference: "order-abc"}
	orders.byRef[order.ExternalReference] = order
	provider := &stubProvider{err: fmt.Errorf("processor unavailable")}
	rec := testReconciler(t, provider, orders, newStubPaymentStore())

	res, err := rec.Resolve(context.Background(), ReturnParams{
		PaymentID:         "123",
		ExternalReference: "order-abc",
		Status:            "pending",
	})
	if err != nil {
		t.Fatalf("resolve should degrade, not fail: %v", err)
	}
	if res.Status != enums.PaymentStatusPending || res.Confirmed {
		t.Fatalf("expected unconfirmed pending fallback, got %+v", res)
	}
	if len(orders.statuses) != 0 {
		t.Fatalf("unconfirmed resolution must not mutate order state")
	}
}

func TestResolveAcceptsAlternateParamSpellings(t *testing.T) {
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:     456,
		Status: "rejected",
	}}
	rec := testReconciler(t, provider, newStubOrderStore(), newStubPaymentStore())

	res, err := rec.Resolve(context.Background(), ReturnParams{
		CollectionID:        "456",
		ExternalReferenceID: "order-xyz",
		CollectionStatus:    "in_process",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.PaymentID != "456" {
		t.Fatalf("collection_id should stand in for payment_id")
	}
	if res.Status != enums.PaymentStatusRejected || !res.Confirmed {
		t.Fatalf("expected confirmed rejected, got %+v", res)
	}
}

func TestResolveTreatsLiteralNullAsAbsent(t *testing.T) {
	provider := &stubProvider{}
	rec := testReconciler(t, provider, newStubOrderStore(), newStubPaymentStore())

	res, err := rec.Resolve(context.Background(), ReturnParams{PaymentID: "null", Status: "approved"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("literal null id should not trigger a provider call")
	}
	if res.Confirmed {
		t.Fatalf("resolution must stay unconfirmed without a real id")
	}
}

func TestResolveUpdatesExistingPaymentRow(t *testing.T) {
	orders := newStubOrderStore()
	order := &models.Order{ID: uuid.New(), ExternalReference: "order-abc"}
	orders.byRef[order.ExternalReference] = order
	payments := newStubPaymentStore()
	providerID := "789"
	payments.byProviderID[providerID] = &models.Payment{
		ID:                uuid.New(),
		OrderID:           order.ID,
		ProviderPaymentID: &providerID,
		Status:            enums.PaymentStatusPending,
	}
	provider := &stubProvider{payment: &mercadopago.Payment{
		ID:                789,
		Status:            "approved",
		ExternalReference: "order-abc",
	}}
	rec := testReconciler(t, provider, orders, payments)

	if _, err := rec.Resolve(context.Background(), ReturnParams{PaymentID: "789"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(payments.updated) != 1 || payments.updated[0].Status != enums.PaymentStatusApproved {
		t.Fatalf("existing payment row should be updated in place")
	}
	if len(payments.created) != 0 {
		t.Fatalf("no duplicate payment row expected")
	}
}
