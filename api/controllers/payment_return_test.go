package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarquezg/storefront-backend/internal/payments"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
)

type stubReconciler struct {
	resolution *payments.Resolution
	err        error
	params     payments.ReturnParams
}

func (s *stubReconciler) Resolve(_ context.Context, params payments.ReturnParams) (*payments.Resolution, error) {
	s.params = params
	return s.resolution, s.err
}

func TestPaymentReturnMapsQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	reconciler := &stubReconciler{resolution: &payments.Resolution{
		Status:    enums.PaymentStatusApproved,
		Confirmed: true,
	}}
	handler := PaymentReturn(reconciler, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/return?collection_id=123&collection_status=approved&external_reference_id=order-abc", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if reconciler.params.CollectionID != "123" {
		t.Fatalf("expected collection id 123 got %q", reconciler.params.CollectionID)
	}
	if reconciler.params.CollectionStatus != "approved" {
		t.Fatalf("expected collection status approved got %q", reconciler.params.CollectionStatus)
	}
	if reconciler.params.ExternalReferenceID != "order-abc" {
		t.Fatalf("expected external reference order-abc got %q", reconciler.params.ExternalReferenceID)
	}

	var envelope struct {
		Data payments.Resolution `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.PaymentStatusApproved || !envelope.Data.Confirmed {
		t.Fatalf("unexpected resolution %+v", envelope.Data)
	}
}

func TestPaymentReturnDegradesToHint(t *testing.T) {
	reconciler := &stubReconciler{resolution: &payments.Resolution{
		Status:    enums.PaymentStatusPending,
		Confirmed: false,
	}}
	handler := PaymentReturn(reconciler, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/return?status=pending", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if reconciler.params.Status != "pending" {
		t.Fatalf("expected status hint to be forwarded, got %q", reconciler.params.Status)
	}
}
