package mercadopago

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		httpClient:  srv.Client(),
		accessToken: "test-token",
		environment: sandboxEnv,
		baseURL:     srv.URL,
		logger:      testLogger(),
	}, srv
}

func TestCheckoutURL(t *testing.T) {
	pref := &Preference{InitPoint: "https://prod", SandboxInitPoint: "https://sandbox"}

	c := &Client{environment: sandboxEnv}
	if got := c.CheckoutURL(pref); got != "https://sandbox" {
		t.Fatalf("sandbox client should use sandbox init point, got %q", got)
	}
	c.environment = productionEnv
	if got := c.CheckoutURL(pref); got != "https://prod" {
		t.Fatalf("production client should use init point, got %q", got)
	}
	if got := c.CheckoutURL(nil); got != "" {
		t.Fatalf("nil preference should yield empty url, got %q", got)
	}
}

func TestCreatePreference(t *testing.T) {
	var captured map[string]any
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("missing bearer auth, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Preference{
			ID:               "pref-1",
			InitPoint:        "https://prod",
			SandboxInitPoint: "https://sandbox",
		})
	}))

	pref, err := client.CreatePreference(context.Background(), PreferenceCreateParams{
		ExternalReference: "order-1",
		Items: []PreferenceItem{
			{Title: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(10), CurrencyID: "ARS"},
		},
		SuccessURL: "https://shop/return",
		FailureURL: "https://shop/return",
		PendingURL: "https://shop/return",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pref.ID != "pref-1" {
		t.Fatalf("unexpected preference id %q", pref.ID)
	}
	if captured["external_reference"] != "order-1" {
		t.Fatalf("external_reference not forwarded: %v", captured["external_reference"])
	}
	if captured["auto_return"] != "approved" {
		t.Fatalf("auto_return missing: %v", captured["auto_return"])
	}
}

func TestCreatePaymentSendsIdempotencyKey(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Idempotency-Key") == "" {
			t.Fatalf("expected idempotency key header")
		}
		_ = json.NewEncoder(w).Encode(Payment{ID: 42, Status: "approved"})
	}))

	payment, err := client.CreatePayment(context.Background(), PaymentCreateParams{
		CardToken:         "tok-1",
		Amount:            decimal.NewFromInt(100),
		ExternalReference: "order-1",
		PayerEmail:        "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != 42 || payment.Status != "approved" {
		t.Fatalf("unexpected payment %+v", payment)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(apiError{Message: "payment not found", Status: 404})
	}))

	_, err := client.GetPayment(context.Background(), "999")
	if err == nil {
		t.Fatalf("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not_found, got %s", typed.Code())
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodePaymentRejected},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("card_token", "abc123"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != sandboxEnv {
		t.Fatalf("empty env should default to sandbox, got %q %v", env, err)
	}
	if env, err := normalizeEnv(" Production "); err != nil || env != productionEnv {
		t.Fatalf("expected production, got %q %v", env, err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatalf("expected error for unknown env")
	}
}
