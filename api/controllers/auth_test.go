package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/dmarquezg/storefront-backend/internal/auth"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
)

type stubAuthService struct {
	session *authsvc.Session
	err     error

	registered *authsvc.RegisterInput
	creds      *authsvc.Credentials
}

func (s *stubAuthService) Register(_ context.Context, input authsvc.RegisterInput) (*authsvc.Session, error) {
	s.registered = &input
	return s.session, s.err
}

func (s *stubAuthService) Login(_ context.Context, creds authsvc.Credentials) (*authsvc.Session, error) {
	s.creds = &creds
	return s.session, s.err
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{session: &authsvc.Session{
		Token:     "token",
		ExpiresAt: time.Now().Add(15 * time.Minute),
		Merchant:  authsvc.MerchantDTO{ID: uuid.New(), Email: "ana@example.com"},
	}}
	handler := AuthRegister(svc, nil)

	payload := []byte(`{"name":"Ana","email":"ana@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.registered == nil || svc.registered.Email != "ana@example.com" {
		t.Fatal("expected register input to reach the service")
	}

	var envelope struct {
		Data authsvc.Session `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "token" {
		t.Fatalf("expected token in response got %q", envelope.Data.Token)
	}
}

func TestAuthRegisterInvalidBody(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, nil)

	payload := []byte(`{"name":"Ana","email":"not-an-email","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLoginUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	payload := []byte(`{"email":"ana@example.com","password":"wrongwrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
