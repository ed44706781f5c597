package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	authsvc "github.com/dmarquezg/storefront-backend/internal/auth"
	cartsvc "github.com/dmarquezg/storefront-backend/internal/cart"
	"github.com/dmarquezg/storefront-backend/internal/categories"
	checkoutsvc "github.com/dmarquezg/storefront-backend/internal/checkout"
	"github.com/dmarquezg/storefront-backend/internal/orders"
	"github.com/dmarquezg/storefront-backend/internal/payments"
	"github.com/dmarquezg/storefront-backend/internal/products"
	"github.com/dmarquezg/storefront-backend/internal/stores"
	"github.com/dmarquezg/storefront-backend/pkg/config"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
)

type stubStoreService struct {
	snapshot *stores.StoreDTO
}

func (s stubStoreService) Snapshot(context.Context, string) (*stores.StoreDTO, error) {
	if s.snapshot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return s.snapshot, nil
}

func (s stubStoreService) GetByID(context.Context, uuid.UUID) (*stores.StoreDTO, error) {
	return s.Snapshot(context.Background(), "")
}

func (s stubStoreService) Create(context.Context, uuid.UUID, stores.CreateStoreInput) (*stores.StoreDTO, error) {
	return s.snapshot, nil
}

func (s stubStoreService) Update(context.Context, uuid.UUID, uuid.UUID, stores.UpdateStoreInput) (*stores.StoreDTO, error) {
	return s.snapshot, nil
}

func (s stubStoreService) ListByOwner(context.Context, uuid.UUID) ([]stores.StoreDTO, error) {
	return nil, nil
}

type stubCategoryService struct{}

func (stubCategoryService) ListByStore(context.Context, uuid.UUID) ([]categories.CategoryDTO, error) {
	return []categories.CategoryDTO{}, nil
}

func (stubCategoryService) Create(context.Context, uuid.UUID, uuid.UUID, categories.CategoryInput) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{}, nil
}

func (stubCategoryService) Update(context.Context, uuid.UUID, uuid.UUID, categories.CategoryInput) (*categories.CategoryDTO, error) {
	return &categories.CategoryDTO{}, nil
}

func (stubCategoryService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubProductService struct{}

func (stubProductService) Get(context.Context, uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductService) ListByStore(context.Context, uuid.UUID, products.ListFilter) (*products.ProductPage, error) {
	return &products.ProductPage{Products: []products.ProductDTO{}}, nil
}

func (stubProductService) Create(context.Context, uuid.UUID, uuid.UUID, products.CreateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductService) Update(context.Context, uuid.UUID, uuid.UUID, products.UpdateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (stubProductService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubCartService struct{}

func (stubCartService) Get(_ context.Context, storeID uuid.UUID, sessionID string) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

func (stubCartService) AddItem(_ context.Context, storeID uuid.UUID, sessionID string, _ cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

func (stubCartService) UpdateItem(_ context.Context, storeID uuid.UUID, sessionID string, _ uuid.UUID, _ int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

func (stubCartService) RemoveItem(_ context.Context, storeID uuid.UUID, sessionID string, _ uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

func (stubCartService) Clear(_ context.Context, storeID uuid.UUID, sessionID string) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

func (stubCartService) SetDeliveryMethod(_ context.Context, storeID uuid.UUID, sessionID string, _ enums.DeliveryMethod) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{StoreID: storeID, SessionID: sessionID}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) PlaceOrder(context.Context, uuid.UUID, string, checkoutsvc.PlaceOrderInput) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{}, nil
}

type stubOrderService struct{}

func (stubOrderService) Get(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) ListByStore(context.Context, uuid.UUID, uuid.UUID, orders.ListFilter) (*orders.OrderPage, error) {
	return &orders.OrderPage{}, nil
}

func (stubOrderService) UpdateStatus(context.Context, uuid.UUID, uuid.UUID, enums.OrderStatus) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterInput) (*authsvc.Session, error) {
	return &authsvc.Session{Token: "token"}, nil
}

func (stubAuthService) Login(context.Context, authsvc.Credentials) (*authsvc.Session, error) {
	return &authsvc.Session{Token: "token"}, nil
}

type stubReconciler struct{}

func (stubReconciler) Resolve(context.Context, payments.ReturnParams) (*payments.Resolution, error) {
	return &payments.Resolution{Status: enums.PaymentStatusPending}, nil
}

func testRouter(snapshot *stores.StoreDTO) http.Handler {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "storefront", ExpirationMinutes: 15},
	}
	return NewRouter(
		cfg,
		nil,
		nil,
		nil,
		nil,
		nil,
		stubAuthService{},
		stubStoreService{snapshot: snapshot},
		stubCategoryService{},
		stubProductService{},
		stubCartService{},
		stubCheckoutService{},
		stubOrderService{},
		stubReconciler{},
	)
}

func activeSnapshot() *stores.StoreDTO {
	return &stores.StoreDTO{
		ID:       uuid.New(),
		Slug:     "mate-shop",
		Name:     "Mate Shop",
		Currency: enums.CurrencyARS,
		IsActive: true,
	}
}

func TestRouterHealth(t *testing.T) {
	router := testRouter(activeSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if env := rec.Header().Get("X-Storefront-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestRouterStorefrontSnapshot(t *testing.T) {
	snapshot := activeSnapshot()
	router := testRouter(snapshot)

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/mate-shop", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data stores.StoreDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != snapshot.ID {
		t.Fatalf("expected store %s got %s", snapshot.ID, envelope.Data.ID)
	}
}

func TestRouterCartUsesSessionHeader(t *testing.T) {
	router := testRouter(activeSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/mate-shop/cart", nil)
	req.Header.Set("X-Session-Id", "sess-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Session-Id"); got != "sess-42" {
		t.Fatalf("expected session header echoed, got %q", got)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "sess-42" {
		t.Fatalf("expected session sess-42 got %q", envelope.Data.SessionID)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := testRouter(activeSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stores", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRouterPaymentReturn(t *testing.T) {
	router := testRouter(activeSnapshot())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/return?status=pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestRouterLogin(t *testing.T) {
	router := testRouter(activeSnapshot())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Empty body fails decoding, but the route must resolve to the
	// controller rather than a 404.
	if rec.Code == http.StatusNotFound {
		t.Fatal("expected login route to be registered")
	}
}
