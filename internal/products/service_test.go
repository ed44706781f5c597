package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

type stubProductRepo struct {
	byID     map[uuid.UUID]*models.Product
	listRows []models.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: make(map[uuid.UUID]*models.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, product *models.Product) error {
	product.ID = uuid.New()
	r.byID[product.ID] = product
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) ListByStore(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ bool, _ *pagination.Cursor, limit int) ([]models.Product, error) {
	if limit > len(r.listRows) {
		limit = len(r.listRows)
	}
	return r.listRows[:limit], nil
}

func (r *stubProductRepo) Update(_ context.Context, product *models.Product) error {
	r.byID[product.ID] = product
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *stubProductRepo) ReplaceVariants(_ context.Context, _ uuid.UUID, _ []models.ProductVariant) error {
	return nil
}

type allowAllGuard struct{}

func (allowAllGuard) OwnsStore(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type denyGuard struct{}

func (denyGuard) OwnsStore(context.Context, uuid.UUID, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant")
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := NewService(newStubProductRepo(), allowAllGuard{})

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateProductInput{
		Title: "  ", Price: decimal.NewFromInt(10),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty title, got %v", err)
	}

	_, err = svc.Create(context.Background(), uuid.New(), uuid.New(), CreateProductInput{
		Title: "Widget", Price: decimal.Zero,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}
}

func TestCreateRejectsForeignStore(t *testing.T) {
	svc, _ := NewService(newStubProductRepo(), denyGuard{})
	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateProductInput{
		Title: "Widget", Price: decimal.NewFromInt(10),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListByStorePaginates(t *testing.T) {
	repo := newStubProductRepo()
	base := time.Now()
	for i := 0; i < 3; i++ {
		repo.listRows = append(repo.listRows, models.Product{
			ID:        uuid.New(),
			Title:     "P",
			Price:     decimal.NewFromInt(10),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}

	svc, _ := NewService(repo, allowAllGuard{})
	page, err := svc.ListByStore(context.Background(), uuid.New(), ListFilter{
		Page: pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(page.Products))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor when more rows remain")
	}
	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil || cursor == nil {
		t.Fatalf("cursor should round-trip: %v", err)
	}
	if cursor.ID != page.Products[1].ID {
		t.Fatalf("cursor should point at last returned row")
	}
}

func TestListByStoreRejectsBadCursor(t *testing.T) {
	svc, _ := NewService(newStubProductRepo(), allowAllGuard{})
	_, err := svc.ListByStore(context.Background(), uuid.New(), ListFilter{
		Page: pagination.Params{Cursor: "%%%not-base64%%%"},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateTogglesActive(t *testing.T) {
	repo := newStubProductRepo()
	svc, _ := NewService(repo, allowAllGuard{})

	created, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateProductInput{
		Title: "Widget", Price: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), uuid.New(), created.ID, UpdateProductInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected inactive product")
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := NewService(newStubProductRepo(), allowAllGuard{})
	_, err := svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
