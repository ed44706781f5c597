package orders

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cpy := *order
	return &cpy, nil
}

func (r *stubOrderRepo) ListByStore(_ context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range r.orders {
		if order.StoreID != storeID {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		if cursor != nil && !order.CreatedAt.Before(cursor.CreatedAt) {
			continue
		}
		rows = append(rows, *order)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if order, ok := r.orders[id]; ok {
		order.Status = status
	}
	return nil
}

type allowAllGuard struct{}

func (allowAllGuard) OwnsStore(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type denyGuard struct{}

func (denyGuard) OwnsStore(context.Context, uuid.UUID, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to merchant")
}

func seedOrder(repo *stubOrderRepo, storeID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	order := &models.Order{
		ID:                uuid.New(),
		StoreID:           storeID,
		SessionID:         uuid.NewString(),
		ExternalReference: "order-" + uuid.NewString(),
		CustomerName:      "Ana",
		CustomerPhone:     "+5491122334455",
		DeliveryMethod:    enums.DeliveryMethodPickup,
		PaymentMethod:     enums.PaymentMethodCash,
		PaymentStatus:     enums.PaymentStatusPending,
		Currency:          enums.CurrencyARS,
		Subtotal:          decimal.NewFromInt(1000),
		Total:             decimal.NewFromInt(1000),
		Status:            status,
		CreatedAt:         createdAt,
	}
	repo.orders[order.ID] = order
	return order
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	repo := newStubOrderRepo()
	storeID := uuid.New()
	order := seedOrder(repo, storeID, enums.OrderStatusPlaced, time.Now())
	svc, err := NewService(repo, allowAllGuard{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.UpdateStatus(context.Background(), uuid.New(), order.ID, enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if dto.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", dto.Status)
	}
	if repo.orders[order.ID].Status != enums.OrderStatusConfirmed {
		t.Fatalf("status not persisted")
	}
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPlaced, time.Now())
	svc, _ := NewService(repo, allowAllGuard{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), order.ID, enums.OrderStatusDelivered)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if repo.orders[order.ID].Status != enums.OrderStatusPlaced {
		t.Fatalf("status should be unchanged")
	}
}

func TestUpdateStatusRejectsTerminalOrder(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo, uuid.New(), enums.OrderStatusDelivered, time.Now())
	svc, _ := NewService(repo, allowAllGuard{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), order.ID, enums.OrderStatusCancelled)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newStubOrderRepo()
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPlaced, time.Now())
	svc, _ := NewService(repo, denyGuard{})

	_, err := svc.Get(context.Background(), uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListByStorePaginatesAndFilters(t *testing.T) {
	repo := newStubOrderRepo()
	storeID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(repo, storeID, enums.OrderStatusPlaced, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(repo, storeID, enums.OrderStatusCancelled, base.Add(time.Hour))
	seedOrder(repo, uuid.New(), enums.OrderStatusPlaced, base)
	svc, _ := NewService(repo, allowAllGuard{})

	placed := enums.OrderStatusPlaced
	page, err := svc.ListByStore(context.Background(), uuid.New(), storeID, ListFilter{
		Status: &placed,
		Page:   pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page.Orders))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected a next cursor")
	}

	rest, err := svc.ListByStore(context.Background(), uuid.New(), storeID, ListFilter{
		Status: &placed,
		Page:   pagination.Params{Limit: 2, Cursor: page.NextCursor},
	})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(rest.Orders) != 1 {
		t.Fatalf("expected 1 remaining order, got %d", len(rest.Orders))
	}
	if rest.NextCursor != "" {
		t.Fatalf("last page should not carry a cursor")
	}
}

func TestListByStoreRejectsBadCursor(t *testing.T) {
	repo := newStubOrderRepo()
	svc, _ := NewService(repo, allowAllGuard{})

	_, err := svc.ListByStore(context.Background(), uuid.New(), uuid.New(), ListFilter{
		Page: pagination.Params{Cursor: "not-base64!!"},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
