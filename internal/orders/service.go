package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

type storeGuard interface {
	OwnsStore(ctx context.Context, merchantID, storeID uuid.UUID) error
}

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	Page   pagination.Params
}

// Service exposes the merchant-facing order operations.
type Service interface {
	Get(ctx context.Context, merchantID, orderID uuid.UUID) (*OrderDTO, error)
	ListByStore(ctx context.Context, merchantID, storeID uuid.UUID, filter ListFilter) (*OrderPage, error)
	UpdateStatus(ctx context.Context, merchantID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo  orderRepository
	guard storeGuard
}

// NewService builds an order service.
func NewService(repo orderRepository, guard storeGuard) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("store guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) Get(ctx context.Context, merchantID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) ListByStore(ctx context.Context, merchantID, storeID uuid.UUID, filter ListFilter) (*OrderPage, error) {
	if err := s.guard.OwnsStore(ctx, merchantID, storeID); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}
	cursor, err := pagination.ParseCursor(filter.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(filter.Page.Limit)
	rows, err := s.repo.ListByStore(ctx, storeID, filter.Status, cursor, pagination.LimitWithBuffer(filter.Page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &OrderPage{Orders: make([]OrderDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Orders = append(page.Orders, *FromModel(&rows[i]))
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UpdateStatus advances the fulfillment state machine. Skipping states or
// moving a terminal order is rejected as a conflict.
func (s *service) UpdateStatus(ctx context.Context, merchantID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.loadOwned(ctx, merchantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = next
	return FromModel(order), nil
}

func (s *service) loadOwned(ctx context.Context, merchantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := s.guard.OwnsStore(ctx, merchantID, order.StoreID); err != nil {
		return nil, err
	}
	return order, nil
}
