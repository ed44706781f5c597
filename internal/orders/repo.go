package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

// Store is the persistence surface other packages consume. WithTx rebinds
// the store to an open transaction.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByExternalReference(ctx context.Context, ref string) (*models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists the order with its frozen lines.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByExternalReference resolves the order the processor's return URL
// points at.
func (r *Repository) FindByExternalReference(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("external_reference = ?", ref).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStore pages through a store's orders, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ?", storeID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves the merchant-facing order status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdatePaymentStatus records the processor-facing payment state.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}
