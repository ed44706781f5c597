package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
)

// Store is the persistence surface other packages consume. WithTx rebinds
// the store to an open transaction.
type Store interface {
	WithTx(tx *gorm.DB) Store
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByProviderPaymentID(ctx context.Context, providerID string) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

// Repository handles payment-row persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment operations.
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

// Create inserts a payment row.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment == nil {
		return nil, fmt.Errorf("payment is required")
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// Update saves the payment row.
func (r *Repository) Update(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment == nil {
		return nil, fmt.Errorf("payment is required")
	}
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// FindByProviderPaymentID resolves the payment row the processor assigned
// the given identifier to.
func (r *Repository) FindByProviderPaymentID(ctx context.Context, providerID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("provider_payment_id = ?", providerID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByOrder returns every processor interaction for an order, oldest
// first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
