package merchants

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
)

// Repository handles merchant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to merchant operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a merchant row.
func (r *Repository) Create(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error) {
	if merchant == nil {
		return nil, fmt.Errorf("merchant is required")
	}
	if err := r.db.WithContext(ctx).Create(merchant).Error; err != nil {
		return nil, err
	}
	return merchant, nil
}

// FindByEmail resolves a merchant by normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// FindByID loads one merchant.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}
