package categories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new category row.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

// FindByID loads a category by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListByStore returns the store's categories ordered by position.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("position ASC, created_at ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Update saves the provided category.
func (r *Repository) Update(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Save(category).Error
}

// Delete removes the category. Products keep their rows with a nulled
// category reference.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}
