package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

// Repository handles product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists the product and its variants.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads a product with variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore pages through a store's products, newest first. Pass
// activeOnly for the public storefront view.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Variants").
		Where("store_id = ?", storeID)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update saves the product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product and its variants.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Variants").Delete(&models.Product{ID: id}).Error
}

// ReplaceVariants swaps the variant set for a product.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].ProductID = productID
		}
		if len(variants) == 0 {
			return nil
		}
		return tx.Create(&variants).Error
	})
}

// FindByIDWithTx loads a product inside the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var product models.Product
	if err := tx.Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
