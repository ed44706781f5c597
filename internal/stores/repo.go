package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where(query, arg).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug loads a store by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindByOwner returns all stores owned by the provided merchant, oldest
// first.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	var rows []models.Store
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Save(store).Error
}

// FindByIDWithTx loads a store using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var store models.Store
	if err := tx.First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
