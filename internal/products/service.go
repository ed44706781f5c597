package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, categoryID *uuid.UUID, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error
}

type storeGuard interface {
	OwnsStore(ctx context.Context, merchantID, storeID uuid.UUID) error
}

// ListFilter narrows product listings.
type ListFilter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	Page       pagination.Params
}

// CreateProductInput captures the fields for a new listing.
type CreateProductInput struct {
	CategoryID     *uuid.UUID
	Title          string
	Description    *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	ImageURL       *string
	Variants       []VariantInput
}

// UpdateProductInput captures the allowed listing fields for mutation.
type UpdateProductInput struct {
	CategoryID     *uuid.UUID
	Title          *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	ImageURL       *string
	IsActive       *bool
	Variants       *[]VariantInput
}

// Service exposes product operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*ProductPage, error)
	Create(ctx context.Context, merchantID, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, merchantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, merchantID, productID uuid.UUID) error
}

type service struct {
	repo  productRepository
	guard storeGuard
}

// NewService builds a product service.
func NewService(repo productRepository, guard storeGuard) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("store guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*ProductPage, error) {
	cursor, err := pagination.ParseCursor(filter.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filter.Page.Limit)

	rows, err := s.repo.ListByStore(ctx, storeID, filter.CategoryID, filter.ActiveOnly, cursor, pagination.LimitWithBuffer(filter.Page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := &ProductPage{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		page.Products = append(page.Products, *FromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *service) Create(ctx context.Context, merchantID, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := s.guard.OwnsStore(ctx, merchantID, storeID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	variants, err := buildVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:        storeID,
		CategoryID:     input.CategoryID,
		Title:          title,
		Description:    input.Description,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		ImageURL:       input.ImageURL,
		IsActive:       true,
		Variants:       variants,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, merchantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, merchantID, productID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		product.Title = title
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.CompareAtPrice != nil {
		product.CompareAtPrice = input.CompareAtPrice
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if input.Variants != nil {
		variants, err := buildVariants(*input.Variants)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceVariants(ctx, product.ID, variants); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace variants")
		}
		product.Variants = variants
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, merchantID, productID uuid.UUID) error {
	product, err := s.loadOwned(ctx, merchantID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, merchantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.guard.OwnsStore(ctx, merchantID, product.StoreID); err != nil {
		return nil, err
	}
	return product, nil
}

func buildVariants(inputs []VariantInput) ([]models.ProductVariant, error) {
	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
		}
		if in.Price != nil && !in.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive")
		}
		variants = append(variants, models.ProductVariant{Name: name, Price: in.Price})
	}
	return variants, nil
}
