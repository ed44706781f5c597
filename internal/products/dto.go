package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
)

// ProductDTO is the API shape for one listing.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	StoreID        uuid.UUID        `json:"store_id"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	ImageURL       *string          `json:"image_url,omitempty"`
	IsActive       bool             `json:"is_active"`
	Variants       []VariantDTO     `json:"variants,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// VariantDTO is the API shape for one purchasable variation.
type VariantDTO struct {
	ID    uuid.UUID        `json:"id"`
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// VariantInput captures variant fields for create and update.
type VariantInput struct {
	Name  string
	Price *decimal.Decimal
}

// ProductPage is one page of listings with the cursor to the next.
type ProductPage struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted product into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:             m.ID,
		StoreID:        m.StoreID,
		CategoryID:     m.CategoryID,
		Title:          m.Title,
		Description:    m.Description,
		Price:          m.Price,
		CompareAtPrice: m.CompareAtPrice,
		ImageURL:       m.ImageURL,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for i := range m.Variants {
		v := &m.Variants[i]
		dto.Variants = append(dto.Variants, VariantDTO{ID: v.ID, Name: v.Name, Price: v.Price})
	}
	return dto
}
