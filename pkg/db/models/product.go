package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a storefront listing.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	StoreID        uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	CategoryID     *uuid.UUID       `gorm:"column:category_id;type:uuid;index"`
	Title          string           `gorm:"column:title;not null"`
	Description    *string          `gorm:"column:description"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	ImageURL       *string          `gorm:"column:image_url"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductVariant is an optional purchasable variation (size, flavor).
// A nil Price inherits the parent product price.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string           `gorm:"column:name;not null"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// EffectivePrice resolves the unit price for a product/variant pair.
func (p *Product) EffectivePrice(variant *ProductVariant) decimal.Decimal {
	if variant != nil && variant.Price != nil {
		return *variant.Price
	}
	return p.Price
}
