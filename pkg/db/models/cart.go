package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// Cart is the session-scoped guest cart. Created lazily on the first add,
// ordered on successful checkout, abandoned when valid_until passes.
type Cart struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	StoreID        uuid.UUID            `gorm:"column:store_id;type:uuid;not null;index:idx_carts_store_session"`
	SessionID      string               `gorm:"column:session_id;not null;index:idx_carts_store_session"`
	Status         enums.CartStatus     `gorm:"column:status;not null;default:'active'"`
	Currency       enums.Currency       `gorm:"column:currency;not null;default:'ARS'"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;not null;default:'pickup'"`
	Subtotal       decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DeliveryFee    decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Theme          *types.Theme         `gorm:"column:theme;type:jsonb;serializer:json"`
	ValidUntil     time.Time            `gorm:"column:valid_until;not null"`
	Items          []CartItem           `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the cart passed its validity window.
func (c *Cart) Expired(now time.Time) bool {
	return !c.ValidUntil.IsZero() && now.After(c.ValidUntil)
}
