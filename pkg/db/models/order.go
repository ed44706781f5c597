package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// Order is the persisted result of checkout. ExternalReference is the
// correlation key echoed back by the card processor on the return URL.
type Order struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	StoreID           uuid.UUID            `gorm:"column:store_id;type:uuid;not null;index"`
	CartID            *uuid.UUID           `gorm:"column:cart_id;type:uuid"`
	SessionID         string               `gorm:"column:session_id;not null"`
	ExternalReference string               `gorm:"column:external_reference;uniqueIndex;not null"`
	CustomerName      string               `gorm:"column:customer_name;not null"`
	CustomerPhone     string               `gorm:"column:customer_phone;not null"`
	CustomerEmail     *string              `gorm:"column:customer_email"`
	DeliveryMethod    enums.DeliveryMethod `gorm:"column:delivery_method;not null"`
	Address           *types.Address       `gorm:"column:address;type:jsonb;serializer:json"`
	PaymentMethod     enums.PaymentMethod  `gorm:"column:payment_method;not null"`
	PaymentStatus     enums.PaymentStatus  `gorm:"column:payment_status;not null;default:'pending'"`
	Notes             *string              `gorm:"column:notes"`
	Currency          enums.Currency       `gorm:"column:currency;not null"`
	Subtotal          decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee       decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Status            enums.OrderStatus    `gorm:"column:status;not null;default:'placed'"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem freezes a cart line at checkout time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Title     string          `gorm:"column:title;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
