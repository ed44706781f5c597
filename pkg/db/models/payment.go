package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/enums"
)

// Payment records each processor interaction for an order. ProviderPaymentID
// is nil until the processor assigns one (hosted redirect flow).
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Provider          string              `gorm:"column:provider;not null;default:'mercadopago'"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id;index"`
	Status            enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	StatusDetail      *string             `gorm:"column:status_detail"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          enums.Currency      `gorm:"column:currency;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
