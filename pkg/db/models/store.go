package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// Store is the tenant model. The slug scopes every public storefront route.
type Store struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Slug          string          `gorm:"column:slug;uniqueIndex;not null"`
	Name          string          `gorm:"column:name;not null"`
	Description   *string         `gorm:"column:description"`
	WhatsAppPhone *string         `gorm:"column:whatsapp_phone"`
	Currency      enums.Currency  `gorm:"column:currency;not null;default:'ARS'"`
	DeliveryFee   decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	Theme         *types.Theme    `gorm:"column:theme;type:jsonb;serializer:json"`
	Address       *types.Address  `gorm:"column:address;type:jsonb;serializer:json"`
	OwnerID       uuid.UUID       `gorm:"column:owner_id;type:uuid;not null"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id client-side so the sqlite test driver works
// the same as Postgres.
func (s *Store) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
