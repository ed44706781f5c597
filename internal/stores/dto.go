package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// StoreDTO exposes safe tenant data in API responses. It doubles as the
// cached storefront snapshot served to buyers.
type StoreDTO struct {
	ID            uuid.UUID       `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	WhatsAppPhone *string         `json:"whatsapp_phone,omitempty"`
	Currency      enums.Currency  `json:"currency"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Theme         *types.Theme    `json:"theme,omitempty"`
	Address       *types.Address  `json:"address,omitempty"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateStoreDTO holds creation-time data for a new store.
type CreateStoreDTO struct {
	Slug          string
	Name          string
	Description   *string
	WhatsAppPhone *string
	Currency      enums.Currency
	DeliveryFee   decimal.Decimal
	Theme         *types.Theme
	Address       *types.Address
	OwnerID       uuid.UUID
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}

	dto := &StoreDTO{
		ID:            m.ID,
		Slug:          m.Slug,
		Name:          m.Name,
		Description:   m.Description,
		WhatsAppPhone: m.WhatsAppPhone,
		Currency:      m.Currency,
		DeliveryFee:   m.DeliveryFee,
		OwnerID:       m.OwnerID,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}

	if m.Theme != nil {
		cpy := *m.Theme
		dto.Theme = &cpy
	}
	if m.Address != nil {
		cpy := *m.Address
		dto.Address = &cpy
	}

	return dto
}

// ToModel prepares the GORM model from creation DTO, supplying defaults.
func (c CreateStoreDTO) ToModel() *models.Store {
	model := &models.Store{
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Currency:    c.Currency,
		DeliveryFee: c.DeliveryFee,
		OwnerID:     c.OwnerID,
		IsActive:    true,
	}

	if model.Currency == "" {
		model.Currency = enums.CurrencyARS
	}
	if c.WhatsAppPhone != nil {
		cpy := *c.WhatsAppPhone
		model.WhatsAppPhone = &cpy
	}
	if c.Theme != nil {
		cpy := *c.Theme
		model.Theme = &cpy
	}
	if c.Address != nil {
		cpy := *c.Address
		model.Address = &cpy
	}

	return model
}
