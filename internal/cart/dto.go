package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// CartDTO is the API shape of a session cart. An empty cart has a nil ID
// and zero totals; the client never sees a distinction between "no cart
// row yet" and "cart expired".
type CartDTO struct {
	ID             *uuid.UUID           `json:"id,omitempty"`
	StoreID        uuid.UUID            `json:"store_id"`
	SessionID      string               `json:"session_id"`
	Currency       enums.Currency       `json:"currency"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DeliveryFee    decimal.Decimal      `json:"delivery_fee"`
	Total          decimal.Decimal      `json:"total"`
	Theme          *types.Theme         `json:"theme,omitempty"`
	Items          []CartItemDTO        `json:"items"`
	ValidUntil     *time.Time           `json:"valid_until,omitempty"`
}

// CartItemDTO is one line in the cart.
type CartItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// FromModel maps a persisted cart into its DTO.
func FromModel(m *models.Cart) *CartDTO {
	if m == nil {
		return nil
	}
	dto := &CartDTO{
		ID:             &m.ID,
		StoreID:        m.StoreID,
		SessionID:      m.SessionID,
		Currency:       m.Currency,
		DeliveryMethod: m.DeliveryMethod,
		Subtotal:       m.Subtotal,
		DeliveryFee:    m.DeliveryFee,
		Total:          m.Total,
		Items:          make([]CartItemDTO, 0, len(m.Items)),
	}
	if m.Theme != nil {
		cpy := *m.Theme
		dto.Theme = &cpy
	}
	if !m.ValidUntil.IsZero() {
		until := m.ValidUntil
		dto.ValidUntil = &until
	}
	for i := range m.Items {
		item := &m.Items[i]
		dto.Items = append(dto.Items, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		})
	}
	return dto
}

// EmptyCart is the DTO served when the session has no active cart.
func EmptyCart(storeID uuid.UUID, sessionID string, currency enums.Currency) *CartDTO {
	return &CartDTO{
		StoreID:        storeID,
		SessionID:      sessionID,
		Currency:       currency,
		DeliveryMethod: enums.DeliveryMethodPickup,
		Subtotal:       decimal.Zero,
		DeliveryFee:    decimal.Zero,
		Total:          decimal.Zero,
		Items:          []CartItemDTO{},
	}
}
