package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

// OrderDTO is the admin-facing shape of a placed order.
type OrderDTO struct {
	ID                uuid.UUID            `json:"id"`
	StoreID           uuid.UUID            `json:"store_id"`
	ExternalReference string               `json:"external_reference"`
	CustomerName      string               `json:"customer_name"`
	CustomerPhone     string               `json:"customer_phone"`
	CustomerEmail     *string              `json:"customer_email,omitempty"`
	DeliveryMethod    enums.DeliveryMethod `json:"delivery_method"`
	Address           *types.Address       `json:"address,omitempty"`
	PaymentMethod     enums.PaymentMethod  `json:"payment_method"`
	PaymentStatus     enums.PaymentStatus  `json:"payment_status"`
	Notes             *string              `json:"notes,omitempty"`
	Currency          enums.Currency       `json:"currency"`
	Subtotal          decimal.Decimal      `json:"subtotal"`
	DeliveryFee       decimal.Decimal      `json:"delivery_fee"`
	Total             decimal.Decimal      `json:"total"`
	Status            enums.OrderStatus    `json:"status"`
	Items             []OrderItemDTO       `json:"items"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps a persisted order into its DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:                m.ID,
		StoreID:           m.StoreID,
		ExternalReference: m.ExternalReference,
		CustomerName:      m.CustomerName,
		CustomerPhone:     m.CustomerPhone,
		CustomerEmail:     m.CustomerEmail,
		DeliveryMethod:    m.DeliveryMethod,
		PaymentMethod:     m.PaymentMethod,
		PaymentStatus:     m.PaymentStatus,
		Notes:             m.Notes,
		Currency:          m.Currency,
		Subtotal:          m.Subtotal,
		DeliveryFee:       m.DeliveryFee,
		Total:             m.Total,
		Status:            m.Status,
		Items:             make([]OrderItemDTO, 0, len(m.Items)),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Address != nil {
		cpy := *m.Address
		dto.Address = &cpy
	}
	for i := range m.Items {
		item := &m.Items[i]
		dto.Items = append(dto.Items, OrderItemDTO{
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
