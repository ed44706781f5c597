package mercadopago

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PreferenceItem is one purchasable line in a hosted-checkout preference.
type PreferenceItem struct {
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

// PreferenceCreateParams builds the hosted-checkout session request.
type PreferenceCreateParams struct {
	ExternalReference string
	Items             []PreferenceItem
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
}

func (p PreferenceCreateParams) toRequest() map[string]any {
	req := map[string]any{
		"external_reference": p.ExternalReference,
		"items":              p.Items,
		"back_urls": map[string]string{
			"success": p.SuccessURL,
			"failure": p.FailureURL,
			"pending": p.PendingURL,
		},
		"auto_return": "approved",
	}
	if trimmed := strings.TrimSpace(p.NotificationURL); trimmed != "" {
		req["notification_url"] = trimmed
	}
	return req
}

// PaymentCreateParams builds a direct card charge from a card token
// produced by the processor's browser SDK. The raw card number never
// touches this service.
type PaymentCreateParams struct {
	CardToken         string
	Amount            decimal.Decimal
	CurrencyID        string
	Installments      int
	PaymentMethodID   string
	ExternalReference string
	PayerEmail        string
	Description       string
}

func (p PaymentCreateParams) toRequest() map[string]any {
	installments := p.Installments
	if installments <= 0 {
		installments = 1
	}
	req := map[string]any{
		"token":              p.CardToken,
		"transaction_amount": p.Amount,
		"installments":       installments,
		"external_reference": p.ExternalReference,
		"payer": map[string]string{
			"email": p.PayerEmail,
		},
	}
	if trimmed := strings.TrimSpace(p.PaymentMethodID); trimmed != "" {
		req["payment_method_id"] = trimmed
	}
	if trimmed := strings.TrimSpace(p.Description); trimmed != "" {
		req["description"] = trimmed
	}
	return req
}
