package enums

import "fmt"

// PaymentMethod selects the checkout fulfillment path.
type PaymentMethod string

const (
	// PaymentMethodCash submits the order and optionally hands off to WhatsApp.
	PaymentMethodCash PaymentMethod = "cash"
	// PaymentMethodCardRedirect sends the customer to the processor's hosted page.
	PaymentMethodCardRedirect PaymentMethod = "card_redirect"
	// PaymentMethodCardDirect charges a previously tokenized card synchronously.
	PaymentMethodCardDirect PaymentMethod = "card_direct"
)

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCardRedirect, PaymentMethodCardDirect:
		return true
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	if method := PaymentMethod(value); method.IsValid() {
		return method, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
