package enums

import "fmt"

// DeliveryMethod selects how the customer receives the order.
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	switch d {
	case DeliveryMethodPickup, DeliveryMethodDelivery:
		return true
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	if method := DeliveryMethod(value); method.IsValid() {
		return method, nil
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
