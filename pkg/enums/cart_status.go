package enums

import "fmt"

// CartStatus tracks whether a cart is still open, converted into an order,
// or expired without one.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusOrdered   CartStatus = "ordered"
	CartStatusAbandoned CartStatus = "abandoned"
)

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	switch c {
	case CartStatusActive, CartStatusOrdered, CartStatusAbandoned:
		return true
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	if status := CartStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
