package enums

import "fmt"

// PaymentStatus is the canonical payment lifecycle as reported by the card
// processor. Redirect query parameters and provider lookups both normalize
// into this one type.
type PaymentStatus string

const (
	PaymentStatusApproved    PaymentStatus = "approved"
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusInProcess   PaymentStatus = "in_process"
	PaymentStatusRejected    PaymentStatus = "rejected"
	PaymentStatusCancelled   PaymentStatus = "cancelled"
	PaymentStatusRefunded    PaymentStatus = "refunded"
	PaymentStatusChargedBack PaymentStatus = "charged_back"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusApproved, PaymentStatusPending, PaymentStatusInProcess,
		PaymentStatusRejected, PaymentStatusCancelled, PaymentStatusRefunded,
		PaymentStatusChargedBack:
		return true
	}
	return false
}

// IsFinal reports whether the processor will not change this status again.
func (p PaymentStatus) IsFinal() bool {
	switch p {
	case PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled,
		PaymentStatusRefunded, PaymentStatusChargedBack:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	if status := PaymentStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
