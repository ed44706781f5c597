package types

import "strings"

// Address captures a delivery destination. Stored as jsonb.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// IsEmpty reports whether no usable destination was provided.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == ""
}

// Summary renders the address as a single human-readable line.
func (a Address) Summary() string {
	fields := []string{a.Line1}
	if a.Line2 != nil {
		fields = append(fields, *a.Line2)
	}
	fields = append(fields, a.City, a.State, a.PostalCode)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
