package enums

import "fmt"

// Currency scopes every price on a store.
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
	CurrencyMXN Currency = "MXN"
	CurrencyCOP Currency = "COP"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyARS, CurrencyUSD, CurrencyMXN, CurrencyCOP:
		return true
	}
	return false
}

// ParseCurrency converts raw input into a Currency.
func ParseCurrency(value string) (Currency, error) {
	if currency := Currency(value); currency.IsValid() {
		return currency, nil
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
