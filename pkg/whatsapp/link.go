package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const baseURL = "https://wa.me"

// OrderLine is one item rendered into the message body.
type OrderLine struct {
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// OrderMessage holds everything rendered into the merchant-facing message.
type OrderMessage struct {
	StoreName      string
	OrderReference string
	CustomerName   string
	DeliveryMethod string
	AddressLine    string
	Notes          string
	Currency       string
	Lines          []OrderLine
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
}

// BuildLink returns a wa.me deep link that opens a chat with the store's
// number and the order summary prefilled. Phone must be digits only in
// international format; common separators are stripped.
func BuildLink(phone string, msg OrderMessage) (string, error) {
	normalized := normalizePhone(phone)
	if normalized == "" {
		return "", fmt.Errorf("whatsapp phone is required")
	}
	return fmt.Sprintf("%s/%s?text=%s", baseURL, normalized, url.QueryEscape(renderMessage(msg))), nil
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func renderMessage(msg OrderMessage) string {
	var b strings.Builder
	if msg.StoreName != "" {
		fmt.Fprintf(&b, "Nuevo pedido - %s\n", msg.StoreName)
	} else {
		b.WriteString("Nuevo pedido\n")
	}
	if msg.OrderReference != "" {
		fmt.Fprintf(&b, "Pedido: %s\n", msg.OrderReference)
	}
	if msg.CustomerName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", msg.CustomerName)
	}
	b.WriteString("\n")
	for _, line := range msg.Lines {
		fmt.Fprintf(&b, "%dx %s - %s %s\n", line.Quantity, line.Title, msg.Currency, line.Subtotal.StringFixed(2))
	}
	if msg.DeliveryFee.IsPositive() {
		fmt.Fprintf(&b, "Envio: %s %s\n", msg.Currency, msg.DeliveryFee.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: %s %s\n", msg.Currency, msg.Total.StringFixed(2))
	if msg.DeliveryMethod != "" {
		fmt.Fprintf(&b, "\nEntrega: %s\n", msg.DeliveryMethod)
	}
	if msg.AddressLine != "" {
		fmt.Fprintf(&b, "Direccion: %s\n", msg.AddressLine)
	}
	if msg.Notes != "" {
		fmt.Fprintf(&b, "Notas: %s\n", msg.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}
