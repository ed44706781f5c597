package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildLink(t *testing.T) {
	link, err := BuildLink("+54 9 11 2345-6789", OrderMessage{
		StoreName:      "Tienda Luna",
		OrderReference: "ORD-123",
		CustomerName:   "Ana",
		Currency:       "ARS",
		Lines: []OrderLine{
			{Title: "Alfajor", Quantity: 2, UnitPrice: decimal.NewFromInt(500), Subtotal: decimal.NewFromInt(1000)},
		},
		DeliveryFee: decimal.NewFromInt(300),
		Total:       decimal.NewFromInt(1300),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/5491123456789?text=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link is not a valid url: %v", err)
	}
	text := parsed.Query().Get("text")
	for _, want := range []string{"Tienda Luna", "ORD-123", "2x Alfajor - ARS 1000.00", "Envio: ARS 300.00", "Total: ARS 1300.00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q in %q", want, text)
		}
	}
}

func TestBuildLinkRequiresPhone(t *testing.T) {
	if _, err := BuildLink("  ", OrderMessage{}); err == nil {
		t.Fatalf("expected error for empty phone")
	}
}

func TestBuildLinkSkipsZeroDeliveryFee(t *testing.T) {
	link, err := BuildLink("5491100000000", OrderMessage{
		Currency: "ARS",
		Total:    decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, _ := url.Parse(link)
	if strings.Contains(parsed.Query().Get("text"), "Envio:") {
		t.Fatalf("zero delivery fee should not render")
	}
}
