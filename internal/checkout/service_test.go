package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/internal/cart"
	"github.com/dmarquezg/storefront-backend/internal/orders"
	"github.com/dmarquezg/storefront-backend/internal/payments"
	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/mercadopago"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

type stubCartRepo struct {
	cart     *models.Cart
	statuses map[uuid.UUID]enums.CartStatus
}

func (r *stubCartRepo) WithTx(*gorm.DB) cart.CartRepository { return r }

func (r *stubCartRepo) FindActive(context.Context, uuid.UUID, string) (*models.Cart, error) {
	if r.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.cart, nil
}

func (r *stubCartRepo) FindByID(context.Context, uuid.UUID) (*models.Cart, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCartRepo) Create(_ context.Context, c *models.Cart) (*models.Cart, error) {
	return c, nil
}

func (r *stubCartRepo) Update(_ context.Context, c *models.Cart) (*models.Cart, error) {
	return c, nil
}

func (r *stubCartRepo) ReplaceItems(context.Context, uuid.UUID, []models.CartItem) error {
	return nil
}

func (r *stubCartRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.CartStatus) error {
	if r.statuses == nil {
		r.statuses = make(map[uuid.UUID]enums.CartStatus)
	}
	r.statuses[id] = status
	return nil
}

type stubOrderStore struct {
	created []*models.Order
}

func (s *stubOrderStore) WithTx(*gorm.DB) orders.Store { return s }

func (s *stubOrderStore) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubOrderStore) FindByID(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) FindByExternalReference(context.Context, string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) ListByStore(context.Context, uuid.UUID, *enums.OrderStatus, *pagination.Cursor, int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderStore) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) error {
	return nil
}

func (s *stubOrderStore) UpdatePaymentStatus(context.Context, uuid.UUID, enums.PaymentStatus) error {
	return nil
}

type stubPaymentStore struct {
	created []*models.Payment
}

func (s *stubPaymentStore) WithTx(*gorm.DB) payments.Store { return s }

func (s *stubPaymentStore) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	p.ID = uuid.New()
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubPaymentStore) Update(_ context.Context, p *models.Payment) (*models.Payment, error) {
	return p, nil
}

func (s *stubPaymentStore) FindByProviderPaymentID(context.Context, string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentStore) ListByOrder(context.Context, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

type stubStoreLoader struct {
	store *models.Store
}

func (l *stubStoreLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	if l.store != nil && l.store.ID == id {
		return l.store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type stubProvider struct {
	preference      *mercadopago.Preference
	preferenceErr   error
	preferenceCalls int
	payment         *mercadopago.Payment
	paymentErr      error
	paymentCalls    int
	lastPreference  mercadopago.PreferenceCreateParams
	lastPayment     mercadopago.PaymentCreateParams
}

func (p *stubProvider) CreatePreference(_ context.Context, params mercadopago.PreferenceCreateParams) (*mercadopago.Preference, error) {
	p.preferenceCalls++
	p.lastPreference = params
	return p.preference, p.preferenceErr
}

func (p *stubProvider) CreatePayment(_ context.Context, params mercadopago.PaymentCreateParams) (*mercadopago.Payment, error) {
	p.paymentCalls++
	p.lastPayment = params
	return p.payment, p.paymentErr
}

func (p *stubProvider) CheckoutURL(pref *mercadopago.Preference) string {
	if pref == nil {
		return ""
	}
	return pref.SandboxInitPoint
}

type fixture struct {
	svc       Service
	carts     *stubCartRepo
	orders    *stubOrderStore
	payments  *stubPaymentStore
	provider  *stubProvider
	broadcast *cart.MemoryBroadcaster
	store     *models.Store
	session   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	phone := "+54 9 11 2233-4455"
	store := &models.Store{
		ID:            uuid.New(),
		Slug:          "tienda-luna",
		Name:          "Tienda Luna",
		WhatsAppPhone: &phone,
		Currency:      enums.CurrencyARS,
		DeliveryFee:   decimal.NewFromInt(500),
		IsActive:      true,
	}
	f := &fixture{
		carts:     &stubCartRepo{},
		orders:    &stubOrderStore{},
		payments:  &stubPaymentStore{},
		provider:  &stubProvider{},
		broadcast: cart.NewMemoryBroadcaster(),
		store:     store,
		session:   uuid.NewString(),
	}
	svc, err := NewService(f.carts, f.orders, f.payments, &stubStoreLoader{store: store}, passthroughTx{}, f.provider, f.broadcast, "https://shop.example/payment/return")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) seedCart() *models.Cart {
	c := &models.Cart{
		ID:         uuid.New(),
		StoreID:    f.store.ID,
		SessionID:  f.session,
		Status:     enums.CartStatusActive,
		Currency:   enums.CurrencyARS,
		ValidUntil: time.Now().Add(time.Hour),
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), Title: "Mate", UnitPrice: decimal.NewFromInt(1000), Quantity: 2, Subtotal: decimal.NewFromInt(2000)},
			{ID: uuid.New(), ProductID: uuid.New(), Title: "Bombilla", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, Subtotal: decimal.NewFromInt(5000)},
		},
	}
	f.carts.cart = c
	return c
}

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		CustomerName:   "Ana Gomez",
		CustomerPhone:  "+5491122334455",
		DeliveryMethod: enums.DeliveryMethodPickup,
		PaymentMethod:  enums.PaymentMethodCash,
	}
}

func TestPlaceOrderRejectsEmptyCartBeforeProviderCall(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCardRedirect

	_, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.provider.preferenceCalls != 0 {
		t.Fatalf("empty cart must not reach the provider")
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("no order should be created")
	}
}

func TestPlaceOrderValidatesForm(t *testing.T) {
	f := newFixture(t)
	f.seedCart()

	cases := []struct {
		name   string
		mutate func(*PlaceOrderInput)
	}{
		{"missing name", func(in *PlaceOrderInput) { in.CustomerName = "  " }},
		{"missing phone", func(in *PlaceOrderInput) { in.CustomerPhone = "" }},
		{"bad email", func(in *PlaceOrderInput) { email := "not-an-email"; in.CustomerEmail = &email }},
		{"delivery without address", func(in *PlaceOrderInput) { in.DeliveryMethod = enums.DeliveryMethodDelivery }},
		{"card token missing", func(in *PlaceOrderInput) { in.PaymentMethod = enums.PaymentMethodCardDirect }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("invalid forms must not create orders")
	}
}

func TestPlaceOrderCashBuildsWhatsAppLink(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedCart()

	res, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, validInput())
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if res.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("cash orders start pending, got %s", res.PaymentStatus)
	}
	if !strings.HasPrefix(res.WhatsAppLink, "https://wa.me/5491122334455?text=") {
		t.Fatalf("unexpected whatsapp link %q", res.WhatsAppLink)
	}
	if f.carts.statuses[seeded.ID] != enums.CartStatusOrdered {
		t.Fatalf("cart should be marked ordered")
	}
	if len(f.orders.created) != 1 {
		t.Fatalf("expected one order, got %d", len(f.orders.created))
	}
	order := f.orders.created[0]
	if !order.Total.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("expected total 7000, got %s", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("order should freeze both cart lines")
	}
}

func TestPlaceOrderCashWithoutStorePhoneSkipsLink(t *testing.T) {
	f := newFixture(t)
	f.store.WhatsAppPhone = nil
	f.seedCart()

	res, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, validInput())
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if res.WhatsAppLink != "" {
		t.Fatalf("no store phone means no link, got %q", res.WhatsAppLink)
	}
}

func TestPlaceOrderDeliveryAddsFeeAndRequiresAddress(t *testing.T) {
	f := newFixture(t)
	f.seedCart()

	input := validInput()
	input.DeliveryMethod = enums.DeliveryMethodDelivery
	input.Address = &types.Address{Line1: "Av. Siempreviva 742", City: "Springfield"}

	res, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	order := f.orders.created[0]
	if !order.DeliveryFee.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected delivery fee 500, got %s", order.DeliveryFee)
	}
	if !order.Total.Equal(decimal.NewFromInt(7500)) {
		t.Fatalf("expected total 7500, got %s", order.Total)
	}
	if order.Address == nil || order.Address.Line1 != "Av. Siempreviva 742" {
		t.Fatalf("address should be frozen on the order")
	}
	if res.Order == nil || res.Order.ID != order.ID {
		t.Fatalf("result should carry the placed order")
	}
}

func TestPlaceOrderRedirectReturnsCheckoutURL(t *testing.T) {
	f := newFixture(t)
	f.seedCart()
	f.provider.preference = &mercadopago.Preference{
		ID:               "pref-1",
		InitPoint:        "https://mp.example/init",
		SandboxInitPoint: "https://sandbox.mp.example/init",
	}

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCardRedirect

	res, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if res.RedirectURL != "https://sandbox.mp.example/init" {
		t.Fatalf("unexpected redirect %q", res.RedirectURL)
	}
	if f.provider.preferenceCalls != 1 {
		t.Fatalf("expected one preference call")
	}
	params := f.provider.lastPreference
	if params.ExternalReference == "" || params.ExternalReference != f.orders.created[0].ExternalReference {
		t.Fatalf("preference must carry the order's external reference")
	}
	if params.SuccessURL != "https://shop.example/payment/return" {
		t.Fatalf("unexpected back url %q", params.SuccessURL)
	}
	if len(params.Items) != 2 {
		t.Fatalf("expected both lines in the preference, got %d", len(params.Items))
	}
}

func TestPlaceOrderRedirectProviderFailureLeavesCartActive(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedCart()
	f.provider.preferenceErr = pkgerrors.New(pkgerrors.CodeDependency, "processor unavailable")

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCardRedirect

	_, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(f.orders.created) != 0 {
		t.Fatalf("failed checkout must not create an order")
	}
	if _, moved := f.carts.statuses[seeded.ID]; moved {
		t.Fatalf("cart must stay active for resubmission")
	}
}

func TestPlaceOrderDirectChargeApproved(t *testing.T) {
	f := newFixture(t)
	f.seedCart()
	f.provider.payment = &mercadopago.Payment{
		ID:           987,
		Status:       "approved",
		StatusDetail: "accredited",
	}

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCardDirect
	input.CardToken = "tok_123"
	email := "ana@example.com"
	input.CustomerEmail = &email

	res, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if res.PaymentStatus != enums.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", res.PaymentStatus)
	}
	if f.provider.lastPayment.CardToken != "tok_123" || f.provider.lastPayment.PayerEmail != email {
		t.Fatalf("charge params not forwarded: %+v", f.provider.lastPayment)
	}
	if len(f.payments.created) != 1 {
		t.Fatalf("expected a payment row")
	}
	row := f.payments.created[0]
	if row.ProviderPaymentID == nil || *row.ProviderPaymentID != "987" {
		t.Fatalf("payment row should carry the provider id")
	}
	if f.orders.created[0].PaymentStatus != enums.PaymentStatusApproved {
		t.Fatalf("order payment status should be approved")
	}
}

func TestPlaceOrderDirectChargeRejected(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedCart()
	f.provider.payment = &mercadopago.Payment{ID: 988, Status: "rejected", StatusDetail: "cc_rejected_other_reason"}

	input := validInput()
	input.PaymentMethod = enums.PaymentMethodCardDirect
	input.CardToken = "tok_bad"

	_, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePaymentRejected {
		t.Fatalf("expected payment_rejected, got %v", err)
	}
	if len(f.orders.created) != 0 || len(f.payments.created) != 0 {
		t.Fatalf("rejected charge must not persist anything")
	}
	if _, moved := f.carts.statuses[seeded.ID]; moved {
		t.Fatalf("cart must stay active after a rejection")
	}
}

func TestPlaceOrderExpiredCartRejected(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedCart()
	seeded.ValidUntil = time.Now().Add(-time.Minute)

	_, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, validInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for expired cart, got %v", err)
	}
}

func TestPlaceOrderBroadcastsCartChange(t *testing.T) {
	f := newFixture(t)
	f.seedCart()

	if _, err := f.svc.PlaceOrder(context.Background(), f.store.ID, f.session, validInput()); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	events := f.broadcast.Events()
	if len(events) != 1 {
		t.Fatalf("expected one broadcast event, got %d", len(events))
	}
	if events[0].SessionID != f.session {
		t.Fatalf("event should target the checkout session")
	}
}
