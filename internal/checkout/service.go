package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
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
	"github.com/dmarquezg/storefront-backend/pkg/types"
	"github.com/dmarquezg/storefront-backend/pkg/whatsapp"
)

var validate = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type paymentProvider interface {
	CreatePreference(ctx context.Context, params mercadopago.PreferenceCreateParams) (*mercadopago.Preference, error)
	CreatePayment(ctx context.Context, params mercadopago.PaymentCreateParams) (*mercadopago.Payment, error)
	CheckoutURL(pref *mercadopago.Preference) string
}

// PlaceOrderInput is the checkout form. CardToken is required only for the
// direct card path; Address only when delivery is selected.
type PlaceOrderInput struct {
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
	DeliveryMethod enums.DeliveryMethod
	Address        *types.Address
	PaymentMethod  enums.PaymentMethod
	Notes          *string
	CardToken      string
}

// Result is what the storefront needs to finish the flow: the placed
// order plus the follow-up action for the chosen payment path.
type Result struct {
	Order         *orders.OrderDTO    `json:"order"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	WhatsAppLink  string              `json:"whatsapp_link,omitempty"`
	RedirectURL   string              `json:"redirect_url,omitempty"`
}

// Service orchestrates checkout across the three payment paths.
type Service interface {
	PlaceOrder(ctx context.Context, storeID uuid.UUID, sessionID string, input PlaceOrderInput) (*Result, error)
}

type service struct {
	carts       cart.CartRepository
	orders      orders.Store
	payments    payments.Store
	stores      storeLoader
	tx          txRunner
	provider    paymentProvider
	broadcaster cart.Broadcaster
	returnURL   string
	now         func() time.Time
}

// NewService builds the checkout orchestrator. returnURL is where the
// processor sends the customer back after hosted checkout.
func NewService(carts cart.CartRepository, orderStore orders.Store, paymentStore payments.Store, stores storeLoader, tx txRunner, provider paymentProvider, broadcaster cart.Broadcaster, returnURL string) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderStore == nil {
		return nil, fmt.Errorf("order store required")
	}
	if paymentStore == nil {
		return nil, fmt.Errorf("payment store required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if broadcaster == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	if strings.TrimSpace(returnURL) == "" {
		return nil, fmt.Errorf("return url required")
	}
	return &service{
		carts:       carts,
		orders:      orderStore,
		payments:    paymentStore,
		stores:      stores,
		tx:          tx,
		provider:    provider,
		broadcaster: broadcaster,
		returnURL:   returnURL,
		now:         time.Now,
	}, nil
}

// PlaceOrder validates the form and the cart, then runs the chosen payment
// path. Any failure before the final commit leaves the cart active so the
// customer can correct and resubmit.
func (s *service) PlaceOrder(ctx context.Context, storeID uuid.UUID, sessionID string, input PlaceOrderInput) (*Result, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	activeCart, err := s.loadCart(ctx, storeID, sessionID)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(store, activeCart, input)

	var redirect string
	var charge *chargeResult
	switch input.PaymentMethod {
	case enums.PaymentMethodCash:
		order.PaymentStatus = enums.PaymentStatusPending

	case enums.PaymentMethodCardRedirect:
		pref, err := s.provider.CreatePreference(ctx, s.preferenceParams(order))
		if err != nil {
			return nil, err
		}
		redirect = s.provider.CheckoutURL(pref)
		order.PaymentStatus = enums.PaymentStatusPending

	case enums.PaymentMethodCardDirect:
		charge, err = s.chargeCard(ctx, order, input)
		if err != nil {
			return nil, err
		}
		order.PaymentStatus = charge.status
	}

	if err := s.commit(ctx, order, activeCart, charge); err != nil {
		return nil, err
	}

	var link string

	if input.PaymentMethod == enums.PaymentMethodCash && store.WhatsAppPhone != nil {
		link = s.whatsappLink(store, order)
	}

	_ = s.broadcaster.CartChanged(ctx, sessionID, storeID, activeCart.ID)

	return &Result{
		Order:         orders.FromModel(order),
		PaymentStatus: order.PaymentStatus,
		WhatsAppLink:  link,
		RedirectURL:   redirect,
	}, nil
}

type chargeResult struct {
	providerID string
	status     enums.PaymentStatus
	detail     string
	amount     decimal.Decimal
}

// chargeCard runs the synchronous card path. A processor rejection
// surfaces as a payment_rejected error and nothing is persisted.
func (s *service) chargeCard(ctx context.Context, order *models.Order, input PlaceOrderInput) (*chargeResult, error) {
	payerEmail := ""
	if input.CustomerEmail != nil {
		payerEmail = *input.CustomerEmail
	}
	payment, err := s.provider.CreatePayment(ctx, mercadopago.PaymentCreateParams{
		CardToken:         input.CardToken,
		Amount:            order.Total,
		CurrencyID:        order.Currency.String(),
		ExternalReference: order.ExternalReference,
		PayerEmail:        payerEmail,
		Description:       fmt.Sprintf("Pedido %s", order.ExternalReference),
	})
	if err != nil {
		return nil, err
	}

	status, perr := enums.ParsePaymentStatus(payment.Status)
	if perr != nil {
		status = enums.PaymentStatusPending
	}
	if status == enums.PaymentStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodePaymentRejected, "the card was rejected by the processor")
	}
	return &chargeResult{
		providerID: strconv.FormatInt(payment.ID, 10),
		status:     status,
		detail:     payment.StatusDetail,
		amount:     order.Total,
	}, nil
}

// commit persists the order and retires the cart in one transaction. For
// the direct card path the payment row rides along.
func (s *service) commit(ctx context.Context, order *models.Order, activeCart *models.Cart, charge *chargeResult) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.carts.WithTx(tx).UpdateStatus(ctx, activeCart.ID, enums.CartStatusOrdered); err != nil {
			return err
		}
		if charge != nil {
			providerID := charge.providerID
			row := &models.Payment{
				OrderID:           order.ID,
				ProviderPaymentID: &providerID,
				Status:            charge.status,
				Amount:            charge.amount,
				Currency:          order.Currency,
			}
			if charge.detail != "" {
				detail := charge.detail
				row.StatusDetail = &detail
			}
			if _, err := s.payments.WithTx(tx).Create(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}
	return nil
}

func (s *service) buildOrder(store *models.Store, activeCart *models.Cart, input PlaceOrderInput) *models.Order {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(activeCart.Items))
	for i := range activeCart.Items {
		line := &activeCart.Items[i]
		subtotal = subtotal.Add(line.Subtotal)
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ProductID: &productID,
			VariantID: line.VariantID,
			Title:     line.Title,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		})
	}

	fee := decimal.Zero
	if input.DeliveryMethod == enums.DeliveryMethodDelivery {
		fee = store.DeliveryFee
	}

	cartID := activeCart.ID
	order := &models.Order{
		StoreID:           store.ID,
		CartID:            &cartID,
		SessionID:         activeCart.SessionID,
		ExternalReference: fmt.Sprintf("order-%s", uuid.NewString()),
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:     input.CustomerEmail,
		DeliveryMethod:    input.DeliveryMethod,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     enums.PaymentStatusPending,
		Notes:             input.Notes,
		Currency:          activeCart.Currency,
		Subtotal:          subtotal,
		DeliveryFee:       fee,
		Total:             subtotal.Add(fee),
		Status:            enums.OrderStatusPlaced,
		Items:             items,
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && input.Address != nil {
		cpy := *input.Address
		order.Address = &cpy
	}
	return order
}

func (s *service) preferenceParams(order *models.Order) mercadopago.PreferenceCreateParams {
	items := make([]mercadopago.PreferenceItem, 0, len(order.Items)+1)
	for i := range order.Items {
		line := &order.Items[i]
		items = append(items, mercadopago.PreferenceItem{
			Title:      line.Title,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			CurrencyID: order.Currency.String(),
		})
	}
	if order.DeliveryFee.IsPositive() {
		items = append(items, mercadopago.PreferenceItem{
			Title:      "Envio",
			Quantity:   1,
			UnitPrice:  order.DeliveryFee,
			CurrencyID: order.Currency.String(),
		})
	}
	return mercadopago.PreferenceCreateParams{
		ExternalReference: order.ExternalReference,
		Items:             items,
		SuccessURL:        s.returnURL,
		FailureURL:        s.returnURL,
		PendingURL:        s.returnURL,
	}
}

func (s *service) whatsappLink(store *models.Store, order *models.Order) string {
	lines := make([]whatsapp.OrderLine, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		lines = append(lines, whatsapp.OrderLine{
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	msg := whatsapp.OrderMessage{
		StoreName:      store.Name,
		OrderReference: order.ExternalReference,
		CustomerName:   order.CustomerName,
		DeliveryMethod: order.DeliveryMethod.String(),
		Currency:       order.Currency.String(),
		Lines:          lines,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.Total,
	}
	if order.Address != nil {
		msg.AddressLine = order.Address.Summary()
	}
	if order.Notes != nil {
		msg.Notes = *order.Notes
	}
	link, err := whatsapp.BuildLink(*store.WhatsAppPhone, msg)
	if err != nil {
		return ""
	}
	return link
}

func (s *service) loadStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return store, nil
}

func (s *service) loadCart(ctx context.Context, storeID uuid.UUID, sessionID string) (*models.Cart, error) {
	activeCart, err := s.carts.FindActive(ctx, storeID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if activeCart.Expired(s.now()) || len(activeCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return activeCart, nil
}

func validateInput(input PlaceOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if input.CustomerEmail != nil {
		if err := validate.Var(*input.CustomerEmail, "required,email"); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer email is invalid")
		}
	}
	if !input.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && input.Address == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required for delivery")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.PaymentMethod == enums.PaymentMethodCardDirect && strings.TrimSpace(input.CardToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "card token is required")
	}
	return nil
}
