package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
)

// maxLineQuantity bounds a single cart line.
const maxLineQuantity = 999

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// AddItemInput captures one line to merge into the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID, sessionID string) (*CartDTO, error)
	AddItem(ctx context.Context, storeID uuid.UUID, sessionID string, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, storeID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, storeID uuid.UUID, sessionID string, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, storeID uuid.UUID, sessionID string) (*CartDTO, error)
	SetDeliveryMethod(ctx context.Context, storeID uuid.UUID, sessionID string, method enums.DeliveryMethod) (*CartDTO, error)
}

type service struct {
	repo        CartRepository
	tx          txRunner
	stores      storeLoader
	products    productLoader
	broadcaster Broadcaster
	cartTTL     time.Duration
	now         func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, stores storeLoader, products productLoader, broadcaster Broadcaster, cartTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if broadcaster == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	if cartTTL <= 0 {
		cartTTL = 168 * time.Hour
	}
	return &service{
		repo:        repo,
		tx:          tx,
		stores:      stores,
		products:    products,
		broadcaster: broadcaster,
		cartTTL:     cartTTL,
		now:         time.Now,
	}, nil
}

// Get returns the active cart, or an empty cart when none exists or the
// stored one expired.
func (s *service) Get(ctx context.Context, storeID uuid.UUID, sessionID string) (*CartDTO, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	cart, err := s.repo.FindActive(ctx, storeID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmptyCart(storeID, sessionID, store.Currency), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.Expired(s.now()) {
		_ = s.repo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned)
		return EmptyCart(storeID, sessionID, store.Currency), nil
	}
	return FromModel(cart), nil
}

// AddItem merges the line into the cart, creating the cart on first use.
// Lines with the same product and variant accumulate quantity.
func (s *service) AddItem(ctx context.Context, storeID uuid.UUID, sessionID string, input AddItemInput) (*CartDTO, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product belongs to another store")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	variant, title, err := resolveVariant(product, input.VariantID)
	if err != nil {
		return nil, err
	}
	unitPrice := product.EffectivePrice(variant)

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := s.activeCartForUpdate(ctx, txRepo, store, sessionID)
		if err != nil {
			return err
		}

		merged := false
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID == input.ProductID && equalVariant(item.VariantID, input.VariantID) {
				item.Quantity += input.Quantity
				if item.Quantity > maxLineQuantity {
					return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
				}
				item.UnitPrice = unitPrice
				item.Title = title
				item.Subtotal = unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
				merged = true
				break
			}
		}
		if !merged {
			if input.Quantity > maxLineQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
			}
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: input.ProductID,
				VariantID: cloneUUIDPtr(input.VariantID),
				Title:     title,
				UnitPrice: unitPrice,
				Quantity:  input.Quantity,
				Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
			})
		}

		saved, err = s.persist(ctx, txRepo, cart, store)
		return err
	}); err != nil {
		return nil, wrapTxErr(err, "add cart item")
	}

	s.notify(ctx, saved)
	return FromModel(saved), nil
}

// UpdateItem sets the quantity of one line. Quantity zero removes it.
func (s *service) UpdateItem(ctx context.Context, storeID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
	}
	return s.mutateLine(ctx, storeID, sessionID, itemID, "update cart item", func(item *models.CartItem) bool {
		if quantity == 0 {
			return false
		}
		item.Quantity = quantity
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		return true
	})
}

// RemoveItem drops one line from the cart.
func (s *service) RemoveItem(ctx context.Context, storeID uuid.UUID, sessionID string, itemID uuid.UUID) (*CartDTO, error) {
	return s.mutateLine(ctx, storeID, sessionID, itemID, "remove cart item", func(*models.CartItem) bool {
		return false
	})
}

// Clear drops every line but keeps the cart row and its delivery method.
func (s *service) Clear(ctx context.Context, storeID uuid.UUID, sessionID string) (*CartDTO, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := txRepo.FindActive(ctx, storeID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		cart.Items = nil
		saved, err = s.persist(ctx, txRepo, cart, store)
		return err
	}); err != nil {
		return nil, wrapTxErr(err, "clear cart")
	}

	if saved == nil {
		return EmptyCart(storeID, sessionID, store.Currency), nil
	}
	s.notify(ctx, saved)
	return FromModel(saved), nil
}

// SetDeliveryMethod switches pickup/delivery and reprices the cart so the
// displayed total includes the store's delivery fee.
func (s *service) SetDeliveryMethod(ctx context.Context, storeID uuid.UUID, sessionID string, method enums.DeliveryMethod) (*CartDTO, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := s.activeCartForUpdate(ctx, txRepo, store, sessionID)
		if err != nil {
			return err
		}
		cart.DeliveryMethod = method
		saved, err = s.persist(ctx, txRepo, cart, store)
		return err
	}); err != nil {
		return nil, wrapTxErr(err, "set delivery method")
	}

	s.notify(ctx, saved)
	return FromModel(saved), nil
}

func (s *service) mutateLine(ctx context.Context, storeID uuid.UUID, sessionID string, itemID uuid.UUID, op string, keep func(*models.CartItem) bool) (*CartDTO, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	var saved *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		cart, err := txRepo.FindActive(ctx, storeID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}
		if cart.Expired(s.now()) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		found := false
		items := cart.Items[:0]
		for i := range cart.Items {
			item := cart.Items[i]
			if item.ID == itemID {
				found = true
				if keep(&item) {
					items = append(items, item)
				}
				continue
			}
			items = append(items, item)
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		cart.Items = items

		saved, err = s.persist(ctx, txRepo, cart, store)
		return err
	}); err != nil {
		return nil, wrapTxErr(err, op)
	}

	s.notify(ctx, saved)
	return FromModel(saved), nil
}

// activeCartForUpdate returns the active cart for mutation, starting a
// fresh one when none exists or the stored one expired.
func (s *service) activeCartForUpdate(ctx context.Context, txRepo CartRepository, store *models.Store, sessionID string) (*models.Cart, error) {
	cart, err := txRepo.FindActive(ctx, store.ID, sessionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		cart = nil
	}
	if cart != nil && cart.Expired(s.now()) {
		if err := txRepo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned); err != nil {
			return nil, err
		}
		cart = nil
	}
	if cart == nil {
		fresh := &models.Cart{
			StoreID:        store.ID,
			SessionID:      sessionID,
			Status:         enums.CartStatusActive,
			Currency:       store.Currency,
			DeliveryMethod: enums.DeliveryMethodPickup,
			Theme:          store.Theme,
		}
		created, err := txRepo.Create(ctx, fresh)
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return cart, nil
}

// persist recomputes totals, refreshes the validity window, and saves the
// cart with its items.
func (s *service) persist(ctx context.Context, txRepo CartRepository, cart *models.Cart, store *models.Store) (*models.Cart, error) {
	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].Subtotal)
	}
	cart.Subtotal = subtotal
	cart.DeliveryFee = decimal.Zero
	if cart.DeliveryMethod == enums.DeliveryMethodDelivery {
		cart.DeliveryFee = store.DeliveryFee
	}
	cart.Total = subtotal.Add(cart.DeliveryFee)
	cart.ValidUntil = s.now().Add(s.cartTTL)

	items := cart.Items
	cart.Items = nil
	if _, err := txRepo.Update(ctx, cart); err != nil {
		return nil, err
	}
	if err := txRepo.ReplaceItems(ctx, cart.ID, items); err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
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

func (s *service) notify(ctx context.Context, cart *models.Cart) {
	if cart == nil {
		return
	}
	_ = s.broadcaster.CartChanged(ctx, cart.SessionID, cart.StoreID, cart.ID)
}

func resolveVariant(product *models.Product, variantID *uuid.UUID) (*models.ProductVariant, string, error) {
	if variantID == nil {
		return nil, product.Title, nil
	}
	for i := range product.Variants {
		if product.Variants[i].ID == *variantID {
			v := &product.Variants[i]
			return v, fmt.Sprintf("%s (%s)", product.Title, v.Name), nil
		}
	}
	return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
}

func equalVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cpy := *id
	return &cpy
}

func wrapTxErr(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
