package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	"github.com/dmarquezg/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  cart_id TEXT,
  session_id TEXT NOT NULL,
  external_reference TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  delivery_method TEXT NOT NULL,
  address TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  currency TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItemsTable := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  variant_id TEXT,
  title TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(orderItemsTable).Error)

	return db
}

func testOrder(storeID uuid.UUID, ref string, createdAt time.Time) *models.Order {
	return &models.Order{
		StoreID:           storeID,
		SessionID:         "sess-repo",
		ExternalReference: ref,
		CustomerName:      "Ana",
		CustomerPhone:     "+54 9 11 5555-0000",
		DeliveryMethod:    enums.DeliveryMethodPickup,
		PaymentMethod:     enums.PaymentMethodCash,
		PaymentStatus:     enums.PaymentStatusPending,
		Currency:          enums.CurrencyARS,
		Subtotal:          decimal.NewFromInt(7000),
		Total:             decimal.NewFromInt(7000),
		Status:            enums.OrderStatusPlaced,
		CreatedAt:         createdAt,
		Items: []models.OrderItem{
			{Title: "Yerba Mate 1kg", UnitPrice: decimal.NewFromInt(1000), Quantity: 2, Subtotal: decimal.NewFromInt(2000)},
			{Title: "Bombilla", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, Subtotal: decimal.NewFromInt(5000)},
		},
	}
}

func TestOrderRepoCreateAndFindByExternalReference(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	created, err := repo.Create(ctx, testOrder(storeID, "order-"+uuid.NewString(), time.Now()))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByExternalReference(ctx, created.ExternalReference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, storeID, found.StoreID)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Yerba Mate 1kg", found.Items[0].Title)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(7000)))
}

func TestOrderRepoListByStoreKeysetPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		order := testOrder(storeID, "order-"+uuid.NewString(), base.Add(time.Duration(i)*time.Minute))
		_, err := repo.Create(ctx, order)
		require.NoError(t, err)
	}

	first, err := repo.ListByStore(ctx, storeID, nil, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	second, err := repo.ListByStore(ctx, storeID, nil, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].CreatedAt.Before(first[1].CreatedAt))
}

func TestOrderRepoListByStoreStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	placed, err := repo.Create(ctx, testOrder(storeID, "order-"+uuid.NewString(), time.Now().Add(-2*time.Minute)))
	require.NoError(t, err)
	confirmed, err := repo.Create(ctx, testOrder(storeID, "order-"+uuid.NewString(), time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, confirmed.ID, enums.OrderStatusConfirmed))

	status := enums.OrderStatusConfirmed
	rows, err := repo.ListByStore(ctx, storeID, &status, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, confirmed.ID, rows[0].ID)
	assert.NotEqual(t, placed.ID, rows[0].ID)
}

func TestOrderRepoUpdatePaymentStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testOrder(uuid.New(), "order-"+uuid.NewString(), time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePaymentStatus(ctx, created.ID, enums.PaymentStatusApproved))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusApproved, found.PaymentStatus)
}
