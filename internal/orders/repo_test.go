package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  shipping_address TEXT,
  billing_address TEXT,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  is_multi_vendor INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  confirmed_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  vendor_id TEXT NOT NULL,
  brand_id TEXT,
  name TEXT NOT NULL,
  sku TEXT,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  commission_rate TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, number string, created time.Time, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		CustomerID:    customerID,
		Currency:      enums.CurrencyUSD,
		SubtotalCents: 5000,
		TotalCents:    5000,
		Status:        status,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedItem(t *testing.T, db *gorm.DB, order *models.Order, vendorID uuid.UUID, status enums.OrderItemStatus, created time.Time) *models.OrderItem {
	t.Helper()

	item := &models.OrderItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		VendorID:       vendorID,
		Name:           "Linen Shirt",
		UnitPriceCents: 2500,
		Qty:            2,
		TotalCents:     5000,
		Status:         status,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryListByCustomer_cursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customer := uuid.New()
	now := time.Now().UTC()
	oldest := seedOrder(t, db, customer, "NX-20260824-0001", now.Add(-2*time.Hour), enums.OrderStatusDelivered)
	middle := seedOrder(t, db, customer, "NX-20260824-0002", now.Add(-time.Hour), enums.OrderStatusShipped)
	newest := seedOrder(t, db, customer, "NX-20260824-0003", now, enums.OrderStatusPending)
	seedOrder(t, db, uuid.New(), "NX-20260824-0004", now, enums.OrderStatusPending)

	rows, err := repo.ListByCustomer(context.Background(), customer, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	assert.Equal(t, oldest.ID, rows[2].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: middle.CreatedAt, ID: middle.ID})
	older, err := repo.ListByCustomer(context.Background(), customer, pagination.Params{Limit: 10, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, oldest.ID, older[0].ID)
}

func TestRepositoryFindByID_preloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := seedOrder(t, db, uuid.New(), "NX-20260825-0001", now, enums.OrderStatusConfirmed)
	seedItem(t, db, order, uuid.New(), enums.OrderItemStatusProcessing, now)
	seedItem(t, db, order, uuid.New(), enums.OrderItemStatusPending, now.Add(time.Minute))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
	assert.Len(t, found.Items, 2)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListItemsByVendor_statusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	vendor := uuid.New()
	now := time.Now().UTC()
	order := seedOrder(t, db, uuid.New(), "NX-20260825-0002", now, enums.OrderStatusConfirmed)
	pending := seedItem(t, db, order, vendor, enums.OrderItemStatusPending, now)
	seedItem(t, db, order, vendor, enums.OrderItemStatusShipped, now.Add(-time.Minute))
	seedItem(t, db, order, uuid.New(), enums.OrderItemStatusPending, now)

	status := enums.OrderItemStatusPending
	rows, err := repo.ListItemsByVendor(context.Background(), vendor, &status, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)

	all, err := repo.ListItemsByVendor(context.Background(), vendor, nil, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryUpdateItem(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	order := seedOrder(t, db, uuid.New(), "NX-20260825-0003", now, enums.OrderStatusConfirmed)
	item := seedItem(t, db, order, uuid.New(), enums.OrderItemStatusProcessing, now)

	require.NoError(t, repo.UpdateItem(context.Background(), item.ID, map[string]any{
		"status": enums.OrderItemStatusShipped,
	}))

	updated, err := repo.FindItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderItemStatusShipped, updated.Status)
}

func TestRepositoryCountOrdersToday(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	prefix := fmt.Sprintf("NX-%s-", now.Format("20060102"))
	seedOrder(t, db, uuid.New(), prefix+"0001", now, enums.OrderStatusPending)
	seedOrder(t, db, uuid.New(), prefix+"0002", now, enums.OrderStatusPending)
	seedOrder(t, db, uuid.New(), "NX-20200101-0001", now, enums.OrderStatusPending)

	count, err := repo.CountOrdersToday(context.Background(), prefix)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
