package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
)

type stubCartRepo struct {
	carts    map[uuid.UUID]*models.CartRecord
	items    map[uuid.UUID]*models.CartItem
	products map[uuid.UUID]*models.Product
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts:    map[uuid.UUID]*models.CartRecord{},
		items:    map[uuid.UUID]*models.CartItem{},
		products: map[uuid.UUID]*models.Product{},
	}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	for _, cart := range s.carts {
		if cart.CustomerID == customerID {
			clone := *cart
			clone.Items = nil
			for _, item := range s.items {
				if item.CartID == cart.ID {
					clone.Items = append(clone.Items, *item)
				}
			}
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if record, err := s.FindByCustomer(ctx, customerID); err == nil {
		return record, nil
	}
	record := &models.CartRecord{ID: uuid.New(), CustomerID: customerID}
	s.carts[record.ID] = record
	return s.FindByCustomer(ctx, customerID)
}

func (s *stubCartRepo) UpsertItem(ctx context.Context, item *models.CartItem) error {
	for _, existing := range s.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			existing.Qty += item.Qty
			existing.UnitPriceCents = item.UnitPriceCents
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	clone := *item
	s.items[item.ID] = &clone
	return nil
}

func (s *stubCartRepo) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	item, ok := s.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Qty = qty
	return nil
}

func (s *stubCartRepo) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	for _, item := range s.items {
		if item.CartID == cartID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestCartService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAddItemSnapshotsSalePrice(t *testing.T) {
	repo := newStubCartRepo()
	sale := 1500
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, SalePriceCents: &sale, StockQty: 10, IsActive: true}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)

	record, err := svc.AddItem(context.Background(), AddItemInput{
		CustomerID: uuid.New(),
		ProductID:  product.ID,
		Qty:        2,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(record.Items))
	}
	if record.Items[0].UnitPriceCents != 1500 {
		t.Fatalf("unit price = %d, want 1500 (sale price)", record.Items[0].UnitPriceCents)
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	repo := newStubCartRepo()
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, StockQty: 10, IsActive: true}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: customerID, ProductID: product.ID, Qty: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	record, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: customerID, ProductID: product.ID, Qty: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(record.Items) != 1 || record.Items[0].Qty != 3 {
		t.Fatalf("expected one merged line with qty 3, got %+v", record.Items)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	repo := newStubCartRepo()
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, StockQty: 10, IsActive: false}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)

	_, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: uuid.New(), ProductID: product.ID, Qty: 1})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	repo := newStubCartRepo()
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, StockQty: 1, IsActive: true}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)

	_, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: uuid.New(), ProductID: product.ID, Qty: 3})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestUpdateItemQtyZeroRemovesLine(t *testing.T) {
	repo := newStubCartRepo()
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, StockQty: 10, IsActive: true}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: customerID, ProductID: product.ID, Qty: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	record, err := svc.UpdateItemQty(context.Background(), UpdateQtyInput{CustomerID: customerID, ProductID: product.ID, Qty: 0})
	if err != nil {
		t.Fatalf("UpdateItemQty: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(record.Items))
	}
}

func TestClearEmptiesCart(t *testing.T) {
	repo := newStubCartRepo()
	product := &models.Product{ID: uuid.New(), VendorID: uuid.New(), PriceCents: 2000, StockQty: 10, IsActive: true}
	repo.products[product.ID] = product
	svc := newTestCartService(t, repo)
	customerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), AddItemInput{CustomerID: customerID, ProductID: product.ID, Qty: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.Clear(context.Background(), customerID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	record, err := svc.Get(context.Background(), customerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(record.Items))
	}
}
