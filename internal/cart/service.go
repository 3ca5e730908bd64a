package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
)

const maxQtyPerLine = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the customer cart: add, adjust, remove, clear. Prices are
// snapshotted from the catalog at add time.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.CartRecord, error)
	UpdateItemQty(ctx context.Context, input UpdateQtyInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

// AddItemInput adds qty units of a product to the customer's cart.
type AddItemInput struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// UpdateQtyInput replaces the line quantity; zero removes the line.
type UpdateQtyInput struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the cart service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	record, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.CartRecord, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Qty < 1 || input.Qty > maxQtyPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxQtyPerLine))
	}

	var record *models.CartRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		if product.StockQty < input.Qty {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}

		cart, err := repo.GetOrCreate(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		item := models.CartItem{
			CartID:         cart.ID,
			ProductID:      product.ID,
			Qty:            input.Qty,
			UnitPriceCents: product.EffectivePriceCents(),
		}
		if err := repo.UpsertItem(ctx, &item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}

		record, err = repo.FindByCustomer(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) UpdateItemQty(ctx context.Context, input UpdateQtyInput) (*models.CartRecord, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.Qty < 0 || input.Qty > maxQtyPerLine {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 0 and %d", maxQtyPerLine))
	}

	var record *models.CartRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindByCustomer(ctx, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item, err := repo.FindItem(ctx, cart.ID, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if input.Qty == 0 {
			if err := repo.RemoveItem(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
			}
		} else {
			product, err := repo.FindProduct(ctx, input.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product.StockQty < input.Qty {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
			}
			if err := repo.UpdateItemQty(ctx, item.ID, input.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		record, err = repo.FindByCustomer(ctx, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.CartRecord, error) {
	return s.UpdateItemQty(ctx, UpdateQtyInput{CustomerID: customerID, ProductID: productID, Qty: 0})
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}
