package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

// ItemInput carries a wishlist mutation for one customer-product pair.
type ItemInput struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ListInput carries a wishlist read.
type ListInput struct {
	CustomerID uuid.UUID
	Pagination pagination.Params

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, input ListInput) ([]Entry, string, error)
	AddItem(ctx context.Context, input ItemInput) error
	RemoveItem(ctx context.Context, input ItemInput) error
}

type service struct {
	repo Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist: repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]Entry, string, error) {
	if err := authorizeCustomerScope(input.ActorRole, input.ActorUserID, input.CustomerID); err != nil {
		return nil, "", err
	}
	return s.repo.ListItems(ctx, input.CustomerID, input.Pagination)
}

// AddItem ensures the product exists and is active before saving it.
func (s *service) AddItem(ctx context.Context, input ItemInput) error {
	if err := authorizeCustomerScope(input.ActorRole, input.ActorUserID, input.CustomerID); err != nil {
		return err
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.repo.AddItem(ctx, input.CustomerID, input.ProductID)
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, input ItemInput) error {
	if err := authorizeCustomerScope(input.ActorRole, input.ActorUserID, input.CustomerID); err != nil {
		return err
	}
	return s.repo.RemoveItem(ctx, input.CustomerID, input.ProductID)
}

func authorizeCustomerScope(role enums.ActorRole, actorUserID, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if role != enums.ActorRoleCustomer || actorUserID != customerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "wishlists are scoped to their owner")
	}
	return nil
}
