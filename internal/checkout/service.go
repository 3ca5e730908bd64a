package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/internal/cart"
	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/internal/orders"
	"github.com/nexusfashion/nexus-backend/pkg/config"
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/outbox/payloads"
	"github.com/nexusfashion/nexus-backend/pkg/types"
)

const orderNumberPrefix = "NX"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type commissionBuilder interface {
	BuildForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, actor *outbox.ActorRef) ([]models.Commission, error)
}

// Service converts a customer's cart into an order. The order lands in one
// transaction; commissions are booked in a second one so a rate resolution
// failure leaves the order standing and flags it for reconciliation instead.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// PlaceOrderInput carries the checkout payload plus the acting user.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	ShippingAddress *types.Address
	BillingAddress  *types.Address
	Notes           *string
	ActorUserID     uuid.UUID
	ActorVendorID   *uuid.UUID
	ActorRole       enums.ActorRole
}

type service struct {
	repo       Repository
	cartRepo   cart.Repository
	ordersRepo orders.Repository
	builder    commissionBuilder
	tx         txRunner
	out        outboxPublisher
	cfg        config.CommissionConfig
	logg       *logger.Logger
}

// NewService wires the checkout service with its dependencies.
func NewService(
	repo Repository,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	builder commissionBuilder,
	tx txRunner,
	out outboxPublisher,
	cfg config.CommissionConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if builder == nil {
		return nil, fmt.Errorf("commission builder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if out == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		builder:    builder,
		tx:         tx,
		out:        out,
		cfg:        cfg,
		logg:       logg,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch input.ActorRole {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleCustomer:
		if input.ActorUserID != input.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers may only check out their own cart")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	if input.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}

	actor := &outbox.ActorRef{
		UserID:   input.ActorUserID,
		VendorID: input.ActorVendorID,
		Role:     string(input.ActorRole),
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.createOrder(ctx, tx, input, actor)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Second transaction: book commissions. A rate resolution failure must
	// not unwind the committed order, so it only flags the order instead.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.builder.BuildForOrder(ctx, tx, order, order.Items, actor)
		return err
	})
	if err != nil {
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeConfiguration {
			return nil, err
		}
		s.logg.Error(ctx, "commission booking failed, order flagged for reconciliation", err)
		if flagErr := s.flagCommissionFailure(ctx, order, coded, actor); flagErr != nil {
			return nil, flagErr
		}
	}
	return order, nil
}

func (s *service) createOrder(ctx context.Context, tx *gorm.DB, input PlaceOrderInput, actor *outbox.ActorRef) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	cartRepo := s.cartRepo.WithTx(tx)
	ordersRepo := s.ordersRepo.WithTx(tx)

	record, err := cartRepo.FindByCustomer(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	platformDefault := s.cfg.DefaultRateDecimal()
	vendors := map[uuid.UUID]struct{}{}
	items := make([]models.OrderItem, 0, len(record.Items))
	subtotal := 0

	for _, line := range record.Items {
		product, err := repo.FindProductForUpdate(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is no longer available", product.Name))
		}
		if err := repo.DecrementStock(ctx, product.ID, line.Qty); err != nil {
			return nil, err
		}

		unitPrice := product.EffectivePriceCents()
		productID := product.ID
		item := models.OrderItem{
			ProductID:      &productID,
			VendorID:       product.VendorID,
			BrandID:        product.BrandID,
			Name:           product.Name,
			UnitPriceCents: unitPrice,
			Qty:            line.Qty,
			TotalCents:     unitPrice * line.Qty,
			CommissionRate: s.snapshotRate(ctx, repo, product, platformDefault),
			Status:         enums.OrderItemStatusPending,
		}
		items = append(items, item)
		subtotal += item.TotalCents
		vendors[product.VendorID] = struct{}{}
	}

	orderNumber, err := s.nextOrderNumber(ctx, ordersRepo)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:     orderNumber,
		CustomerID:      input.CustomerID,
		Currency:        enums.CurrencyUSD,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		SubtotalCents:   subtotal,
		TotalCents:      subtotal,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		IsMultiVendor:   len(vendors) > 1,
		Notes:           input.Notes,
		Items:           items,
	}
	if err := ordersRepo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err := cartRepo.ClearItems(ctx, record.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	vendorIDs := make([]uuid.UUID, 0, len(vendors))
	for id := range vendors {
		vendorIDs = append(vendorIDs, id)
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			VendorIDs:   vendorIDs,
			ItemCount:   len(order.Items),
			TotalCents:  order.TotalCents,
			Currency:    order.Currency,
		},
	}
	if err := s.out.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return order, nil
}

// snapshotRate freezes the effective commission rate on the order line so a
// later rate change never rewrites history. A broken brand chain leaves the
// snapshot empty; commission booking surfaces it as a configuration error.
func (s *service) snapshotRate(ctx context.Context, repo Repository, product *models.Product, platformDefault decimal.Decimal) *decimal.Decimal {
	if product.BrandID == nil {
		return nil
	}
	brand, err := repo.FindBrand(ctx, *product.BrandID)
	if err != nil {
		return nil
	}
	var vendor *models.Vendor
	if brand.VendorID != nil {
		vendor, _ = repo.FindVendor(ctx, *brand.VendorID)
	}
	rate, _, err := commissions.ResolveRate(brand, vendor, platformDefault)
	if err != nil {
		return nil
	}
	return &rate
}

func (s *service) nextOrderNumber(ctx context.Context, ordersRepo orders.Repository) (string, error) {
	prefix := fmt.Sprintf("%s-%s", orderNumberPrefix, time.Now().UTC().Format("20060102"))
	count, err := ordersRepo.CountOrdersToday(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sequence order number")
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

func (s *service) flagCommissionFailure(ctx context.Context, order *models.Order, cause *pkgerrors.Error, actor *outbox.ActorRef) error {
	var productID *uuid.UUID
	if detail, ok := cause.Details().(commissions.RateResolutionDetail); ok {
		productID = detail.ProductID
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event := outbox.DomainEvent{
			EventType:     enums.EventCommissionComputationFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.CommissionComputationFailedEvent{
				OrderID:   order.ID,
				ProductID: productID,
				Reason:    cause.Message(),
			},
		}
		return s.out.Emit(ctx, tx, event)
	})
}
