package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/outbox/payloads"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CommissionCanceller voids an order's pending commissions when the order
// unwinds before delivery.
type CommissionCanceller interface {
	CancelPendingByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef, reason string) error
}

// Service owns order lifecycle transitions after checkout.
type Service interface {
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error)
	UpdateItemStatus(ctx context.Context, input UpdateItemStatusInput) (*models.OrderItem, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	MarkReturned(ctx context.Context, input ReturnInput) (*models.Order, error)
	Refund(ctx context.Context, input RefundInput) (*models.Order, error)
	GetByID(ctx context.Context, input GetInput) (*models.Order, error)
	ListForCustomer(ctx context.Context, input ListInput) ([]models.Order, error)
	ListVendorItems(ctx context.Context, input VendorItemsInput) ([]models.OrderItem, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	out         outboxPublisher
	commissions CommissionCanceller
}

// ConfirmPaymentInput marks an order paid; driven by the payment
// confirmation flow, restricted to admins.
type ConfirmPaymentInput struct {
	OrderID       uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// UpdateItemStatusInput moves one vendor line forward.
type UpdateItemStatusInput struct {
	ItemID        uuid.UUID
	Target        enums.OrderItemStatus
	Notes         *string
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// CancelInput cancels a not-yet-shipped order.
type CancelInput struct {
	OrderID       uuid.UUID
	Reason        string
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ReturnInput marks a delivered order returned.
type ReturnInput struct {
	OrderID     uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// RefundInput refunds a returned or cancelled-after-payment order.
type RefundInput struct {
	OrderID     uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// GetInput scopes a single order read to the caller.
type GetInput struct {
	OrderID       uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ListInput scopes a customer order listing.
type ListInput struct {
	CustomerID  uuid.UUID
	Pagination  pagination.Params
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// VendorItemsInput scopes a vendor's fulfillment queue.
type VendorItemsInput struct {
	VendorID      uuid.UUID
	Status        *enums.OrderItemStatus
	Pagination    pagination.Params
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// NewService wires the order lifecycle service.
func NewService(repo Repository, tx txRunner, out outboxPublisher, commissions CommissionCanceller) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if out == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if commissions == nil {
		return nil, fmt.Errorf("commission canceller required")
	}
	return &service{repo: repo, tx: tx, out: out, commissions: commissions}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may confirm payments")
	}

	var confirmed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			confirmed = order
			return nil
		}
		if order.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment cannot be confirmed in current state")
		}
		if !CanTransitionOrder(order.Status, enums.OrderStatusConfirmed) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be confirmed in current state")
		}

		now := time.Now()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"status":         enums.OrderStatusConfirmed,
			"confirmed_at":   now,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		prev := order.Status
		order.PaymentStatus = enums.PaymentStatusPaid
		order.Status = enums.OrderStatusConfirmed
		order.ConfirmedAt = &now
		confirmed = order

		actor := buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole)
		paidEvent := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderPaidEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				TotalCents: order.TotalCents,
				PaidAt:     now,
			},
		}
		if err := s.out.EmitIfNotExists(ctx, tx, paidEvent); err != nil {
			return err
		}
		return s.emitOrderStatusChanged(ctx, tx, order, prev, actor)
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (s *service) UpdateItemStatus(ctx context.Context, input UpdateItemStatusInput) (*models.OrderItem, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.OrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}

		switch input.ActorRole {
		case enums.ActorRoleAdmin:
		case enums.ActorRoleVendor:
			if input.ActorVendorID == nil || *input.ActorVendorID != item.VendorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to vendor")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
		}

		order, err := s.loadOrder(ctx, repo, item.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid yet")
		}

		if item.Status == input.Target {
			updated = item
			return nil
		}
		if !CanTransitionItem(item.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "item status transition not allowed")
		}

		now := time.Now()
		updates := map[string]any{"status": input.Target}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.Target == enums.OrderItemStatusDelivered {
			updates["delivered_at"] = now
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
		}

		prevItemStatus := item.Status
		item.Status = input.Target
		if input.Target == enums.OrderItemStatusDelivered {
			item.DeliveredAt = &now
		}
		updated = item

		actor := buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole)
		itemEvent := outbox.DomainEvent{
			EventType:     enums.EventOrderItemStatusChanged,
			AggregateType: enums.AggregateOrderItem,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderItemStatusChangedEvent{
				OrderItemID: item.ID,
				OrderID:     order.ID,
				VendorID:    item.VendorID,
				FromStatus:  prevItemStatus,
				ToStatus:    input.Target,
			},
		}
		if err := s.out.Emit(ctx, tx, itemEvent); err != nil {
			return err
		}

		return s.reconcileOrderStatus(ctx, tx, repo, order, actor)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reconcileOrderStatus recomputes the overall order status from its items
// (least-advanced wins) and advances the order when the computed status is
// ahead of the stored one.
func (s *service) reconcileOrderStatus(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actor *outbox.ActorRef) error {
	items, err := repo.ListItemsByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order items")
	}
	target, ok := OverallStatus(items)
	if !ok || target == order.Status {
		return nil
	}
	if !CanTransitionOrder(order.Status, target) {
		// Items can only pull the order forward along the main path; a
		// computed status behind the current one means nothing to do.
		return nil
	}

	updates := map[string]any{"status": target}
	if target == enums.OrderStatusDelivered {
		updates["delivered_at"] = time.Now()
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	prev := order.Status
	order.Status = target
	return s.emitOrderStatusChanged(ctx, tx, order, prev, actor)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		switch input.ActorRole {
		case enums.ActorRoleAdmin:
		case enums.ActorRoleCustomer:
			if order.CustomerID != input.ActorUserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
		}

		if !CanTransitionOrder(order.Status, enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in current state")
		}

		now := time.Now()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		for _, item := range order.Items {
			if item.Status == enums.OrderItemStatusCancelled {
				continue
			}
			if err := repo.UpdateItem(ctx, item.ID, map[string]any{"status": enums.OrderItemStatusCancelled}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order item")
			}
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		cancelled = order

		actor := buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole)
		if err := s.commissions.CancelPendingByOrderTx(ctx, tx, order.ID, actor, "order cancelled"); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				CancelledAt: now,
				Reason:      input.Reason,
			},
		}
		return s.out.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) MarkReturned(ctx context.Context, input ReturnInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may mark orders returned")
	}

	var returned *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if !CanTransitionOrder(order.Status, enums.OrderStatusReturned) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": enums.OrderStatusReturned}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order returned")
		}
		prev := order.Status
		order.Status = enums.OrderStatusReturned
		returned = order

		actor := buildActor(input.ActorUserID, nil, input.ActorRole)
		return s.emitOrderStatusChanged(ctx, tx, order, prev, actor)
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may refund orders")
	}

	var refunded *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if !CanTransitionOrder(order.Status, enums.OrderStatusRefunded) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be refunded in current state")
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can be refunded")
		}

		now := time.Now()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusRefunded,
			"payment_status": enums.PaymentStatusRefunded,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund order")
		}
		order.Status = enums.OrderStatusRefunded
		order.PaymentStatus = enums.PaymentStatusRefunded
		refunded = order

		actor := buildActor(input.ActorUserID, nil, input.ActorRole)
		if err := s.commissions.CancelPendingByOrderTx(ctx, tx, order.ID, actor, "order refunded"); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderRefundedEvent{
				OrderID:      order.ID,
				CustomerID:   order.CustomerID,
				RefundedAt:   now,
				AmountCents:  order.TotalCents,
				RefundReason: input.Reason,
			},
		}
		return s.out.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return refunded, nil
}

func (s *service) GetByID(ctx context.Context, input GetInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, s.repo, input.OrderID)
	if err != nil {
		return nil, err
	}

	switch input.ActorRole {
	case enums.ActorRoleAdmin:
		return order, nil
	case enums.ActorRoleCustomer:
		if order.CustomerID != input.ActorUserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		return order, nil
	case enums.ActorRoleVendor:
		if input.ActorVendorID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
		}
		for _, item := range order.Items {
			if item.VendorID == *input.ActorVendorID {
				return order, nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order has no items for vendor")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
}

func (s *service) ListForCustomer(ctx context.Context, input ListInput) ([]models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.ActorRole != enums.ActorRoleAdmin && input.CustomerID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "orders do not belong to customer")
	}
	rows, err := s.repo.ListByCustomer(ctx, input.CustomerID, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListVendorItems(ctx context.Context, input VendorItemsInput) ([]models.OrderItem, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	switch input.ActorRole {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleVendor:
		if input.ActorVendorID == nil || *input.ActorVendorID != input.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "items do not belong to vendor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	rows, err := s.repo.ListItemsByVendor(ctx, input.VendorID, input.Status, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor items")
	}
	return rows, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) emitOrderStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   order.Status,
		},
	}
	return s.out.Emit(ctx, tx, event)
}

func buildActor(userID uuid.UUID, vendorID *uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:   userID,
		VendorID: vendorID,
		Role:     string(role),
	}
}
