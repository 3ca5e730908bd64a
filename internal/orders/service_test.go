package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID]*models.OrderItem
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders: map[uuid.UUID]*models.Order{},
		items:  map[uuid.UUID]*models.OrderItem{},
	}
}

func (s *stubOrdersRepo) addOrder(order *models.Order, items ...*models.OrderItem) {
	for _, item := range items {
		item.OrderID = order.ID
		s.items[item.ID] = item
	}
	s.orders[order.ID] = order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	clone.Items = nil
	for _, item := range s.items {
		if item.OrderID == id {
			clone.Items = append(clone.Items, *item)
		}
	}
	return &clone, nil
}

func (s *stubOrdersRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for id, order := range s.orders {
		if order.OrderNumber == orderNumber {
			return s.FindByID(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = v
	}
	if v, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		order.PaymentStatus = v
	}
	if v, ok := updates["confirmed_at"].(time.Time); ok {
		order.ConfirmedAt = &v
	}
	if v, ok := updates["delivered_at"].(time.Time); ok {
		order.DeliveredAt = &v
	}
	if v, ok := updates["cancelled_at"].(time.Time); ok {
		order.CancelledAt = &v
	}
	return nil
}

func (s *stubOrdersRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *stubOrdersRepo) ListItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	for _, item := range s.items {
		if item.OrderID == orderID {
			rows = append(rows, *item)
		}
	}
	return rows, nil
}

func (s *stubOrdersRepo) ListItemsByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderItemStatus, params pagination.Params) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	for _, item := range s.items {
		if item.VendorID != vendorID {
			continue
		}
		if status != nil && item.Status != *status {
			continue
		}
		rows = append(rows, *item)
	}
	return rows, nil
}

func (s *stubOrdersRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	item, ok := s.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.OrderItemStatus); ok {
		item.Status = v
	}
	if v, ok := updates["delivered_at"].(time.Time); ok {
		item.DeliveredAt = &v
	}
	return nil
}

func (s *stubOrdersRepo) CountOrdersToday(ctx context.Context, prefix string) (int64, error) {
	return int64(len(s.orders)), nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) has(eventType enums.OutboxEventType) bool {
	for _, event := range s.events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

type stubCanceller struct {
	calls []uuid.UUID
}

func (s *stubCanceller) CancelPendingByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef, reason string) error {
	s.calls = append(s.calls, orderID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestOrdersService(t *testing.T, repo Repository, out outboxPublisher, canceller CommissionCanceller) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, out, canceller)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	repo.addOrder(&models.Order{
		ID:            orderID,
		CustomerID:    uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		TotalCents:    12000,
	})
	out := &stubOutbox{}
	svc := newTestOrdersService(t, repo, out, &stubCanceller{})

	order, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		OrderID:     orderID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed got %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid got %s", order.PaymentStatus)
	}
	if !out.has(enums.EventOrderPaid) || !out.has(enums.EventOrderStatusChanged) {
		t.Fatalf("expected order_paid and order_status_changed events, got %+v", out.events)
	}
}

func TestConfirmPaymentRequiresAdmin(t *testing.T) {
	repo := newStubOrdersRepo()
	svc := newTestOrdersService(t, repo, &stubOutbox{}, &stubCanceller{})

	_, err := svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		OrderID:     uuid.New(),
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleCustomer,
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN got %v", err)
	}
}

func TestUpdateItemStatusVendorOwnership(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	vendorID := uuid.New()
	otherVendor := uuid.New()
	itemID := uuid.New()
	repo.addOrder(
		&models.Order{ID: orderID, Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid},
		&models.OrderItem{ID: itemID, VendorID: vendorID, Status: enums.OrderItemStatusPending},
	)
	svc := newTestOrdersService(t, repo, &stubOutbox{}, &stubCanceller{})

	_, err := svc.UpdateItemStatus(context.Background(), UpdateItemStatusInput{
		ItemID:        itemID,
		Target:        enums.OrderItemStatusProcessing,
		ActorUserID:   uuid.New(),
		ActorVendorID: &otherVendor,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN got %v", err)
	}
}

func TestUpdateItemStatusAdvancesOrderToSlowestItem(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	vendorA := uuid.New()
	vendorB := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	repo.addOrder(
		&models.Order{ID: orderID, Status: enums.OrderStatusProcessing, PaymentStatus: enums.PaymentStatusPaid, IsMultiVendor: true},
		&models.OrderItem{ID: itemA, VendorID: vendorA, Status: enums.OrderItemStatusShipped},
		&models.OrderItem{ID: itemB, VendorID: vendorB, Status: enums.OrderItemStatusShipped},
	)
	out := &stubOutbox{}
	svc := newTestOrdersService(t, repo, out, &stubCanceller{})

	// vendor B delivers; vendor A is still shipped, so the order stays shipped
	_, err := svc.UpdateItemStatus(context.Background(), UpdateItemStatusInput{
		ItemID:        itemB,
		Target:        enums.OrderItemStatusDelivered,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorB,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.orders[orderID].Status != enums.OrderStatusShipped {
		t.Fatalf("expected order shipped got %s", repo.orders[orderID].Status)
	}

	// vendor A delivers too; now the whole order is delivered
	_, err = svc.UpdateItemStatus(context.Background(), UpdateItemStatusInput{
		ItemID:        itemA,
		Target:        enums.OrderItemStatusDelivered,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorA,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.orders[orderID].Status != enums.OrderStatusDelivered {
		t.Fatalf("expected order delivered got %s", repo.orders[orderID].Status)
	}
	if repo.orders[orderID].DeliveredAt == nil {
		t.Fatal("expected delivered_at set")
	}
}

func TestUpdateItemStatusRejectsBackwardMove(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	vendorID := uuid.New()
	itemID := uuid.New()
	repo.addOrder(
		&models.Order{ID: orderID, Status: enums.OrderStatusDelivered, PaymentStatus: enums.PaymentStatusPaid},
		&models.OrderItem{ID: itemID, VendorID: vendorID, Status: enums.OrderItemStatusDelivered},
	)
	svc := newTestOrdersService(t, repo, &stubOutbox{}, &stubCanceller{})

	_, err := svc.UpdateItemStatus(context.Background(), UpdateItemStatusInput{
		ItemID:        itemID,
		Target:        enums.OrderItemStatusShipped,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT got %v", err)
	}
}

func TestCancelVoidsPendingCommissions(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	customerID := uuid.New()
	itemID := uuid.New()
	repo.addOrder(
		&models.Order{ID: orderID, CustomerID: customerID, Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending},
		&models.OrderItem{ID: itemID, VendorID: uuid.New(), Status: enums.OrderItemStatusPending},
	)
	out := &stubOutbox{}
	canceller := &stubCanceller{}
	svc := newTestOrdersService(t, repo, out, canceller)

	order, err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     orderID,
		Reason:      "changed my mind",
		ActorUserID: customerID,
		ActorRole:   enums.ActorRoleCustomer,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", order.Status)
	}
	if len(canceller.calls) != 1 || canceller.calls[0] != orderID {
		t.Fatalf("expected commission cancellation for order, got %+v", canceller.calls)
	}
	if repo.items[itemID].Status != enums.OrderItemStatusCancelled {
		t.Fatalf("expected item cancelled got %s", repo.items[itemID].Status)
	}
	if !out.has(enums.EventOrderCancelled) {
		t.Fatal("expected order_cancelled event")
	}
}

func TestCancelRejectedAfterShipment(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	customerID := uuid.New()
	repo.addOrder(&models.Order{
		ID:         orderID,
		CustomerID: customerID,
		Status:     enums.OrderStatusShipped,
	})
	svc := newTestOrdersService(t, repo, &stubOutbox{}, &stubCanceller{})

	_, err := svc.Cancel(context.Background(), CancelInput{
		OrderID:     orderID,
		ActorUserID: customerID,
		ActorRole:   enums.ActorRoleCustomer,
	})
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT got %v", err)
	}
}

func TestRefundRequiresReturnedOrCancelledPaid(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	repo.addOrder(&models.Order{
		ID:            orderID,
		Status:        enums.OrderStatusReturned,
		PaymentStatus: enums.PaymentStatusPaid,
		TotalCents:    9900,
	})
	out := &stubOutbox{}
	canceller := &stubCanceller{}
	svc := newTestOrdersService(t, repo, out, canceller)

	order, err := svc.Refund(context.Background(), RefundInput{
		OrderID:     orderID,
		Reason:      "returned goods",
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if order.Status != enums.OrderStatusRefunded {
		t.Fatalf("expected refunded got %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("expected payment refunded got %s", order.PaymentStatus)
	}
	if !out.has(enums.EventOrderRefunded) {
		t.Fatal("expected order_refunded event")
	}
}

func TestGetByIDVendorNeedsOwnItem(t *testing.T) {
	repo := newStubOrdersRepo()
	orderID := uuid.New()
	vendorID := uuid.New()
	repo.addOrder(
		&models.Order{ID: orderID, CustomerID: uuid.New(), Status: enums.OrderStatusConfirmed},
		&models.OrderItem{ID: uuid.New(), VendorID: uuid.New(), Status: enums.OrderItemStatusPending},
	)
	svc := newTestOrdersService(t, repo, &stubOutbox{}, &stubCanceller{})

	_, err := svc.GetByID(context.Background(), GetInput{
		OrderID:       orderID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN got %v", err)
	}
}
