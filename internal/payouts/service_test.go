package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/pkg/config"
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

type stubPayoutsRepo struct {
	payouts map[uuid.UUID]*models.Payout
	vendors map[uuid.UUID]*models.Vendor
	ledger  *stubLedger
}

func newStubPayoutsRepo(ledger *stubLedger) *stubPayoutsRepo {
	return &stubPayoutsRepo{
		payouts: map[uuid.UUID]*models.Payout{},
		vendors: map[uuid.UUID]*models.Vendor{},
		ledger:  ledger,
	}
}

func (s *stubPayoutsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPayoutsRepo) Create(ctx context.Context, payout *models.Payout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	clone := *payout
	s.payouts[payout.ID] = &clone
	return nil
}

func (s *stubPayoutsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	payout, ok := s.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payout
	if s.ledger != nil {
		clone.Commissions = nil
		for _, commission := range s.ledger.commissions {
			if commission.PayoutID != nil && *commission.PayoutID == id {
				clone.Commissions = append(clone.Commissions, *commission)
			}
		}
	}
	return &clone, nil
}

func (s *stubPayoutsRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.PayoutStatus, params pagination.Params) ([]models.Payout, error) {
	var rows []models.Payout
	for _, payout := range s.payouts {
		if payout.VendorID != vendorID {
			continue
		}
		if status != nil && payout.Status != *status {
			continue
		}
		rows = append(rows, *payout)
	}
	return rows, nil
}

func (s *stubPayoutsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	payout, ok := s.payouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"].(enums.PayoutStatus); ok {
		payout.Status = v
	}
	if v, ok := updates["processed_by"].(uuid.UUID); ok {
		payout.ProcessedBy = &v
	}
	if v, ok := updates["processed_at"].(time.Time); ok {
		payout.ProcessedAt = &v
	}
	if v, ok := updates["transaction_reference"].(string); ok {
		payout.TransactionReference = &v
	}
	if v, ok := updates["completed_at"].(time.Time); ok {
		payout.CompletedAt = &v
	}
	if v, ok := updates["failure_reason"].(string); ok {
		payout.FailureReason = &v
	}
	return nil
}

func (s *stubPayoutsRepo) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

// stubLedger implements the commission side the payout flow touches.
type stubLedger struct {
	commissions map[uuid.UUID]*models.Commission
}

func newStubLedger() *stubLedger {
	return &stubLedger{commissions: map[uuid.UUID]*models.Commission{}}
}

func (s *stubLedger) add(commission models.Commission) uuid.UUID {
	if commission.ID == uuid.Nil {
		commission.ID = uuid.New()
	}
	clone := commission
	s.commissions[clone.ID] = &clone
	return clone.ID
}

func (s *stubLedger) WithTx(tx *gorm.DB) commissions.Repository { return s }

func (s *stubLedger) Create(ctx context.Context, commission *models.Commission) error {
	s.add(*commission)
	return nil
}

func (s *stubLedger) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	commission, ok := s.commissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *commission
	return &clone, nil
}

func (s *stubLedger) FindByOrderItemID(ctx context.Context, orderItemID uuid.UUID) (*models.Commission, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedger) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	return nil, nil
}

func (s *stubLedger) ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.CommissionStatus, params pagination.Params) ([]models.Commission, error) {
	return nil, nil
}

func (s *stubLedger) SummarizeByVendor(ctx context.Context, vendorID uuid.UUID) ([]commissions.StatusTotal, error) {
	return nil, nil
}

func (s *stubLedger) PayableNetByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubLedger) ListApprovedUnlinkedForUpdate(ctx context.Context, vendorID uuid.UUID) ([]models.Commission, error) {
	var rows []models.Commission
	for _, commission := range s.commissions {
		if commission.VendorID == vendorID && commission.Status == enums.CommissionStatusApproved && commission.PayoutID == nil {
			rows = append(rows, *commission)
		}
	}
	return rows, nil
}

func (s *stubLedger) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus, updates map[string]any) error {
	commission, ok := s.commissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	commission.Status = status
	return nil
}

func (s *stubLedger) LinkToPayout(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) error {
	for _, id := range ids {
		if commission, ok := s.commissions[id]; ok {
			pid := payoutID
			commission.PayoutID = &pid
		}
	}
	return nil
}

func (s *stubLedger) UnlinkFromPayout(ctx context.Context, payoutID uuid.UUID) error {
	for _, commission := range s.commissions {
		if commission.PayoutID != nil && *commission.PayoutID == payoutID {
			commission.PayoutID = nil
		}
	}
	return nil
}

func (s *stubLedger) MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) error {
	for _, commission := range s.commissions {
		if commission.PayoutID != nil && *commission.PayoutID == payoutID && commission.Status == enums.CommissionStatusApproved {
			commission.Status = enums.CommissionStatusPaid
			at := paidAt
			commission.PaidAt = &at
		}
	}
	return nil
}

func (s *stubLedger) ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	return nil, nil
}

func (s *stubLedger) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedger) FindBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedger) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return nil, gorm.ErrRecordNotFound
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

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func testPayoutConfig() config.CommissionConfig {
	return config.CommissionConfig{
		DefaultRate:         "0.10",
		PlatformFee:         "0",
		MinPayoutAmount:     "50",
		PayoutProcessingFee: "2.50",
	}
}

func newTestService(t *testing.T, repo *stubPayoutsRepo, ledger *stubLedger, out *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, ledger, stubTxRunner{}, out, testPayoutConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func approvedCommission(vendorID uuid.UUID, net string) models.Commission {
	amount := decimal.RequireFromString(net)
	return models.Commission{
		VendorID:         vendorID,
		OrderID:          uuid.New(),
		OrderItemID:      uuid.New(),
		GrossAmount:      amount.Mul(decimal.NewFromInt(10)),
		CommissionRate:   decimal.RequireFromString("0.10"),
		CommissionAmount: amount,
		NetAmount:        amount,
		Status:           enums.CommissionStatusApproved,
	}
}

func TestRequestBatchesApprovedCommissions(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	first := ledger.add(approvedCommission(vendorID, "140.00"))
	second := ledger.add(approvedCommission(vendorID, "60.00"))

	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	out := &stubOutbox{}
	svc := newTestService(t, repo, ledger, out)

	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := payout.Amount.StringFixed(2); got != "200.00" {
		t.Fatalf("amount = %s, want 200.00", got)
	}
	if got := payout.NetAmount.StringFixed(2); got != "197.50" {
		t.Fatalf("net amount = %s, want 197.50", got)
	}
	for _, id := range []uuid.UUID{first, second} {
		commission := ledger.commissions[id]
		if commission.PayoutID == nil || *commission.PayoutID != payout.ID {
			t.Fatalf("commission %s not reserved by payout", id)
		}
	}
	if !out.has(enums.EventPayoutRequested) {
		t.Fatal("payout_requested event not emitted")
	}
}

func TestRequestRejectsPendingCommission(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	ledger.add(approvedCommission(vendorID, "140.00"))

	pending := approvedCommission(vendorID, "60.00")
	pending.Status = enums.CommissionStatusPending
	pendingID := ledger.add(pending)

	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		CommissionIDs: []uuid.UUID{pendingID},
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(repo.payouts) != 0 {
		t.Fatal("no payout row should exist after rejection")
	}
	if ledger.commissions[pendingID].PayoutID != nil {
		t.Fatal("pending commission must stay unreserved")
	}
}

func TestRequestSkipsReservedCommissions(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	ledger.add(approvedCommission(vendorID, "80.00"))

	reserved := approvedCommission(vendorID, "500.00")
	otherPayout := uuid.New()
	reserved.PayoutID = &otherPayout
	ledger.add(reserved)

	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := payout.Amount.StringFixed(2); got != "80.00" {
		t.Fatalf("amount = %s, want 80.00 (reserved commission excluded)", got)
	}
}

func TestRequestBelowMinimum(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	ledger.add(approvedCommission(vendorID, "20.00"))

	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRequestVendorCannotRequestForOtherVendor(t *testing.T) {
	vendorID := uuid.New()
	otherID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.Request(context.Background(), RequestInput{
		VendorID:      otherID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestVendorCannotProcessOwnPayout(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	payout := &models.Payout{ID: uuid.New(), VendorID: vendorID, Status: enums.PayoutStatusPending}
	repo.payouts[payout.ID] = payout
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.Process(context.Background(), ProcessInput{
		PayoutID:      payout.ID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestCompleteCascadesCommissionsToPaid(t *testing.T) {
	vendorID := uuid.New()
	adminID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	out := &stubOutbox{}
	svc := newTestService(t, repo, ledger, out)

	first := ledger.add(approvedCommission(vendorID, "140.00"))
	second := ledger.add(approvedCommission(vendorID, "60.00"))

	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:    vendorID,
		ActorUserID: adminID,
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Process(context.Background(), ProcessInput{
		PayoutID:    payout.ID,
		ActorUserID: adminID,
		ActorRole:   enums.ActorRoleAdmin,
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	completed, err := svc.Complete(context.Background(), CompleteInput{
		PayoutID:             payout.ID,
		TransactionReference: "wire-2401",
		ActorUserID:          adminID,
		ActorRole:            enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != enums.PayoutStatusCompleted {
		t.Fatalf("status = %s, want completed", completed.Status)
	}
	if completed.TransactionReference == nil || *completed.TransactionReference != "wire-2401" {
		t.Fatal("transaction reference not recorded")
	}
	for _, id := range []uuid.UUID{first, second} {
		commission := ledger.commissions[id]
		if commission.Status != enums.CommissionStatusPaid {
			t.Fatalf("commission %s status = %s, want paid", id, commission.Status)
		}
		if commission.PaidAt == nil {
			t.Fatalf("commission %s missing paid_at", id)
		}
	}
	if !out.has(enums.EventPayoutCompleted) {
		t.Fatal("payout_completed event not emitted")
	}
}

func TestCompleteRequiresProcessingStatus(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	payout := &models.Payout{ID: uuid.New(), VendorID: vendorID, Status: enums.PayoutStatusPending}
	repo.payouts[payout.ID] = payout
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.Complete(context.Background(), CompleteInput{
		PayoutID:             payout.ID,
		TransactionReference: "wire-2401",
		ActorUserID:          uuid.New(),
		ActorRole:            enums.ActorRoleAdmin,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want state conflict", err)
	}
}

func TestFailReleasesReservedCommissions(t *testing.T) {
	vendorID := uuid.New()
	adminID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	out := &stubOutbox{}
	svc := newTestService(t, repo, ledger, out)

	commissionID := ledger.add(approvedCommission(vendorID, "140.00"))

	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:    vendorID,
		ActorUserID: adminID,
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Process(context.Background(), ProcessInput{
		PayoutID:    payout.ID,
		ActorUserID: adminID,
		ActorRole:   enums.ActorRoleAdmin,
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	failed, err := svc.Fail(context.Background(), FailInput{
		PayoutID:    payout.ID,
		Reason:      "bank transfer bounced",
		ActorUserID: adminID,
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if failed.Status != enums.PayoutStatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}

	commission := ledger.commissions[commissionID]
	if commission.PayoutID != nil {
		t.Fatal("commission must be released after failure")
	}
	if commission.Status != enums.CommissionStatusApproved {
		t.Fatalf("commission status = %s, want approved (payable again)", commission.Status)
	}
	if !out.has(enums.EventPayoutFailed) {
		t.Fatal("payout_failed event not emitted")
	}
}

func TestCancelPendingPayoutReleasesCommissions(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID}
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	commissionID := ledger.add(approvedCommission(vendorID, "140.00"))

	actorID := uuid.New()
	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		ActorUserID:   actorID,
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	cancelled, err := svc.Cancel(context.Background(), CancelInput{
		PayoutID:      payout.ID,
		ActorUserID:   actorID,
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.PayoutStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if ledger.commissions[commissionID].PayoutID != nil {
		t.Fatal("commission must be released after cancellation")
	}
}

func TestGetByIDVendorScope(t *testing.T) {
	vendorID := uuid.New()
	otherID := uuid.New()
	ledger := newStubLedger()
	repo := newStubPayoutsRepo(ledger)
	payout := &models.Payout{ID: uuid.New(), VendorID: vendorID, Status: enums.PayoutStatusPending}
	repo.payouts[payout.ID] = payout
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	_, err := svc.GetByID(context.Background(), GetInput{
		PayoutID:      payout.ID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &otherID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRequestMinimumVendorOverride(t *testing.T) {
	vendorID := uuid.New()
	ledger := newStubLedger()
	ledger.add(approvedCommission(vendorID, "20.00"))

	repo := newStubPayoutsRepo(ledger)
	override := decimal.RequireFromString("10")
	repo.vendors[vendorID] = &models.Vendor{ID: vendorID, MinPayoutAmount: &override}
	svc := newTestService(t, repo, ledger, &stubOutbox{})

	payout, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendorID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got := payout.Amount.StringFixed(2); got != "20.00" {
		t.Fatalf("amount = %s, want 20.00", got)
	}
}
