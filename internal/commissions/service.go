package commissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/config"
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
}

// Service owns the commission ledger: booking at checkout, admin approval,
// and cancellation when orders unwind.
type Service interface {
	BuildForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, actor *outbox.ActorRef) ([]models.Commission, error)
	Approve(ctx context.Context, input ApproveInput) (*models.Commission, error)
	ApproveMany(ctx context.Context, input ApproveManyInput) ([]models.Commission, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Commission, error)
	CancelPendingByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef, reason string) error
	GetByID(ctx context.Context, input GetInput) (*models.Commission, error)
	ListForVendor(ctx context.Context, input ListInput) ([]models.Commission, error)
	Summarize(ctx context.Context, input SummarizeInput) (*Summary, error)
}

type service struct {
	repo Repository
	tx   txRunner
	out  outboxPublisher
	cfg  config.CommissionConfig
}

// ApproveInput identifies the commission plus the acting admin.
type ApproveInput struct {
	CommissionID  uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ApproveManyInput approves a batch in one transaction; any failure rolls
// the whole batch back.
type ApproveManyInput struct {
	CommissionIDs []uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// CancelInput voids one commission that has not yet been paid out.
type CancelInput struct {
	CommissionID  uuid.UUID
	Reason        string
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// GetInput scopes a single read to the caller.
type GetInput struct {
	CommissionID  uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ListInput scopes a vendor listing to the caller.
type ListInput struct {
	VendorID      uuid.UUID
	Status        *enums.CommissionStatus
	Pagination    pagination.Params
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// SummarizeInput scopes the earnings rollup to the caller.
type SummarizeInput struct {
	VendorID      uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// SummaryBucket aggregates one commission status.
type SummaryBucket struct {
	Count            int64           `json:"count"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
}

// Summary is the vendor earnings dashboard payload.
type Summary struct {
	VendorID uuid.UUID                                `json:"vendor_id"`
	ByStatus map[enums.CommissionStatus]SummaryBucket `json:"by_status"`
	// Payable is the approved, not-yet-paid net total.
	Payable decimal.Decimal `json:"payable"`
}

// NewService wires the commission service with its dependencies.
func NewService(repo Repository, tx txRunner, out outboxPublisher, cfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commissions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if out == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, out: out, cfg: cfg}, nil
}

// RateResolutionDetail identifies the order line whose commission rate could
// not be resolved. Attached as error details on configuration failures.
type RateResolutionDetail struct {
	OrderItemID uuid.UUID  `json:"order_item_id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
}

// BuildForOrder books one commission per order item inside the caller's
// transaction. All-or-nothing: the first resolution failure aborts the whole
// batch so a partially-commissioned order never exists.
func (s *service) BuildForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, actor *outbox.ActorRef) ([]models.Commission, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	repo := s.repo.WithTx(tx)
	platformDefault := s.cfg.DefaultRateDecimal()
	platformFee := s.cfg.PlatformFeeDecimal()

	created := make([]models.Commission, 0, len(items))
	for _, item := range items {
		breakdown, source, err := s.resolveItem(ctx, repo, item, platformDefault, platformFee)
		if err != nil {
			if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeConfiguration {
				return nil, coded.WithDetails(RateResolutionDetail{
					OrderItemID: item.ID,
					ProductID:   item.ProductID,
				})
			}
			return nil, err
		}

		commission := models.Commission{
			VendorID:         item.VendorID,
			OrderID:          order.ID,
			OrderItemID:      item.ID,
			GrossAmount:      breakdown.GrossAmount,
			CommissionRate:   breakdown.Rate,
			CommissionAmount: breakdown.CommissionAmount,
			PlatformFee:      breakdown.PlatformFee,
			NetAmount:        breakdown.NetAmount,
			Status:           enums.CommissionStatusPending,
		}
		if err := repo.Create(ctx, &commission); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCommissionCreated,
			AggregateType: enums.AggregateCommission,
			AggregateID:   commission.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.CommissionCreatedEvent{
				CommissionID: commission.ID,
				OrderItemID:  item.ID,
				OrderID:      order.ID,
				VendorID:     item.VendorID,
				Rate:         breakdown.Rate,
				GrossAmount:  breakdown.GrossAmount,
				NetAmount:    breakdown.NetAmount,
				RateSource:   string(source),
			},
		}
		if err := s.out.Emit(ctx, tx, event); err != nil {
			return nil, err
		}
		created = append(created, commission)
	}
	return created, nil
}

func (s *service) resolveItem(ctx context.Context, repo Repository, item models.OrderItem, platformDefault, platformFee decimal.Decimal) (Breakdown, RateSource, error) {
	var brand *models.Brand
	if item.BrandID != nil {
		found, err := repo.FindBrand(ctx, *item.BrandID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Breakdown{}, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
		}
		brand = found
	}

	var vendor *models.Vendor
	if brand != nil && brand.VendorID != nil {
		found, err := repo.FindVendor(ctx, *brand.VendorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Breakdown{}, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		vendor = found
	}

	rate, source, err := ResolveRate(brand, vendor, platformDefault)
	if err != nil {
		return Breakdown{}, "", err
	}

	gross := decimal.NewFromInt(int64(item.TotalCents)).Div(decimal.NewFromInt(100))
	breakdown, err := Calculate(gross, rate, platformFee)
	if err != nil {
		return Breakdown{}, "", err
	}
	return breakdown, source, nil
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Commission, error) {
	results, err := s.ApproveMany(ctx, ApproveManyInput{
		CommissionIDs: []uuid.UUID{input.CommissionID},
		ActorUserID:   input.ActorUserID,
		ActorVendorID: input.ActorVendorID,
		ActorRole:     input.ActorRole,
	})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (s *service) ApproveMany(ctx context.Context, input ApproveManyInput) ([]models.Commission, error) {
	if len(input.CommissionIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission ids required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	// Approval moves money toward a vendor, so only platform admins may do
	// it. A vendor approving their own commission is the canonical abuse.
	if input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may approve commissions")
	}

	approved := make([]models.Commission, 0, len(input.CommissionIDs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now()
		for _, id := range input.CommissionIDs {
			commission, err := repo.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
			}
			if commission.Status != enums.CommissionStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending commissions can be approved")
			}

			item, err := repo.FindOrderItem(ctx, commission.OrderItemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
			}
			if item.Status != enums.OrderItemStatusDelivered {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order item must be delivered before approval")
			}

			actorID := input.ActorUserID
			updates := map[string]any{
				"approved_by": actorID,
				"approved_at": now,
			}
			if err := repo.UpdateStatus(ctx, commission.ID, enums.CommissionStatusApproved, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve commission")
			}
			commission.Status = enums.CommissionStatusApproved
			commission.ApprovedBy = &actorID
			commission.ApprovedAt = &now

			event := outbox.DomainEvent{
				EventType:     enums.EventCommissionApproved,
				AggregateType: enums.AggregateCommission,
				AggregateID:   commission.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole),
				Data: payloads.CommissionApprovedEvent{
					CommissionID: commission.ID,
					VendorID:     commission.VendorID,
					ApprovedBy:   actorID,
					ApprovedAt:   now,
				},
			}
			if err := s.out.Emit(ctx, tx, event); err != nil {
				return err
			}
			approved = append(approved, *commission)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Commission, error) {
	if input.CommissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may cancel commissions")
	}

	var cancelled *models.Commission
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		commission, err := repo.FindByID(ctx, input.CommissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
		}
		if commission.Status != enums.CommissionStatusPending && commission.Status != enums.CommissionStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commission cannot be cancelled in current state")
		}
		if commission.PayoutID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commission is reserved by a payout")
		}

		now := time.Now()
		if err := repo.UpdateStatus(ctx, commission.ID, enums.CommissionStatusCancelled, map[string]any{"cancelled_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel commission")
		}
		commission.Status = enums.CommissionStatusCancelled
		commission.CancelledAt = &now
		cancelled = commission

		event := outbox.DomainEvent{
			EventType:     enums.EventCommissionCancelled,
			AggregateType: enums.AggregateCommission,
			AggregateID:   commission.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole),
			Data: payloads.CommissionCancelledEvent{
				CommissionID: commission.ID,
				VendorID:     commission.VendorID,
				CancelledAt:  now,
				Reason:       input.Reason,
			},
		}
		return s.out.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CancelPendingByOrderTx voids all still-pending commissions of an order
// inside the caller's transaction. Used when an order is cancelled or
// refunded before any commission was approved.
func (s *service) CancelPendingByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	repo := s.repo.WithTx(tx)
	pending, err := repo.ListPendingByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending commissions")
	}

	now := time.Now()
	for _, commission := range pending {
		if err := repo.UpdateStatus(ctx, commission.ID, enums.CommissionStatusCancelled, map[string]any{"cancelled_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel commission")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCommissionCancelled,
			AggregateType: enums.AggregateCommission,
			AggregateID:   commission.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.CommissionCancelledEvent{
				CommissionID: commission.ID,
				VendorID:     commission.VendorID,
				CancelledAt:  now,
				Reason:       reason,
			},
		}
		if err := s.out.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, input GetInput) (*models.Commission, error) {
	if input.CommissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission id required")
	}
	commission, err := s.repo.FindByID(ctx, input.CommissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
	}
	if err := authorizeVendorScope(input.ActorRole, input.ActorVendorID, commission.VendorID); err != nil {
		return nil, err
	}
	return commission, nil
}

func (s *service) ListForVendor(ctx context.Context, input ListInput) ([]models.Commission, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if err := authorizeVendorScope(input.ActorRole, input.ActorVendorID, input.VendorID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByVendor(ctx, input.VendorID, input.Status, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commissions")
	}
	return rows, nil
}

func (s *service) Summarize(ctx context.Context, input SummarizeInput) (*Summary, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if err := authorizeVendorScope(input.ActorRole, input.ActorVendorID, input.VendorID); err != nil {
		return nil, err
	}

	totals, err := s.repo.SummarizeByVendor(ctx, input.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize commissions")
	}
	payable, err := s.repo.PayableNetByVendor(ctx, input.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "total payable commissions")
	}

	summary := &Summary{
		VendorID: input.VendorID,
		ByStatus: make(map[enums.CommissionStatus]SummaryBucket, len(totals)),
		Payable:  payable,
	}
	for _, row := range totals {
		summary.ByStatus[row.Status] = SummaryBucket{
			Count:            row.Count,
			CommissionAmount: row.CommissionAmount,
			NetAmount:        row.NetAmount,
		}
	}
	return summary, nil
}

// authorizeVendorScope lets admins read anything and vendors only their own
// rows. Customers have no business in the commission ledger.
func authorizeVendorScope(role enums.ActorRole, actorVendorID *uuid.UUID, vendorID uuid.UUID) error {
	switch role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if actorVendorID == nil || *actorVendorID != vendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "commission does not belong to vendor")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
}

func buildActor(userID uuid.UUID, vendorID *uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:   userID,
		VendorID: vendorID,
		Role:     string(role),
	}
}
