package payouts

import (
	"context"
	"errors"
	"fmt"
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

// Service owns the payout lifecycle. A payout reserves approved commissions
// at request time by stamping their payout_id under a row lock, so the same
// commission can never be paid twice even under concurrent requests.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Payout, error)
	Process(ctx context.Context, input ProcessInput) (*models.Payout, error)
	Complete(ctx context.Context, input CompleteInput) (*models.Payout, error)
	Fail(ctx context.Context, input FailInput) (*models.Payout, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Payout, error)
	GetByID(ctx context.Context, input GetInput) (*models.Payout, error)
	ListForVendor(ctx context.Context, input ListInput) ([]models.Payout, error)
}

type service struct {
	repo    Repository
	comRepo commissions.Repository
	tx      txRunner
	out     outboxPublisher
	cfg     config.CommissionConfig
}

// RequestInput creates a payout batch for a vendor. CommissionIDs narrows
// the batch to specific commissions; when empty, every approved unreserved
// commission of the vendor is taken.
type RequestInput struct {
	VendorID      uuid.UUID
	CommissionIDs []uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ProcessInput moves a pending payout into processing.
type ProcessInput struct {
	PayoutID      uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// CompleteInput settles a processing payout against a bank transfer.
type CompleteInput struct {
	PayoutID             uuid.UUID
	TransactionReference string
	ActorUserID          uuid.UUID
	ActorVendorID        *uuid.UUID
	ActorRole            enums.ActorRole
}

// FailInput records a failed transfer and releases the reserved commissions.
type FailInput struct {
	PayoutID      uuid.UUID
	Reason        string
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// CancelInput withdraws a payout that has not started processing.
type CancelInput struct {
	PayoutID      uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// GetInput scopes a single read to the caller.
type GetInput struct {
	PayoutID      uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// ListInput scopes a vendor listing to the caller.
type ListInput struct {
	VendorID      uuid.UUID
	Status        *enums.PayoutStatus
	Pagination    pagination.Params
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// NewService wires the payout service with its dependencies.
func NewService(repo Repository, comRepo commissions.Repository, tx txRunner, out outboxPublisher, cfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if comRepo == nil {
		return nil, fmt.Errorf("commissions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if out == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, comRepo: comRepo, tx: tx, out: out, cfg: cfg}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.Payout, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch input.ActorRole {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleVendor:
		if input.ActorVendorID == nil || *input.ActorVendorID != input.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendors may only request their own payouts")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		comRepo := s.comRepo.WithTx(tx)

		vendor, err := repo.FindVendor(ctx, input.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}

		// FOR UPDATE: two concurrent requests for the same vendor serialize
		// here, and the loser sees payout_id already set.
		eligible, err := comRepo.ListApprovedUnlinkedForUpdate(ctx, input.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock eligible commissions")
		}

		batch, err := selectBatch(eligible, input.CommissionIDs)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no approved commissions available for payout")
		}

		amount := decimal.Zero
		ids := make([]uuid.UUID, 0, len(batch))
		for _, commission := range batch {
			amount = amount.Add(commission.NetAmount)
			ids = append(ids, commission.ID)
		}

		minimum := s.cfg.MinPayoutDecimal()
		if vendor.MinPayoutAmount != nil {
			minimum = *vendor.MinPayoutAmount
		}
		if amount.LessThan(minimum) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("payout amount %s is below the minimum of %s", amount.StringFixed(2), minimum.StringFixed(2)))
		}

		fee := s.cfg.ProcessingFeeDecimal()
		if fee.GreaterThan(amount) {
			fee = amount
		}

		payout = &models.Payout{
			VendorID:      input.VendorID,
			Amount:        amount,
			ProcessingFee: fee,
			NetAmount:     amount.Sub(fee),
			BankAccount:   vendor.BankAccount,
			Status:        enums.PayoutStatusPending,
			RequestedBy:   input.ActorUserID,
		}
		if err := repo.Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		if err := comRepo.LinkToPayout(ctx, ids, payout.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve commissions")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole),
			Data: payloads.PayoutRequestedEvent{
				PayoutID:      payout.ID,
				VendorID:      input.VendorID,
				RequestedBy:   input.ActorUserID,
				Amount:        payout.Amount,
				NetAmount:     payout.NetAmount,
				CommissionIDs: ids,
			},
		}
		return s.out.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// selectBatch narrows the locked eligible set to the requested commission
// IDs. Asking for a commission that is not approved-and-unreserved is a
// validation failure, not a silent skip.
func selectBatch(eligible []models.Commission, requested []uuid.UUID) ([]models.Commission, error) {
	if len(requested) == 0 {
		return eligible, nil
	}

	byID := make(map[uuid.UUID]models.Commission, len(eligible))
	for _, commission := range eligible {
		byID[commission.ID] = commission
	}

	batch := make([]models.Commission, 0, len(requested))
	for _, id := range requested {
		commission, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("commission %s is not eligible for payout", id))
		}
		batch = append(batch, commission)
	}
	return batch, nil
}

func (s *service) Process(ctx context.Context, input ProcessInput) (*models.Payout, error) {
	if err := requireAdmin(input.ActorUserID, input.ActorRole); err != nil {
		return nil, err
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadPayout(ctx, repo, input.PayoutID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payouts can be processed")
		}

		now := time.Now()
		actorID := input.ActorUserID
		updates := map[string]any{
			"status":       enums.PayoutStatusProcessing,
			"processed_by": actorID,
			"processed_at": now,
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		loaded.Status = enums.PayoutStatusProcessing
		loaded.ProcessedBy = &actorID
		loaded.ProcessedAt = &now
		payout = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Complete settles the payout and cascades its reserved commissions to paid
// in the same transaction. Either the payout completes and every commission
// flips, or neither happens.
func (s *service) Complete(ctx context.Context, input CompleteInput) (*models.Payout, error) {
	if err := requireAdmin(input.ActorUserID, input.ActorRole); err != nil {
		return nil, err
	}
	if input.TransactionReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadPayout(ctx, repo, input.PayoutID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.PayoutStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only processing payouts can be completed")
		}

		now := time.Now()
		ref := input.TransactionReference
		updates := map[string]any{
			"status":                enums.PayoutStatusCompleted,
			"transaction_reference": ref,
			"completed_at":          now,
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		if err := s.comRepo.WithTx(tx).MarkPaidByPayout(ctx, loaded.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark commissions paid")
		}
		loaded.Status = enums.PayoutStatusCompleted
		loaded.TransactionReference = &ref
		loaded.CompletedAt = &now
		payout = loaded

		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutCompleted,
			AggregateType: enums.AggregatePayout,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole),
			Data: payloads.PayoutCompletedEvent{
				PayoutID:             loaded.ID,
				VendorID:             loaded.VendorID,
				NetAmount:            loaded.NetAmount,
				TransactionReference: ref,
				CompletedAt:          now,
			},
		}
		return s.out.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) Fail(ctx context.Context, input FailInput) (*models.Payout, error) {
	if err := requireAdmin(input.ActorUserID, input.ActorRole); err != nil {
		return nil, err
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "failure reason required")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadPayout(ctx, repo, input.PayoutID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.PayoutStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only processing payouts can be failed")
		}

		reason := input.Reason
		updates := map[string]any{
			"status":         enums.PayoutStatusFailed,
			"failure_reason": reason,
		}
		if err := repo.Update(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		// Reserved commissions stay approved and return to the payable pool.
		if err := s.comRepo.WithTx(tx).UnlinkFromPayout(ctx, loaded.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release commissions")
		}
		loaded.Status = enums.PayoutStatusFailed
		loaded.FailureReason = &reason
		payout = loaded

		ids := make([]uuid.UUID, 0, len(loaded.Commissions))
		for _, commission := range loaded.Commissions {
			ids = append(ids, commission.ID)
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPayoutFailed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorVendorID, input.ActorRole),
			Data: payloads.PayoutFailedEvent{
				PayoutID:      loaded.ID,
				VendorID:      loaded.VendorID,
				FailureReason: reason,
				CommissionIDs: ids,
			},
		}
		return s.out.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Payout, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var payout *models.Payout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadPayout(ctx, repo, input.PayoutID)
		if err != nil {
			return err
		}
		switch input.ActorRole {
		case enums.ActorRoleAdmin:
		case enums.ActorRoleVendor:
			if input.ActorVendorID == nil || *input.ActorVendorID != loaded.VendorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "payout does not belong to vendor")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
		}
		if loaded.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending payouts can be cancelled")
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{"status": enums.PayoutStatusCancelled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}
		if err := s.comRepo.WithTx(tx).UnlinkFromPayout(ctx, loaded.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release commissions")
		}
		loaded.Status = enums.PayoutStatusCancelled
		payout = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) GetByID(ctx context.Context, input GetInput) (*models.Payout, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := loadPayout(ctx, s.repo, input.PayoutID)
	if err != nil {
		return nil, err
	}
	if err := authorizeVendorScope(input.ActorRole, input.ActorVendorID, payout.VendorID); err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) ListForVendor(ctx context.Context, input ListInput) ([]models.Payout, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if err := authorizeVendorScope(input.ActorRole, input.ActorVendorID, input.VendorID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByVendor(ctx, input.VendorID, input.Status, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return rows, nil
}

func loadPayout(ctx context.Context, repo Repository, id uuid.UUID) (*models.Payout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

// requireAdmin gates the transfer-side transitions. Vendors never move their
// own payouts through processing, even for their own vendor.
func requireAdmin(userID uuid.UUID, role enums.ActorRole) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if role != enums.ActorRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may manage payout processing")
	}
	return nil
}

func authorizeVendorScope(role enums.ActorRole, actorVendorID *uuid.UUID, vendorID uuid.UUID) error {
	switch role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if actorVendorID == nil || *actorVendorID != vendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payout does not belong to vendor")
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
