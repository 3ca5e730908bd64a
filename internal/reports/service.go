package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service generates and serves sales report rollups. Rows are derived from
// the order and commission ledgers and can be regenerated at any time.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) ([]models.SalesReport, error)
	List(ctx context.Context, input ListInput) ([]models.SalesReport, error)
}

// GenerateInput selects the window to (re)build: one platform-wide row plus
// one row per vendor with activity in the window.
type GenerateInput struct {
	ReportType enums.ReportType
	Reference  time.Time
}

// ListInput scopes a report query to the caller.
type ListInput struct {
	ReportType    enums.ReportType
	From          time.Time
	To            time.Time
	VendorID      *uuid.UUID
	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

type service struct {
	repo Repository
	tx   txRunner
	out  outboxPublisher
}

// NewService wires the reports service.
func NewService(repo Repository, tx txRunner, out outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if out == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, out: out}, nil
}

func (s *service) Generate(ctx context.Context, input GenerateInput) ([]models.SalesReport, error) {
	if !input.ReportType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report type")
	}
	ref := input.Reference
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	window := WindowFor(input.ReportType, ref)

	var generated []models.SalesReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		platform, err := s.buildRow(ctx, repo, input.ReportType, window, nil, now)
		if err != nil {
			return err
		}
		generated = append(generated, *platform)

		vendorIDs, err := repo.ActiveVendorIDs(ctx, window.Start, window.End)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active vendors")
		}
		for _, vendorID := range vendorIDs {
			id := vendorID
			row, err := s.buildRow(ctx, repo, input.ReportType, window, &id, now)
			if err != nil {
				return err
			}
			generated = append(generated, *row)
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventSalesReportGenerated,
			AggregateType: enums.AggregateReport,
			AggregateID:   platform.ID,
			Version:       1,
			Data: payloads.SalesReportGeneratedEvent{
				ReportID:   platform.ID,
				ReportType: input.ReportType,
				ReportDate: window.ReportDate,
			},
		}
		return s.out.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return generated, nil
}

func (s *service) buildRow(ctx context.Context, repo Repository, reportType enums.ReportType, window Window, vendorID *uuid.UUID, now time.Time) (*models.SalesReport, error) {
	orderAgg, err := repo.AggregateOrders(ctx, window.Start, window.End, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate orders")
	}
	commissionAgg, err := repo.AggregateCommissions(ctx, window.Start, window.End, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate commissions")
	}

	report := &models.SalesReport{
		ReportType:       reportType,
		ReportDate:       window.ReportDate,
		VendorID:         vendorID,
		TotalOrders:      orderAgg.TotalOrders,
		TotalItemsSold:   orderAgg.TotalItemsSold,
		TotalRevenue:     orderAgg.TotalRevenue,
		TotalCommissions: commissionAgg.TotalCommissions,
		TotalPlatformFee: commissionAgg.TotalPlatformFee,
		GeneratedAt:      now,
	}
	if err := repo.Upsert(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert report")
	}
	return report, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.SalesReport, error) {
	if !input.ReportType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report type")
	}
	if input.From.IsZero() || input.To.IsZero() || input.To.Before(input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report range")
	}

	switch input.ActorRole {
	case enums.ActorRoleAdmin:
	case enums.ActorRoleVendor:
		// Vendors only ever see their own rows; platform-wide rollups and
		// other vendors' rows are admin territory.
		if input.VendorID == nil || input.ActorVendorID == nil || *input.ActorVendorID != *input.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reports are scoped to the requesting vendor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}

	rows, err := s.repo.List(ctx, input.ReportType, input.From, input.To, input.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	return rows, nil
}
