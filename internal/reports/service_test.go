package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
)

type stubReportsRepo struct {
	orderAggs      map[string]OrderAggregate
	commissionAggs map[string]CommissionAggregate
	vendorIDs      []uuid.UUID
	upserts        []models.SalesReport
	listed         []models.SalesReport
}

func aggKey(vendorID *uuid.UUID) string {
	if vendorID == nil {
		return "platform"
	}
	return vendorID.String()
}

func (s *stubReportsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReportsRepo) AggregateOrders(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (OrderAggregate, error) {
	return s.orderAggs[aggKey(vendorID)], nil
}

func (s *stubReportsRepo) AggregateCommissions(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (CommissionAggregate, error) {
	return s.commissionAggs[aggKey(vendorID)], nil
}

func (s *stubReportsRepo) ActiveVendorIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error) {
	return s.vendorIDs, nil
}

func (s *stubReportsRepo) Upsert(ctx context.Context, report *models.SalesReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	s.upserts = append(s.upserts, *report)
	return nil
}

func (s *stubReportsRepo) List(ctx context.Context, reportType enums.ReportType, from, to time.Time, vendorID *uuid.UUID) ([]models.SalesReport, error) {
	return s.listed, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func TestWindowForDaily(t *testing.T) {
	ref := time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC)
	window := WindowFor(enums.ReportTypeDaily, ref)
	if !window.Start.Equal(time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", window.Start)
	}
	if !window.End.Equal(time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", window.End)
	}
}

func TestWindowForWeeklyKeysOnMonday(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	ref := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	window := WindowFor(enums.ReportTypeWeekly, ref)
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !window.ReportDate.Equal(monday) {
		t.Fatalf("report date = %v, want %v", window.ReportDate, monday)
	}
	if !window.End.Equal(monday.AddDate(0, 0, 7)) {
		t.Fatalf("end = %v", window.End)
	}
}

func TestWindowForMonthly(t *testing.T) {
	ref := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	window := WindowFor(enums.ReportTypeMonthly, ref)
	first := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !window.ReportDate.Equal(first) || !window.End.Equal(first.AddDate(0, 1, 0)) {
		t.Fatalf("window = %+v", window)
	}
}

func TestGenerateWritesPlatformAndVendorRows(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportsRepo{
		orderAggs: map[string]OrderAggregate{
			"platform":        {TotalOrders: 4, TotalItemsSold: 9, TotalRevenue: decimal.RequireFromString("920.00")},
			vendorID.String(): {TotalOrders: 2, TotalItemsSold: 3, TotalRevenue: decimal.RequireFromString("340.00")},
		},
		commissionAggs: map[string]CommissionAggregate{
			"platform":        {TotalCommissions: decimal.RequireFromString("92.00"), TotalPlatformFee: decimal.RequireFromString("8.00")},
			vendorID.String(): {TotalCommissions: decimal.RequireFromString("34.00"), TotalPlatformFee: decimal.RequireFromString("4.00")},
		},
		vendorIDs: []uuid.UUID{vendorID},
	}
	out := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, out)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows, err := svc.Generate(context.Background(), GenerateInput{
		ReportType: enums.ReportTypeDaily,
		Reference:  time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (platform + 1 vendor)", len(rows))
	}
	if rows[0].VendorID != nil {
		t.Fatal("first row must be the platform-wide rollup")
	}
	if got := rows[0].TotalRevenue.StringFixed(2); got != "920.00" {
		t.Fatalf("platform revenue = %s, want 920.00", got)
	}
	if rows[1].VendorID == nil || *rows[1].VendorID != vendorID {
		t.Fatalf("second row vendor = %v, want %s", rows[1].VendorID, vendorID)
	}
	if len(out.events) != 1 || out.events[0].EventType != enums.EventSalesReportGenerated {
		t.Fatalf("events = %+v, want one sales_report_generated", out.events)
	}
}

func TestGenerateRejectsUnknownReportType(t *testing.T) {
	svc, err := NewService(&stubReportsRepo{}, stubTxRunner{}, &stubOutbox{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	_, err = svc.Generate(context.Background(), GenerateInput{ReportType: enums.ReportType("hourly")})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestListVendorCannotReadPlatformRollup(t *testing.T) {
	vendorID := uuid.New()
	svc, err := NewService(&stubReportsRepo{}, stubTxRunner{}, &stubOutbox{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.List(context.Background(), ListInput{
		ReportType:    enums.ReportTypeDaily,
		From:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:            time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		VendorID:      nil,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestListVendorReadsOwnRows(t *testing.T) {
	vendorID := uuid.New()
	repo := &stubReportsRepo{listed: []models.SalesReport{{VendorID: &vendorID}}}
	svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows, err := svc.List(context.Background(), ListInput{
		ReportType:    enums.ReportTypeDaily,
		From:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:            time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		VendorID:      &vendorID,
		ActorUserID:   uuid.New(),
		ActorVendorID: &vendorID,
		ActorRole:     enums.ActorRoleVendor,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}
