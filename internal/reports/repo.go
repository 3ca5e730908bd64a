package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// OrderAggregate is the order-side rollup for one window.
type OrderAggregate struct {
	TotalOrders    int
	TotalItemsSold int
	TotalRevenue   decimal.Decimal
}

// CommissionAggregate is the commission-side rollup for one window.
type CommissionAggregate struct {
	TotalCommissions decimal.Decimal
	TotalPlatformFee decimal.Decimal
}

// Repository aggregates the order and commission ledgers into report rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AggregateOrders(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (OrderAggregate, error)
	AggregateCommissions(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (CommissionAggregate, error)
	ActiveVendorIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error)
	Upsert(ctx context.Context, report *models.SalesReport) error
	List(ctx context.Context, reportType enums.ReportType, from, to time.Time, vendorID *uuid.UUID) ([]models.SalesReport, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Paid orders only; cancelled and refunded orders never count as revenue.
const countableOrders = "orders.payment_status = 'paid' AND orders.status NOT IN ('cancelled', 'refunded')"

func (r *repository) AggregateOrders(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (OrderAggregate, error) {
	var row struct {
		TotalOrders    int
		TotalItemsSold int
		TotalRevenue   decimal.Decimal
	}

	query := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(countableOrders).
		Where("orders.created_at >= ? AND orders.created_at < ?", start, end).
		Where("order_items.status <> 'cancelled'")
	if vendorID != nil {
		query = query.Where("order_items.vendor_id = ?", *vendorID)
	}

	err := query.
		Select("COUNT(DISTINCT orders.id) AS total_orders, COALESCE(SUM(order_items.qty), 0) AS total_items_sold, COALESCE(SUM(order_items.total_cents), 0) / 100.0 AS total_revenue").
		Scan(&row).Error
	if err != nil {
		return OrderAggregate{}, err
	}
	return OrderAggregate{
		TotalOrders:    row.TotalOrders,
		TotalItemsSold: row.TotalItemsSold,
		TotalRevenue:   row.TotalRevenue,
	}, nil
}

func (r *repository) AggregateCommissions(ctx context.Context, start, end time.Time, vendorID *uuid.UUID) (CommissionAggregate, error) {
	var row struct {
		TotalCommissions decimal.Decimal
		TotalPlatformFee decimal.Decimal
	}

	query := r.db.WithContext(ctx).
		Table("commissions").
		Where("commissions.status <> 'cancelled'").
		Where("commissions.created_at >= ? AND commissions.created_at < ?", start, end)
	if vendorID != nil {
		query = query.Where("commissions.vendor_id = ?", *vendorID)
	}

	err := query.
		Select("COALESCE(SUM(commissions.commission_amount), 0) AS total_commissions, COALESCE(SUM(commissions.platform_fee), 0) AS total_platform_fee").
		Scan(&row).Error
	if err != nil {
		return CommissionAggregate{}, err
	}
	return CommissionAggregate{
		TotalCommissions: row.TotalCommissions,
		TotalPlatformFee: row.TotalPlatformFee,
	}, nil
}

func (r *repository) ActiveVendorIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(countableOrders).
		Where("orders.created_at >= ? AND orders.created_at < ?", start, end).
		Distinct("order_items.vendor_id").
		Pluck("order_items.vendor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Upsert replaces the row for the same window if one exists. Reports are
// derived data, so regeneration always wins.
func (r *repository) Upsert(ctx context.Context, report *models.SalesReport) error {
	query := r.db.WithContext(ctx).
		Where("report_type = ? AND report_date = ?", report.ReportType, report.ReportDate)
	if report.VendorID == nil {
		query = query.Where("vendor_id IS NULL")
	} else {
		query = query.Where("vendor_id = ?", *report.VendorID)
	}

	var existing models.SalesReport
	err := query.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(report).Error
	}
	if err != nil {
		return err
	}

	report.ID = existing.ID
	return r.db.WithContext(ctx).
		Model(&models.SalesReport{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"total_orders":       report.TotalOrders,
			"total_items_sold":   report.TotalItemsSold,
			"total_revenue":      report.TotalRevenue,
			"total_commissions":  report.TotalCommissions,
			"total_platform_fee": report.TotalPlatformFee,
			"generated_at":       report.GeneratedAt,
		}).Error
}

func (r *repository) List(ctx context.Context, reportType enums.ReportType, from, to time.Time, vendorID *uuid.UUID) ([]models.SalesReport, error) {
	query := r.db.WithContext(ctx).
		Where("report_type = ?", reportType).
		Where("report_date >= ? AND report_date <= ?", from, to)
	if vendorID == nil {
		query = query.Where("vendor_id IS NULL")
	} else {
		query = query.Where("vendor_id = ?", *vendorID)
	}

	var rows []models.SalesReport
	if err := query.Order("report_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
