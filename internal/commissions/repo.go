package commissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

// StatusTotal is one row of the per-vendor earnings rollup.
type StatusTotal struct {
	Status           enums.CommissionStatus `gorm:"column:status"`
	Count            int64                  `gorm:"column:count"`
	CommissionAmount decimal.Decimal        `gorm:"column:commission_amount"`
	NetAmount        decimal.Decimal        `gorm:"column:net_amount"`
}

// Repository manages persistence for commissions plus the brand/vendor
// lookups the rate resolver needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, commission *models.Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	FindByOrderItemID(ctx context.Context, orderItemID uuid.UUID) (*models.Commission, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.CommissionStatus, params pagination.Params) ([]models.Commission, error)
	SummarizeByVendor(ctx context.Context, vendorID uuid.UUID) ([]StatusTotal, error)
	PayableNetByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
	ListApprovedUnlinkedForUpdate(ctx context.Context, vendorID uuid.UUID) ([]models.Commission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus, updates map[string]any) error
	LinkToPayout(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) error
	UnlinkFromPayout(ctx context.Context, payoutID uuid.UUID) error
	MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) error
	ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error)
	FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	FindBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commissions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.WithContext(ctx).First(&commission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *repository) FindByOrderItemID(ctx context.Context, orderItemID uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.WithContext(ctx).First(&commission, "order_item_id = ?", orderItemID).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	var rows []models.Commission
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.CommissionStatus, params pagination.Params) ([]models.Commission, error) {
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Commission
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SummarizeByVendor(ctx context.Context, vendorID uuid.UUID) ([]StatusTotal, error) {
	var rows []StatusTotal
	if err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(commission_amount), 0) AS commission_amount, COALESCE(SUM(net_amount), 0) AS net_amount").
		Where("vendor_id = ?", vendorID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PayableNetByVendor totals the approved commissions not yet reserved by a
// payout. Same predicate as ListApprovedUnlinkedForUpdate, without the lock.
func (r *repository) PayableNetByVendor(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("COALESCE(SUM(net_amount), 0) AS total").
		Where("vendor_id = ? AND status = ? AND payout_id IS NULL", vendorID, enums.CommissionStatusApproved).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// ListApprovedUnlinkedForUpdate row-locks the vendor's payable commissions so
// concurrent payout requests cannot reserve the same rows.
func (r *repository) ListApprovedUnlinkedForUpdate(ctx context.Context, vendorID uuid.UUID) ([]models.Commission, error) {
	var rows []models.Commission
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ? AND status = ? AND payout_id IS NULL", vendorID, enums.CommissionStatusApproved).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus, updates map[string]any) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = status
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) LinkToPayout(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id IN ?", ids).
		Update("payout_id", payoutID).Error
}

func (r *repository) UnlinkFromPayout(ctx context.Context, payoutID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("payout_id = ?", payoutID).
		Update("payout_id", nil).Error
}

func (r *repository) MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("payout_id = ? AND status = ?", payoutID, enums.CommissionStatusApproved).
		Updates(map[string]any{
			"status":  enums.CommissionStatusPaid,
			"paid_at": paidAt,
		}).Error
}

func (r *repository) ListPendingByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	var rows []models.Commission
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.CommissionStatusPending).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *repository) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}
