package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// Commission is the vendor earning record for exactly one order item
// (enforced by the unique index on OrderItemID). PayoutID is set when the
// commission is linked into a payout batch; a commission can belong to at
// most one payout, which is what makes concurrent payout requests safe.
type Commission struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID      uuid.UUID              `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	PayoutID         *uuid.UUID             `gorm:"column:payout_id;type:uuid;index"`
	GrossAmount      decimal.Decimal        `gorm:"column:gross_amount;type:decimal(12,2);not null"`
	CommissionRate   decimal.Decimal        `gorm:"column:commission_rate;type:decimal(5,4);not null"`
	CommissionAmount decimal.Decimal        `gorm:"column:commission_amount;type:decimal(12,2);not null"`
	PlatformFee      decimal.Decimal        `gorm:"column:platform_fee;type:decimal(12,2);not null;default:0"`
	NetAmount        decimal.Decimal        `gorm:"column:net_amount;type:decimal(12,2);not null"`
	Status           enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'pending'"`
	ApprovedBy       *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovedAt       *time.Time             `gorm:"column:approved_at"`
	PaidAt           *time.Time             `gorm:"column:paid_at"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
