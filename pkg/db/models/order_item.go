package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// OrderItem is one product line scoped to a single vendor. The commission
// rate resolved at checkout is snapshotted here so later rate changes never
// rewrite history. TotalCents = UnitPriceCents * Qty.
type OrderItem struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	VendorID       uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	BrandID        *uuid.UUID            `gorm:"column:brand_id;type:uuid"`
	Name           string                `gorm:"column:name;not null"`
	SKU            *string               `gorm:"column:sku"`
	UnitPriceCents int                   `gorm:"column:unit_price_cents;not null"`
	Qty            int                   `gorm:"column:qty;not null"`
	TotalCents     int                   `gorm:"column:total_cents;not null"`
	CommissionRate *decimal.Decimal      `gorm:"column:commission_rate;type:decimal(5,4)"`
	Status         enums.OrderItemStatus `gorm:"column:status;type:order_item_status;not null;default:'pending'"`
	Notes          *string               `gorm:"column:notes"`
	DeliveredAt    *time.Time            `gorm:"column:delivered_at"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
