package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// SalesReport is a derived rollup of orders and commissions for one window.
// A NULL VendorID means platform-wide. The row is regenerable at any time;
// it is never the source of truth.
type SalesReport struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReportType       enums.ReportType `gorm:"column:report_type;type:report_type;not null;uniqueIndex:ux_sales_reports_window"`
	ReportDate       time.Time        `gorm:"column:report_date;type:date;not null;uniqueIndex:ux_sales_reports_window"`
	VendorID         *uuid.UUID       `gorm:"column:vendor_id;type:uuid;uniqueIndex:ux_sales_reports_window"`
	TotalOrders      int              `gorm:"column:total_orders;not null;default:0"`
	TotalItemsSold   int              `gorm:"column:total_items_sold;not null;default:0"`
	TotalRevenue     decimal.Decimal  `gorm:"column:total_revenue;type:decimal(14,2);not null;default:0"`
	TotalCommissions decimal.Decimal  `gorm:"column:total_commissions;type:decimal(14,2);not null;default:0"`
	TotalPlatformFee decimal.Decimal  `gorm:"column:total_platform_fee;type:decimal(14,2);not null;default:0"`
	GeneratedAt      time.Time        `gorm:"column:generated_at;not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
