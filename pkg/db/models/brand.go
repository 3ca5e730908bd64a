package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Brand groups products under one vendor. A brand-level commission rate, when
// present, takes precedence over the owning vendor's rate.
type Brand struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID       *uuid.UUID       `gorm:"column:vendor_id;type:uuid;index"`
	Name           string           `gorm:"column:name;not null"`
	Slug           string           `gorm:"column:slug;not null;uniqueIndex"`
	CommissionRate *decimal.Decimal `gorm:"column:commission_rate;type:decimal(5,4)"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	Vendor         *Vendor          `gorm:"foreignKey:VendorID"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
