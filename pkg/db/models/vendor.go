package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/types"
)

// Vendor is a seller account that owns brands and earns commissions.
// CommissionRate overrides the platform default when set; brand-level rates
// override both.
type Vendor struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string              `gorm:"column:name;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Email           string              `gorm:"column:email;not null"`
	CommissionRate  *decimal.Decimal    `gorm:"column:commission_rate;type:decimal(5,4)"`
	MinPayoutAmount *decimal.Decimal    `gorm:"column:min_payout_amount;type:decimal(12,2)"`
	BankAccount     *types.BankAccount  `gorm:"column:bank_account;type:jsonb;serializer:json"`
	IsActive        bool                `gorm:"column:is_active;not null;default:true"`
	Brands          []Brand             `gorm:"foreignKey:VendorID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
