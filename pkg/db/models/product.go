package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is one sellable catalog entry. Prices are integer cents. VendorID
// is the owning vendor used for order routing; the brand chain only carries
// commission rates and can be absent or broken independently.
type Product struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID       uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;index"`
	BrandID        *uuid.UUID `gorm:"column:brand_id;type:uuid;index"`
	CategoryID     *uuid.UUID `gorm:"column:category_id;type:uuid;index"`
	Name           string     `gorm:"column:name;not null"`
	Slug           string     `gorm:"column:slug;not null;uniqueIndex"`
	Description    *string    `gorm:"column:description"`
	PriceCents     int        `gorm:"column:price_cents;not null"`
	SalePriceCents *int       `gorm:"column:sale_price_cents"`
	StockQty       int        `gorm:"column:stock_qty;not null;default:0"`
	IsActive       bool       `gorm:"column:is_active;not null;default:true"`
	IsFeatured     bool       `gorm:"column:is_featured;not null;default:false"`
	Brand          *Brand     `gorm:"foreignKey:BrandID"`
	Category       *Category  `gorm:"foreignKey:CategoryID"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents returns the sale price when one is set.
func (p Product) EffectivePriceCents() int {
	if p.SalePriceCents != nil && *p.SalePriceCents > 0 && *p.SalePriceCents < p.PriceCents {
		return *p.SalePriceCents
	}
	return p.PriceCents
}
