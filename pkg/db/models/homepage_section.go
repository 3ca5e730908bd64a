package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/nexusfashion/nexus-backend/pkg/db/types"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// HomepageSection is one admin-ordered block on the storefront homepage.
// Depending on the type it points at a category, a brand, or a curated
// product list carried in Payload.
type HomepageSection struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type       enums.HomepageSectionType `gorm:"column:type;type:homepage_section_type;not null"`
	Title      string                    `gorm:"column:title;not null"`
	Subtitle   *string                   `gorm:"column:subtitle"`
	CategoryID *uuid.UUID                `gorm:"column:category_id;type:uuid"`
	BrandID    *uuid.UUID                `gorm:"column:brand_id;type:uuid"`
	ProductIDs dbtypes.UUIDArray         `gorm:"column:product_ids;type:uuid[]"`
	ImageURL   *string                   `gorm:"column:image_url"`
	LinkURL    *string                   `gorm:"column:link_url"`
	Position   int                       `gorm:"column:position;not null;default:0"`
	IsActive   bool                      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
