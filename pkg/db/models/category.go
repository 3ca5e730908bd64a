package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node of the admin-managed catalog tree. Top-level nodes with
// ShowInMenu form the mega-menu columns; children are ordered by Position.
type Category struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentID   *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Name       string     `gorm:"column:name;not null"`
	Slug       string     `gorm:"column:slug;not null;uniqueIndex"`
	Position   int        `gorm:"column:position;not null;default:0"`
	ShowInMenu bool       `gorm:"column:show_in_menu;not null;default:true"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true"`
	Children   []Category `gorm:"foreignKey:ParentID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
