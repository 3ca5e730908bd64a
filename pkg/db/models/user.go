package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/pkg/enums"
)

// User is a platform account: customer, vendor operator, or admin.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name;not null"`
	LastName     string          `gorm:"column:last_name;not null"`
	Role         enums.ActorRole `gorm:"column:role;type:actor_role;not null;default:'customer'"`
	VendorID     *uuid.UUID      `gorm:"column:vendor_id;type:uuid"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
