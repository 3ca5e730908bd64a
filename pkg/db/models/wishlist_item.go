package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem marks one product saved by one customer.
type WishlistItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index;uniqueIndex:ux_wishlist_customer_product"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_wishlist_customer_product"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
