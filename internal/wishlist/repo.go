package wishlist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

// Entry is one wishlist row joined with its product summary.
type Entry struct {
	WishlistID        uuid.UUID  `gorm:"column:wishlist_id"`
	WishlistCreatedAt time.Time  `gorm:"column:wishlist_created_at"`
	ProductID         uuid.UUID  `gorm:"column:product_id"`
	Name              string     `gorm:"column:name"`
	Slug              string     `gorm:"column:slug"`
	PriceCents        int        `gorm:"column:price_cents"`
	SalePriceCents    *int       `gorm:"column:sale_price_cents"`
	IsActive          bool       `gorm:"column:is_active"`
	BrandID           *uuid.UUID `gorm:"column:brand_id"`
}

// Repository encapsulates wishlist persistence.
type Repository interface {
	AddItem(ctx context.Context, customerID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error
	ListItems(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]Entry, string, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *repository) AddItem(ctx context.Context, customerID, productID uuid.UUID) error {
	if customerID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (customer_id, product_id) VALUES (?, ?) ON CONFLICT (customer_id, product_id) DO NOTHING`, customerID, productID).
		Error
}

// RemoveItem deletes the customer-product entry if it exists.
func (r *repository) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

// ListItems returns a cursor page of wishlist entries, newest first.
func (r *repository) ListItems(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]Entry, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join([]string{
			"wi.id AS wishlist_id",
			"wi.created_at AS wishlist_created_at",
			"p.id AS product_id",
			"p.name",
			"p.slug",
			"p.price_cents",
			"p.sale_price_cents",
			"p.is_active",
			"p.brand_id",
		}, ", ")).
		Joins("JOIN products p ON p.id = wi.product_id").
		Where("wi.customer_id = ?", customerID)

	if cursor != nil {
		query = query.Where("(wi.created_at < ?) OR (wi.created_at = ? AND wi.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []Entry
	if err := query.
		Order("wi.created_at DESC").
		Order("wi.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.WishlistCreatedAt, ID: last.WishlistID})
	}
	return records, next, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
