package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	dbtypes "github.com/nexusfashion/nexus-backend/pkg/db/types"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

// MenuColumn is one top-level mega-menu entry with its ordered children.
type MenuColumn struct {
	Category models.Category
	Children []models.Category
}

// ListProductsInput carries storefront product listing filters.
type ListProductsInput struct {
	CategoryID   *uuid.UUID
	BrandID      *uuid.UUID
	VendorID     *uuid.UUID
	Search       string
	FeaturedOnly bool
	Pagination   pagination.Params
}

// CreateProductInput carries fields for a new catalog product.
type CreateProductInput struct {
	Name           string
	Slug           string
	Description    *string
	PriceCents     int
	SalePriceCents *int
	StockQty       int
	CategoryID     *uuid.UUID
	BrandID        *uuid.UUID
	VendorID       uuid.UUID
	IsFeatured     bool

	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// UpdateProductInput carries a partial product update. Nil fields are left
// untouched.
type UpdateProductInput struct {
	ProductID      uuid.UUID
	Name           *string
	Description    *string
	PriceCents     *int
	SalePriceCents *int
	StockQty       *int
	CategoryID     *uuid.UUID
	BrandID        *uuid.UUID
	IsActive       *bool
	IsFeatured     *bool

	ActorUserID   uuid.UUID
	ActorVendorID *uuid.UUID
	ActorRole     enums.ActorRole
}

// SaveBrandInput carries fields for creating or updating a brand.
type SaveBrandInput struct {
	BrandID        *uuid.UUID
	Name           string
	Slug           string
	VendorID       *uuid.UUID
	CommissionRate *decimal.Decimal
	IsActive       *bool

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// SaveCategoryInput carries fields for creating or updating a category.
type SaveCategoryInput struct {
	CategoryID *uuid.UUID
	Name       string
	Slug       string
	ParentID   *uuid.UUID
	Position   int
	ShowInMenu bool
	IsActive   *bool

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// SaveSectionInput carries fields for creating or updating a homepage section.
type SaveSectionInput struct {
	SectionID  *uuid.UUID
	Type       enums.HomepageSectionType
	Title      string
	Subtitle   *string
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	ProductIDs dbtypes.UUIDArray
	ImageURL   *string
	LinkURL    *string
	Position   int
	IsActive   *bool

	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Service exposes the storefront catalog reads and the admin/vendor writes
// behind them.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, string, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	MegaMenu(ctx context.Context) ([]MenuColumn, error)
	Homepage(ctx context.Context) ([]models.HomepageSection, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, input UpdateProductInput) (*models.Product, error)
	SaveBrand(ctx context.Context, input SaveBrandInput) (*models.Brand, error)
	SaveCategory(ctx context.Context, input SaveCategoryInput) (*models.Category, error)
	SaveSection(ctx context.Context, input SaveSectionInput) (*models.HomepageSection, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog: repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, string, error) {
	filter := ProductFilter{
		CategoryID:   input.CategoryID,
		BrandID:      input.BrandID,
		VendorID:     input.VendorID,
		Search:       strings.TrimSpace(input.Search),
		FeaturedOnly: input.FeaturedOnly,
	}
	rows, err := s.repo.ListProducts(ctx, filter, input.Pagination)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindProductBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// MegaMenu assembles the navigation tree: active top-level categories flagged
// for the menu, ordered by position, each with its active children.
func (s *service) MegaMenu(ctx context.Context) ([]MenuColumn, error) {
	categories, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load categories")
	}

	childrenOf := make(map[uuid.UUID][]models.Category)
	for _, c := range categories {
		if c.ParentID != nil {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		}
	}

	var columns []MenuColumn
	for _, c := range categories {
		if c.ParentID != nil || !c.ShowInMenu {
			continue
		}
		columns = append(columns, MenuColumn{
			Category: c,
			Children: childrenOf[c.ID],
		})
	}
	return columns, nil
}

func (s *service) Homepage(ctx context.Context) ([]models.HomepageSection, error) {
	sections, err := s.repo.ListActiveSections(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load homepage sections")
	}
	return sections, nil
}

func (s *service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.repo.ListBrands(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list brands")
	}
	return brands, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := authorizeVendorWrite(input.ActorRole, input.ActorVendorID, input.VendorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name and slug are required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.SalePriceCents != nil && *input.SalePriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
	}
	if input.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if input.BrandID != nil {
		brand, err := s.repo.FindBrand(ctx, *input.BrandID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "brand not found")
		}
		if input.ActorRole == enums.ActorRoleVendor && (brand.VendorID == nil || *brand.VendorID != input.VendorID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "brand belongs to another vendor")
		}
	}

	product := &models.Product{
		VendorID:       input.VendorID,
		BrandID:        input.BrandID,
		CategoryID:     input.CategoryID,
		Name:           strings.TrimSpace(input.Name),
		Slug:           strings.TrimSpace(input.Slug),
		Description:    input.Description,
		PriceCents:     input.PriceCents,
		SalePriceCents: input.SalePriceCents,
		StockQty:       input.StockQty,
		IsActive:       true,
		IsFeatured:     input.IsFeatured,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "failed to create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	if err := authorizeVendorWrite(input.ActorRole, input.ActorVendorID, product.VendorID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.SalePriceCents != nil {
		updates["sale_price_cents"] = input.SalePriceCents
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		updates["stock_qty"] = *input.StockQty
	}
	if input.CategoryID != nil {
		updates["category_id"] = input.CategoryID
	}
	if input.BrandID != nil {
		brand, err := s.repo.FindBrand(ctx, *input.BrandID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "brand not found")
		}
		if input.ActorRole == enums.ActorRoleVendor && (brand.VendorID == nil || *brand.VendorID != product.VendorID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "brand belongs to another vendor")
		}
		updates["brand_id"] = input.BrandID
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.UpdateProduct(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update product")
	}
	updated, err := s.repo.FindProductByID(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload product")
	}
	return updated, nil
}

func (s *service) SaveBrand(ctx context.Context, input SaveBrandInput) (*models.Brand, error) {
	if err := requireAdmin(input.ActorRole); err != nil {
		return nil, err
	}
	if input.CommissionRate != nil {
		if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
		}
	}

	if input.BrandID == nil {
		if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand name and slug are required")
		}
		brand := &models.Brand{
			VendorID:       input.VendorID,
			Name:           strings.TrimSpace(input.Name),
			Slug:           strings.TrimSpace(input.Slug),
			CommissionRate: input.CommissionRate,
			IsActive:       true,
		}
		if err := s.repo.CreateBrand(ctx, brand); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "failed to create brand")
		}
		return brand, nil
	}

	if _, err := s.repo.FindBrand(ctx, *input.BrandID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "brand not found")
	}
	updates := map[string]any{}
	if strings.TrimSpace(input.Name) != "" {
		updates["name"] = strings.TrimSpace(input.Name)
	}
	if input.VendorID != nil {
		updates["vendor_id"] = input.VendorID
	}
	if input.CommissionRate != nil {
		updates["commission_rate"] = input.CommissionRate
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateBrand(ctx, *input.BrandID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update brand")
		}
	}
	brand, err := s.repo.FindBrand(ctx, *input.BrandID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload brand")
	}
	return brand, nil
}

func (s *service) SaveCategory(ctx context.Context, input SaveCategoryInput) (*models.Category, error) {
	if err := requireAdmin(input.ActorRole); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		parent, err := s.repo.FindCategory(ctx, *input.ParentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "parent category not found")
		}
		// The menu is two levels deep; children cannot be parents.
		if parent.ParentID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "categories nest at most one level")
		}
	}

	if input.CategoryID == nil {
		if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and slug are required")
		}
		category := &models.Category{
			ParentID:   input.ParentID,
			Name:       strings.TrimSpace(input.Name),
			Slug:       strings.TrimSpace(input.Slug),
			Position:   input.Position,
			ShowInMenu: input.ShowInMenu,
			IsActive:   true,
		}
		if err := s.repo.CreateCategory(ctx, category); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "failed to create category")
		}
		return category, nil
	}

	if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
	}
	if input.ParentID != nil && *input.ParentID == *input.CategoryID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}
	updates := map[string]any{
		"parent_id":    input.ParentID,
		"position":     input.Position,
		"show_in_menu": input.ShowInMenu,
	}
	if strings.TrimSpace(input.Name) != "" {
		updates["name"] = strings.TrimSpace(input.Name)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateCategory(ctx, *input.CategoryID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update category")
	}
	category, err := s.repo.FindCategory(ctx, *input.CategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload category")
	}
	return category, nil
}

func (s *service) SaveSection(ctx context.Context, input SaveSectionInput) (*models.HomepageSection, error) {
	if err := requireAdmin(input.ActorRole); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown section type %q", input.Type))
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "section title is required")
	}

	if input.SectionID != nil {
		if _, err := s.repo.FindSection(ctx, *input.SectionID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "section not found")
		}
	}

	if input.SectionID == nil {
		section := &models.HomepageSection{
			Type:       input.Type,
			Title:      strings.TrimSpace(input.Title),
			Subtitle:   input.Subtitle,
			CategoryID: input.CategoryID,
			BrandID:    input.BrandID,
			ProductIDs: input.ProductIDs,
			ImageURL:   input.ImageURL,
			LinkURL:    input.LinkURL,
			Position:   input.Position,
			IsActive:   true,
		}
		if err := s.repo.CreateSection(ctx, section); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create section")
		}
		return section, nil
	}

	updates := map[string]any{
		"type":        input.Type,
		"title":       strings.TrimSpace(input.Title),
		"subtitle":    input.Subtitle,
		"category_id": input.CategoryID,
		"brand_id":    input.BrandID,
		"product_ids": input.ProductIDs,
		"image_url":   input.ImageURL,
		"link_url":    input.LinkURL,
		"position":    input.Position,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.UpdateSection(ctx, *input.SectionID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update section")
	}
	section, err := s.repo.FindSection(ctx, *input.SectionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload section")
	}
	return section, nil
}

func requireAdmin(role enums.ActorRole) error {
	if role != enums.ActorRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// authorizeVendorWrite allows admins everywhere and vendors on their own
// catalog only.
func authorizeVendorWrite(role enums.ActorRole, actorVendorID *uuid.UUID, targetVendorID uuid.UUID) error {
	switch role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if actorVendorID == nil || *actorVendorID != targetVendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "products are scoped to the owning vendor")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot manage the catalog")
	}
}
