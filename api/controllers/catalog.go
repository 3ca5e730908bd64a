package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/api/responses"
	"github.com/nexusfashion/nexus-backend/api/validators"
	"github.com/nexusfashion/nexus-backend/internal/catalog"
	dbtypes "github.com/nexusfashion/nexus-backend/pkg/db/types"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
)

type createProductPayload struct {
	Name           string  `json:"name" validate:"required"`
	Slug           string  `json:"slug" validate:"required"`
	Description    *string `json:"description,omitempty"`
	PriceCents     int     `json:"price_cents" validate:"required,min=1"`
	SalePriceCents *int    `json:"sale_price_cents,omitempty"`
	StockQty       int     `json:"stock_qty" validate:"min=0"`
	CategoryID     *string `json:"category_id,omitempty"`
	BrandID        *string `json:"brand_id,omitempty"`
	VendorID       *string `json:"vendor_id,omitempty"`
	IsFeatured     bool    `json:"is_featured"`
}

type updateProductPayload struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	PriceCents     *int    `json:"price_cents,omitempty"`
	SalePriceCents *int    `json:"sale_price_cents,omitempty"`
	StockQty       *int    `json:"stock_qty,omitempty"`
	CategoryID     *string `json:"category_id,omitempty"`
	BrandID        *string `json:"brand_id,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	IsFeatured     *bool   `json:"is_featured,omitempty"`
}

type saveBrandPayload struct {
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	VendorID       *string `json:"vendor_id,omitempty"`
	CommissionRate *string `json:"commission_rate,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

type saveCategoryPayload struct {
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	ParentID   *string `json:"parent_id,omitempty"`
	Position   int     `json:"position"`
	ShowInMenu bool    `json:"show_in_menu"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

type saveSectionPayload struct {
	Type       string   `json:"type" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Subtitle   *string  `json:"subtitle,omitempty"`
	CategoryID *string  `json:"category_id,omitempty"`
	BrandID    *string  `json:"brand_id,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	ImageURL   *string  `json:"image_url,omitempty"`
	LinkURL    *string  `json:"link_url,omitempty"`
	Position   int      `json:"position"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

// ProductList serves the public storefront listing.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := paginationFromQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.ListProductsInput{
			Search:       strings.TrimSpace(r.URL.Query().Get("search")),
			FeaturedOnly: r.URL.Query().Get("featured") == "true",
			Pagination:   params,
		}
		for name, target := range map[string]**uuid.UUID{
			"category_id": &input.CategoryID,
			"brand_id":    &input.BrandID,
			"vendor_id":   &input.VendorID,
		} {
			if raw := strings.TrimSpace(r.URL.Query().Get(name)); raw != "" {
				id, err := parseUUIDParam(raw, name)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				*target = &id
			}
		}

		rows, next, err := svc.ListProducts(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       rows,
			"next_cursor": next,
		})
	}
}

// ProductBySlug serves one product detail page.
func ProductBySlug(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		product, err := svc.GetProductBySlug(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// MegaMenu serves the storefront navigation tree.
func MegaMenu(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		columns, err := svc.MegaMenu(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, columns)
	}
}

// Homepage serves the ordered active homepage sections.
func Homepage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sections, err := svc.Homepage(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sections)
	}
}

// BrandList serves the active brands.
func BrandList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		brands, err := svc.ListBrands(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

// ProductCreate adds a product to the caller's catalog.
func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Name:           payload.Name,
			Slug:           payload.Slug,
			Description:    payload.Description,
			PriceCents:     payload.PriceCents,
			SalePriceCents: payload.SalePriceCents,
			StockQty:       payload.StockQty,
			IsFeatured:     payload.IsFeatured,
			ActorUserID:    caller.UserID,
			ActorVendorID:  caller.VendorID,
			ActorRole:      caller.Role,
		}

		if payload.VendorID != nil && strings.TrimSpace(*payload.VendorID) != "" {
			id, err := parseUUIDParam(*payload.VendorID, "vendor id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.VendorID = id
		} else if caller.VendorID != nil {
			input.VendorID = *caller.VendorID
		} else {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required"))
			return
		}

		if payload.CategoryID != nil && strings.TrimSpace(*payload.CategoryID) != "" {
			id, err := parseUUIDParam(*payload.CategoryID, "category id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = &id
		}
		if payload.BrandID != nil && strings.TrimSpace(*payload.BrandID) != "" {
			id, err := parseUUIDParam(*payload.BrandID, "brand id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.BrandID = &id
		}

		product, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate applies a partial update to one product.
func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDParam(chi.URLParam(r, "productID"), "product id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			ProductID:      productID,
			Name:           payload.Name,
			Description:    payload.Description,
			PriceCents:     payload.PriceCents,
			SalePriceCents: payload.SalePriceCents,
			StockQty:       payload.StockQty,
			IsActive:       payload.IsActive,
			IsFeatured:     payload.IsFeatured,
			ActorUserID:    caller.UserID,
			ActorVendorID:  caller.VendorID,
			ActorRole:      caller.Role,
		}
		if payload.CategoryID != nil && strings.TrimSpace(*payload.CategoryID) != "" {
			id, err := parseUUIDParam(*payload.CategoryID, "category id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = &id
		}
		if payload.BrandID != nil && strings.TrimSpace(*payload.BrandID) != "" {
			id, err := parseUUIDParam(*payload.BrandID, "brand id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.BrandID = &id
		}

		product, err := svc.UpdateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// BrandSave creates or updates a brand. Admin only.
func BrandSave(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload saveBrandPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.SaveBrandInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			IsActive:    payload.IsActive,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		}
		if raw := chi.URLParam(r, "brandID"); raw != "" {
			id, err := parseUUIDParam(raw, "brand id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.BrandID = &id
		}
		if payload.VendorID != nil && strings.TrimSpace(*payload.VendorID) != "" {
			id, err := parseUUIDParam(*payload.VendorID, "vendor id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.VendorID = &id
		}
		if payload.CommissionRate != nil && strings.TrimSpace(*payload.CommissionRate) != "" {
			rate, err := decimal.NewFromString(strings.TrimSpace(*payload.CommissionRate))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission rate"))
				return
			}
			input.CommissionRate = &rate
		}

		brand, err := svc.SaveBrand(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, brand)
	}
}

// CategorySave creates or updates a category. Admin only.
func CategorySave(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload saveCategoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.SaveCategoryInput{
			Name:        payload.Name,
			Slug:        payload.Slug,
			Position:    payload.Position,
			ShowInMenu:  payload.ShowInMenu,
			IsActive:    payload.IsActive,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		}
		if raw := chi.URLParam(r, "categoryID"); raw != "" {
			id, err := parseUUIDParam(raw, "category id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = &id
		}
		if payload.ParentID != nil && strings.TrimSpace(*payload.ParentID) != "" {
			id, err := parseUUIDParam(*payload.ParentID, "parent id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.ParentID = &id
		}

		category, err := svc.SaveCategory(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// SectionSave creates or updates a homepage section. Admin only.
func SectionSave(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := actorFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload saveSectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sectionType, err := enums.ParseHomepageSectionType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid section type"))
			return
		}

		productIDs := make(dbtypes.UUIDArray, 0, len(payload.ProductIDs))
		for _, raw := range payload.ProductIDs {
			id, err := parseUUIDParam(raw, "product id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			productIDs = append(productIDs, id)
		}

		input := catalog.SaveSectionInput{
			Type:        sectionType,
			Title:       payload.Title,
			Subtitle:    payload.Subtitle,
			ProductIDs:  productIDs,
			ImageURL:    payload.ImageURL,
			LinkURL:     payload.LinkURL,
			Position:    payload.Position,
			IsActive:    payload.IsActive,
			ActorUserID: caller.UserID,
			ActorRole:   caller.Role,
		}
		if raw := chi.URLParam(r, "sectionID"); raw != "" {
			id, err := parseUUIDParam(raw, "section id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.SectionID = &id
		}
		if payload.CategoryID != nil && strings.TrimSpace(*payload.CategoryID) != "" {
			id, err := parseUUIDParam(*payload.CategoryID, "category id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = &id
		}
		if payload.BrandID != nil && strings.TrimSpace(*payload.BrandID) != "" {
			id, err := parseUUIDParam(*payload.BrandID, "brand id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.BrandID = &id
		}

		section, err := svc.SaveSection(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, section)
	}
}
