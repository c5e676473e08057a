package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/auth"
	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/services"
)

// AdminCatalogHandlers exposes the admin catalog mutation endpoints.
type AdminCatalogHandlers struct {
	authn      *auth.Authenticator
	categories services.CategoryService
	products   services.ProductService
	audit      services.AuditLogService
}

// NewAdminCatalogHandlers constructs admin catalog handlers.
func NewAdminCatalogHandlers(authn *auth.Authenticator, categories services.CategoryService, products services.ProductService, audit services.AuditLogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{authn: authn, categories: categories, products: products, audit: audit}
}

// Routes registers the admin catalog endpoints.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireAdmin())
		}
		g.Route("/categories", func(rt chi.Router) {
			rt.Post("/", h.createCategory)
			rt.Post("/bulk-delete", h.bulkDeleteCategories)
			rt.Patch("/{categoryID}", h.updateCategory)
			rt.Delete("/{categoryID}", h.deleteCategory)
		})
		g.Route("/products", func(rt chi.Router) {
			rt.Post("/", h.createProduct)
			rt.Post("/bulk-delete", h.bulkDeleteProducts)
			rt.Patch("/{productID}", h.updateProduct)
			rt.Delete("/{productID}", h.deleteProduct)
		})
		g.Get("/audit-logs", h.listAuditLogs)
	})
}

type categoryImagePayload struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type createCategoryRequest struct {
	Name           string                `json:"name"`
	ParentCategory *string               `json:"parentCategory"`
	Image          *categoryImagePayload `json:"image"`
	IsActive       *bool                 `json:"isActive"`
}

type updateCategoryRequest struct {
	Name           *string               `json:"name"`
	ParentCategory *string               `json:"parentCategory"`
	Image          *categoryImagePayload `json:"image"`
	IsActive       *bool                 `json:"isActive"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *AdminCatalogHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload createCategoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.CreateCategoryCommand{
		Name:     payload.Name,
		ParentID: payload.ParentCategory,
		IsActive: payload.IsActive,
		Actor:    actor,
	}
	if payload.Image != nil {
		cmd.Image = domain.AssetRef{URL: payload.Image.URL, PublicID: payload.Image.PublicID}
	}

	created, err := h.categories.Create(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newCategoryResponse(created))
}

func (h *AdminCatalogHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload updateCategoryRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.UpdateCategoryCommand{
		Name:     payload.Name,
		ParentID: payload.ParentCategory,
		IsActive: payload.IsActive,
		Actor:    actor,
	}
	if payload.Image != nil {
		cmd.Image = &domain.AssetRef{URL: payload.Image.URL, PublicID: payload.Image.PublicID}
	}

	updated, err := h.categories.Update(ctx, chi.URLParam(r, "categoryID"), cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCategoryResponse(updated))
}

func (h *AdminCatalogHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	if err := h.categories.Delete(ctx, chi.URLParam(r, "categoryID"), actor); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandlers) bulkDeleteCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload bulkDeleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	deleted, err := h.categories.BulkDelete(ctx, payload.IDs, actor)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

type createProductRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Brand          string                 `json:"brand"`
	SKU            string                 `json:"sku"`
	Price          *float64               `json:"price"`
	OriginalPrice  *float64               `json:"originalPrice"`
	Category       string                 `json:"category"`
	Images         []categoryImagePayload `json:"images"`
	Specifications map[string]string      `json:"specifications"`
	Tags           []string               `json:"tags"`
	IsActive       *bool                  `json:"isActive"`
	IsFeatured     *bool                  `json:"isFeatured"`
}

type updateProductRequest struct {
	Name           *string                `json:"name"`
	Description    *string                `json:"description"`
	Brand          *string                `json:"brand"`
	SKU            *string                `json:"sku"`
	Price          *float64               `json:"price"`
	OriginalPrice  *float64               `json:"originalPrice"`
	Category       *string                `json:"category"`
	Images         []categoryImagePayload `json:"images"`
	Specifications map[string]string      `json:"specifications"`
	Tags           []string               `json:"tags"`
	IsActive       *bool                  `json:"isActive"`
	IsFeatured     *bool                  `json:"isFeatured"`
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload createProductRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	created, err := h.products.Create(ctx, services.CreateProductCommand{
		Name:           payload.Name,
		Description:    payload.Description,
		Brand:          payload.Brand,
		SKU:            payload.SKU,
		Price:          payload.Price,
		OriginalPrice:  payload.OriginalPrice,
		CategoryID:     payload.Category,
		Images:         assetRefsFromPayload(payload.Images),
		Specifications: payload.Specifications,
		Tags:           payload.Tags,
		IsActive:       payload.IsActive,
		IsFeatured:     payload.IsFeatured,
		Actor:          actor,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newProductResponse(created))
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload updateProductRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.UpdateProductCommand{
		Name:           payload.Name,
		Description:    payload.Description,
		Brand:          payload.Brand,
		SKU:            payload.SKU,
		Price:          payload.Price,
		OriginalPrice:  payload.OriginalPrice,
		CategoryID:     payload.Category,
		Specifications: payload.Specifications,
		Tags:           payload.Tags,
		IsActive:       payload.IsActive,
		IsFeatured:     payload.IsFeatured,
		Actor:          actor,
	}
	// An absent images field keeps the stored list; a submitted one replaces it.
	if payload.Images != nil {
		cmd.Images = assetRefsFromPayload(payload.Images)
	}

	updated, err := h.products.Update(ctx, chi.URLParam(r, "productID"), cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductResponse(updated))
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	if err := h.products.Delete(ctx, chi.URLParam(r, "productID"), actor); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminCatalogHandlers) bulkDeleteProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var payload bulkDeleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	deleted, err := h.products.BulkDelete(ctx, payload.IDs, actor)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *AdminCatalogHandlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.audit == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "audit log service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	query := r.URL.Query()
	page, err := h.audit.List(ctx, services.AuditLogFilter{
		TargetRef:  query.Get("targetRef"),
		Actor:      query.Get("actor"),
		Action:     query.Get("action"),
		Pagination: params,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]auditLogResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, newAuditLogResponse(entry))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"meta": pagination.Meta{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
			HasNext:     page.HasNext,
			HasPrev:     page.HasPrev,
		},
	})
}

func (h *AdminCatalogHandlers) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	if h.categories == nil || h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return identity.UID, true
}

func assetRefsFromPayload(images []categoryImagePayload) []domain.AssetRef {
	if images == nil {
		return nil
	}
	out := make([]domain.AssetRef, 0, len(images))
	for _, img := range images {
		out = append(out, domain.AssetRef{URL: img.URL, PublicID: img.PublicID})
	}
	return out
}
