package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/services"
)

// CatalogHandlers exposes the combined catalog read endpoints: the omnibox
// search across categories and products, and the brand index.
type CatalogHandlers struct {
	catalog services.CatalogQueryService
}

// NewCatalogHandlers constructs the combined catalog handlers.
func NewCatalogHandlers(catalog services.CatalogQueryService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the combined catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/search", h.search)
	r.Get("/brands", h.brands)
}

func (h *CatalogHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{AllowedSortBy: productSortFields})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	result, err := h.catalog.Search(ctx, r.URL.Query().Get("q"), params)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"categories": newCategoryListResponse(result.Categories),
		"products":   newProductPageResponse(result.Products),
	})
}

func (h *CatalogHandlers) brands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	brands, err := h.catalog.Brands(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": newBrandListResponse(brands)})
}
