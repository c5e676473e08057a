package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/services"
)

// CategoryHandlers exposes the public category read endpoints.
type CategoryHandlers struct {
	categories services.CategoryService
}

// NewCategoryHandlers constructs public category handlers.
func NewCategoryHandlers(categories services.CategoryService) *CategoryHandlers {
	return &CategoryHandlers{categories: categories}
}

// Routes registers the public category endpoints.
func (h *CategoryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/categories", func(rt chi.Router) {
		rt.Get("/", h.list)
		rt.Get("/hierarchy", h.hierarchy)
		rt.Get("/search", h.search)
		rt.Get("/{categoryID}", h.get)
	})
}

func (h *CategoryHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "category service unavailable", http.StatusServiceUnavailable))
		return
	}

	isActive, err := pagination.BoolFlag(r.URL.Query().Get("isActive"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	categories, err := h.categories.ListByFilter(ctx, services.CategoryFilter{
		Parent:   r.URL.Query().Get("parent"),
		IsActive: isActive,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": newCategoryListResponse(categories)})
}

func (h *CategoryHandlers) hierarchy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "category service unavailable", http.StatusServiceUnavailable))
		return
	}
	nodes, err := h.categories.Hierarchy(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": newHierarchyResponse(nodes)})
}

func (h *CategoryHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "category service unavailable", http.StatusServiceUnavailable))
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	matches, err := h.categories.Search(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": newCategoryListResponse(matches)})
}

func (h *CategoryHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.categories == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "category service unavailable", http.StatusServiceUnavailable))
		return
	}
	category, err := h.categories.Get(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newCategoryResponse(category))
}
