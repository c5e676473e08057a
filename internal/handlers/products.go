package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/services"
)

var productSortFields = []string{
	string(domain.ProductSortCreatedAt),
	string(domain.ProductSortPrice),
	string(domain.ProductSortName),
	string(domain.ProductSortFeatured),
	string(domain.ProductSortRating),
}

// ProductHandlers exposes the public product read endpoints.
type ProductHandlers struct {
	products services.ProductService
}

// NewProductHandlers constructs public product handlers.
func NewProductHandlers(products services.ProductService) *ProductHandlers {
	return &ProductHandlers{products: products}
}

// Routes registers the public product endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/products", func(rt chi.Router) {
		rt.Get("/", h.list)
		rt.Get("/search", h.search)
		rt.Get("/category/{categoryRef}", h.listByCategory)
		rt.Get("/{productID}", h.get)
	})
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "product service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseProductFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.products.ListAll(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductPageResponse(page))
}

func (h *ProductHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "product service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{AllowedSortBy: productSortFields})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	page, err := h.products.Search(ctx, r.URL.Query().Get("q"), params)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductPageResponse(page))
}

func (h *ProductHandlers) listByCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "product service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{AllowedSortBy: productSortFields})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	page, err := h.products.ListByCategory(ctx, chi.URLParam(r, "categoryRef"), params)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductPageResponse(page))
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "product service unavailable", http.StatusServiceUnavailable))
		return
	}
	product, err := h.products.Get(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newProductResponse(product))
}

func parseProductFilter(r *http.Request) (services.ProductFilter, error) {
	query := r.URL.Query()

	params, err := pagination.FromRequest(r, pagination.Options{AllowedSortBy: productSortFields})
	if err != nil {
		return services.ProductFilter{}, err
	}

	isActive, err := pagination.BoolFlag(query.Get("isActive"))
	if err != nil {
		return services.ProductFilter{}, err
	}
	isFeatured, err := pagination.BoolFlag(query.Get("isFeatured"))
	if err != nil {
		return services.ProductFilter{}, err
	}
	minPrice, err := parsePriceBound(query.Get("minPrice"))
	if err != nil {
		return services.ProductFilter{}, err
	}
	maxPrice, err := parsePriceBound(query.Get("maxPrice"))
	if err != nil {
		return services.ProductFilter{}, err
	}

	filter := services.ProductFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		IsActive:   isActive,
		IsFeatured: isFeatured,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Search:     strings.TrimSpace(query.Get("search")),
		SortBy:     domain.ProductSort(params.SortBy),
		Pagination: params,
	}
	if brand := strings.TrimSpace(query.Get("brand")); brand != "" {
		filter.Brand = &brand
	}
	filter.SortOrder = domain.SortDesc
	if !params.SortDesc {
		filter.SortOrder = domain.SortAsc
	}
	return filter, nil
}

func parsePriceBound(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, fmt.Errorf("invalid price bound %q", raw)
	}
	return &value, nil
}
