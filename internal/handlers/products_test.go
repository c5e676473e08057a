package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/services"
)

func newPublicProductRouter(svc services.ProductService) chi.Router {
	r := chi.NewRouter()
	NewProductHandlers(svc).Routes(r)
	return r
}

func TestProductHandlersList(t *testing.T) {
	svc := &stubProductService{page: domain.Page[domain.Product]{
		Items:       []domain.Product{{ID: "prod-1", Name: "Hydrating Serum", SKU: "GL-1"}},
		TotalItems:  1,
		CurrentPage: 1,
		TotalPages:  1,
	}}
	router := newPublicProductRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/products?brand=GlowLab&isFeatured=true&minPrice=5&maxPrice=50", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body productPageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].SKU != "GL-1" {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
	if body.Meta.TotalItems != 1 {
		t.Fatalf("meta missing: %+v", body.Meta)
	}
}

func TestProductHandlersListRejectsBadPrice(t *testing.T) {
	router := newPublicProductRouter(&stubProductService{})

	req := httptest.NewRequest(http.MethodGet, "/products?minPrice=cheap", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestProductHandlersListByCategoryNotFound(t *testing.T) {
	router := newPublicProductRouter(&stubProductService{listErr: services.ErrCategoryNotFound})

	req := httptest.NewRequest(http.MethodGet, "/products/category/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestProductHandlersSearch(t *testing.T) {
	svc := &stubProductService{page: domain.Page[domain.Product]{Items: []domain.Product{}, CurrentPage: 1}}
	router := newPublicProductRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/products/search?q=serum&page=2&limit=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCatalogHandlersSearch(t *testing.T) {
	categorySvc := &stubCategoryService{listResult: []domain.Category{{ID: "cat-1", Name: "Skin Care"}}}
	productSvc := &stubProductService{page: domain.Page[domain.Product]{Items: []domain.Product{{ID: "prod-1"}}, TotalItems: 1, CurrentPage: 1, TotalPages: 1}}
	query, err := services.NewCatalogQueryService(services.CatalogQueryServiceDeps{Categories: categorySvc, Products: productSvc})
	if err != nil {
		t.Fatalf("new catalog query service: %v", err)
	}
	r := chi.NewRouter()
	NewCatalogHandlers(query).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/search?q=serum", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Categories []categoryResponse  `json:"categories"`
		Products   productPageResponse `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Categories) != 1 || len(body.Products.Items) != 1 {
		t.Fatalf("unexpected omnibox payload: %+v", body)
	}
}
