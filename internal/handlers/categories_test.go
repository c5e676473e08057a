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

func newPublicCategoryRouter(svc services.CategoryService) chi.Router {
	r := chi.NewRouter()
	NewCategoryHandlers(svc).Routes(r)
	return r
}

func TestCategoryHandlersList(t *testing.T) {
	svc := &stubCategoryService{listResult: []domain.Category{
		{ID: "cat-1", Name: "Skin Care", Slug: "skin-care", IsActive: true},
	}}
	router := newPublicCategoryRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/categories?parent=main&isActive=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Items []categoryResponse `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Slug != "skin-care" {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
}

func TestCategoryHandlersListRejectsBadBoolFlag(t *testing.T) {
	router := newPublicCategoryRouter(&stubCategoryService{})

	req := httptest.NewRequest(http.MethodGet, "/categories?isActive=maybe", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCategoryHandlersHierarchy(t *testing.T) {
	parent := "cat-1"
	svc := &stubCategoryService{tree: []domain.CategoryNode{
		{
			Category: domain.Category{ID: "cat-1", Name: "Skin Care", Slug: "skin-care"},
			Subcategories: []domain.CategoryNode{
				{Category: domain.Category{ID: "cat-2", Name: "Moisturizers", Slug: "moisturizers", ParentID: &parent}},
			},
		},
	}}
	router := newPublicCategoryRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/categories/hierarchy", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Items []categoryNodeResponse `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Items) != 1 || len(body.Items[0].Subcategories) != 1 {
		t.Fatalf("nesting lost in response: %+v", body.Items)
	}
	if body.Items[0].Subcategories[0].Slug != "moisturizers" {
		t.Fatalf("unexpected child: %+v", body.Items[0].Subcategories)
	}
}

func TestCategoryHandlersGetNotFound(t *testing.T) {
	router := newPublicCategoryRouter(&stubCategoryService{getErr: services.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/categories/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
