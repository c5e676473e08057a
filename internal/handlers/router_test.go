package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRouterMountsCatalogAndAdminGroups(t *testing.T) {
	router := NewRouter(
		WithCatalogRoutes(func(r chi.Router) {
			NewCategoryHandlers(&stubCategoryService{}).Routes(r)
		}),
		WithAdminRoutes(func(r chi.Router) {
			NewAdminCatalogHandlers(nil, &stubCategoryService{}, &stubProductService{}, nil).Routes(r)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("public categories route missing, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz missing, got %d", rr.Code)
	}
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not the JSON error envelope: %v", err)
	}
	if body["error"] != errorNotFoundCode {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}
