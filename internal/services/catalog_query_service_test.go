package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
)

func TestCatalogQueryServiceSearch(t *testing.T) {
	skin := domain.Category{ID: "cat-skin", Name: "Skin Care", Slug: "skin-care"}
	categories := &stubCategoryRepo{
		byID:          map[string]domain.Category{"cat-skin": skin},
		searchResults: []domain.Category{skin},
	}
	products := &stubProductRepo{listResp: domain.Page[domain.Product]{
		Items:       []domain.Product{{ID: "prod-1", Name: "Hydrating Serum"}},
		TotalItems:  1,
		CurrentPage: 1,
		TotalPages:  1,
	}}

	categorySvc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: products})
	productSvc, err := NewProductService(ProductServiceDeps{
		Products:   products,
		Categories: categories,
		Clock:      func() time.Time { return fixedNow },
		IDGen:      func() string { return "prod-generated" },
	})
	if err != nil {
		t.Fatalf("new product service: %v", err)
	}
	svc, err := NewCatalogQueryService(CatalogQueryServiceDeps{Categories: categorySvc, Products: productSvc})
	if err != nil {
		t.Fatalf("new catalog query service: %v", err)
	}

	result, err := svc.Search(context.Background(), "serum", pagination.Params{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Categories) != 1 || result.Categories[0].ID != "cat-skin" {
		t.Fatalf("unexpected category matches: %+v", result.Categories)
	}
	if result.Products.TotalItems != 1 {
		t.Fatalf("unexpected product matches: %+v", result.Products)
	}

	empty, err := svc.Search(context.Background(), "   ", pagination.Params{})
	if err != nil {
		t.Fatalf("blank search: %v", err)
	}
	if len(empty.Categories) != 0 || len(empty.Products.Items) != 0 {
		t.Fatalf("blank query must return empty result, got %+v", empty)
	}
}
