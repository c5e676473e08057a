package services

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
)

// CatalogQueryServiceDeps bundles constructor inputs for the read-side facade.
type CatalogQueryServiceDeps struct {
	Categories CategoryService
	Products   ProductService
}

type catalogQueryService struct {
	categories CategoryService
	products   ProductService
}

var _ CatalogQueryService = (*catalogQueryService)(nil)

// NewCatalogQueryService constructs the combined catalog read facade.
func NewCatalogQueryService(deps CatalogQueryServiceDeps) (CatalogQueryService, error) {
	if deps.Categories == nil {
		return nil, fmt.Errorf("catalog query service: category service is required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("catalog query service: product service is required")
	}
	return &catalogQueryService{categories: deps.Categories, products: deps.Products}, nil
}

func (s *catalogQueryService) Hierarchy(ctx context.Context) ([]domain.CategoryNode, error) {
	return s.categories.Hierarchy(ctx)
}

// Search runs the omnibox query across categories and products. Category
// matches are capped; product matches follow the caller's pagination.
func (s *catalogQueryService) Search(ctx context.Context, query string, params pagination.Params) (OmniboxResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return OmniboxResult{
			Categories: []domain.Category{},
			Products:   domain.Page[domain.Product]{Items: []domain.Product{}, CurrentPage: 1},
		}, nil
	}

	categories, err := s.categories.Search(ctx, query)
	if err != nil {
		return OmniboxResult{}, err
	}
	products, err := s.products.Search(ctx, query, params)
	if err != nil {
		return OmniboxResult{}, err
	}
	return OmniboxResult{Categories: categories, Products: products}, nil
}

func (s *catalogQueryService) Brands(ctx context.Context) ([]domain.BrandCount, error) {
	return s.products.Brands(ctx)
}
