package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/repositories"
)

// ProductServiceDeps bundles constructor inputs for the product service.
type ProductServiceDeps struct {
	Products   repositories.ProductRepository
	Categories repositories.CategoryRepository
	Sanitizer  *bluemonday.Policy
	Audit      AuditLogService
	Clock      func() time.Time
	IDGen      func() string
}

type productService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	sanitizer  *bluemonday.Policy
	audit      AuditLogService
	clock      func() time.Time
	idGen      func() string
}

var _ ProductService = (*productService)(nil)

// NewProductService constructs the product service with the supplied dependencies.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Products == nil {
		return nil, fmt.Errorf("product service: product repository is required")
	}
	if deps.Categories == nil {
		return nil, fmt.Errorf("product service: category repository is required")
	}
	if deps.IDGen == nil {
		return nil, fmt.Errorf("product service: id generator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.UGCPolicy()
	}
	audit := deps.Audit
	if audit == nil {
		audit = NoopAuditLogService()
	}
	return &productService{
		products:   deps.Products,
		categories: deps.Categories,
		sanitizer:  sanitizer,
		audit:      audit,
		clock:      func() time.Time { return clock().UTC() },
		idGen:      deps.IDGen,
	}, nil
}

func (s *productService) Create(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	description := strings.TrimSpace(cmd.Description)
	brand := strings.TrimSpace(cmd.Brand)
	sku := strings.ToUpper(strings.TrimSpace(cmd.SKU))
	categoryID := strings.TrimSpace(cmd.CategoryID)

	for _, field := range []struct {
		name string
		ok   bool
	}{
		{"name", name != ""},
		{"description", description != ""},
		{"price", cmd.Price != nil && *cmd.Price > 0},
		{"category", categoryID != ""},
		{"brand", brand != ""},
		{"sku", sku != ""},
	} {
		if !field.ok {
			return domain.Product{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, field.name)
		}
	}
	if len(cmd.Images) == 0 {
		return domain.Product{}, ErrNoImages
	}

	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if isStoreNotFound(err) {
			return domain.Product{}, ErrCategoryNotFound
		}
		return domain.Product{}, translateStoreError(err)
	}

	// Fast path; the repository re-checks inside the inserting transaction.
	if _, err := s.products.FindBySKU(ctx, sku); err == nil {
		return domain.Product{}, ErrDuplicateSKU
	} else if !isStoreNotFound(err) {
		return domain.Product{}, translateStoreError(err)
	}

	now := s.clock()
	product := domain.Product{
		ID:             s.idGen(),
		Name:           name,
		Slug:           Slugify(name),
		Description:    s.sanitizer.Sanitize(description),
		Brand:          brand,
		SKU:            sku,
		Price:          *cmd.Price,
		OriginalPrice:  cmd.OriginalPrice,
		CategoryID:     category.ID,
		CategorySlug:   category.Slug,
		Images:         append([]domain.AssetRef(nil), cmd.Images...),
		Specifications: cmd.Specifications,
		Tags:           normalizeTags(cmd.Tags),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cmd.IsActive != nil {
		product.IsActive = *cmd.IsActive
	}
	if cmd.IsFeatured != nil {
		product.IsFeatured = *cmd.IsFeatured
	}

	created, err := s.products.Insert(ctx, product)
	if err != nil {
		return domain.Product{}, translateStoreError(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     cmd.Actor,
		ActorType: "admin",
		Action:    "product.create",
		TargetRef: "products/" + created.ID,
		Metadata:  map[string]any{"sku": created.SKU, "category": created.CategoryID},
	})
	return created, nil
}

func (s *productService) Update(ctx context.Context, productID string, cmd UpdateProductCommand) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrNotFound
	}
	if cmd.IsEmpty() {
		return domain.Product{}, ErrNoFieldsProvided
	}

	current, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, translateStoreError(err)
	}

	updated := current
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name", ErrMissingRequiredField)
		}
		updated.Name = name
		// Slug always follows the submitted name, even when unchanged.
		updated.Slug = Slugify(name)
	}
	if cmd.Description != nil {
		description := strings.TrimSpace(*cmd.Description)
		if description == "" {
			return domain.Product{}, fmt.Errorf("%w: description", ErrMissingRequiredField)
		}
		updated.Description = s.sanitizer.Sanitize(description)
	}
	if cmd.Brand != nil {
		brand := strings.TrimSpace(*cmd.Brand)
		if brand == "" {
			return domain.Product{}, fmt.Errorf("%w: brand", ErrMissingRequiredField)
		}
		updated.Brand = brand
	}
	if cmd.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*cmd.SKU))
		if sku == "" {
			return domain.Product{}, fmt.Errorf("%w: sku", ErrMissingRequiredField)
		}
		if sku != current.SKU {
			if other, err := s.products.FindBySKU(ctx, sku); err == nil && other.ID != productID {
				return domain.Product{}, ErrDuplicateSKU
			} else if err != nil && !isStoreNotFound(err) {
				return domain.Product{}, translateStoreError(err)
			}
		}
		updated.SKU = sku
	}
	if cmd.Price != nil {
		if *cmd.Price <= 0 {
			return domain.Product{}, fmt.Errorf("%w: price", ErrMissingRequiredField)
		}
		updated.Price = *cmd.Price
	}
	if cmd.OriginalPrice != nil {
		updated.OriginalPrice = cmd.OriginalPrice
	}
	if cmd.CategoryID != nil {
		categoryID := strings.TrimSpace(*cmd.CategoryID)
		if categoryID == "" {
			return domain.Product{}, fmt.Errorf("%w: category", ErrMissingRequiredField)
		}
		category, err := s.categories.FindByID(ctx, categoryID)
		if err != nil {
			if isStoreNotFound(err) {
				return domain.Product{}, ErrCategoryNotFound
			}
			return domain.Product{}, translateStoreError(err)
		}
		updated.CategoryID = category.ID
		updated.CategorySlug = category.Slug
	}
	if cmd.Images != nil {
		if len(cmd.Images) == 0 {
			return domain.Product{}, ErrNoImages
		}
		// A submitted list replaces the stored one wholesale.
		updated.Images = append([]domain.AssetRef(nil), cmd.Images...)
	}
	if cmd.Specifications != nil {
		updated.Specifications = cmd.Specifications
	}
	if cmd.Tags != nil {
		updated.Tags = normalizeTags(cmd.Tags)
	}
	if cmd.IsActive != nil {
		updated.IsActive = *cmd.IsActive
	}
	if cmd.IsFeatured != nil {
		updated.IsFeatured = *cmd.IsFeatured
	}
	updated.UpdatedAt = s.clock()

	persisted, err := s.products.Update(ctx, updated)
	if err != nil {
		return domain.Product{}, translateStoreError(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     cmd.Actor,
		ActorType: "admin",
		Action:    "product.update",
		TargetRef: "products/" + persisted.ID,
		Metadata:  map[string]any{"sku": persisted.SKU},
	})
	return persisted, nil
}

func (s *productService) Delete(ctx context.Context, productID string, actor string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrNotFound
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return translateStoreError(err)
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:     actor,
		ActorType: "admin",
		Action:    "product.delete",
		TargetRef: "products/" + productID,
	})
	return nil
}

func (s *productService) BulkDelete(ctx context.Context, ids []string, actor string) (int, error) {
	ids = normalizeIDList(ids)
	if len(ids) == 0 {
		return 0, ErrNothingDeleted
	}
	deleted, err := s.products.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, translateStoreError(err)
	}
	if deleted == 0 {
		return 0, ErrNothingDeleted
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:     actor,
		ActorType: "admin",
		Action:    "product.bulk_delete",
		TargetRef: "products",
		Metadata:  map[string]any{"requested": len(ids), "deleted": deleted},
	})
	return deleted, nil
}

func (s *productService) Get(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrNotFound
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, translateStoreError(err)
	}
	return product, nil
}

func (s *productService) ListAll(ctx context.Context, filter ProductFilter) (domain.Page[domain.Product], error) {
	repoFilter := repositories.ProductListFilter{
		Brand:      normalizeFilterPointer(filter.Brand),
		IsActive:   filter.IsActive,
		IsFeatured: filter.IsFeatured,
		MinPrice:   filter.MinPrice,
		MaxPrice:   filter.MaxPrice,
		Query:      strings.TrimSpace(filter.Search),
		SortBy:     normalizeProductSort(filter.SortBy),
		SortOrder:  normalizeSortOrder(filter.SortOrder),
		Pagination: filter.Pagination,
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		resolved, err := s.resolveCategoryRef(ctx, category)
		if err != nil {
			return domain.Page[domain.Product]{}, err
		}
		repoFilter.CategoryIDs = []string{resolved.ID}
	}
	page, err := s.products.List(ctx, repoFilter)
	if err != nil {
		return domain.Page[domain.Product]{}, translateStoreError(err)
	}
	return page, nil
}

// ListByCategory serves the storefront browse view. The category is resolved
// by id first, then by slug, and products bound to any descendant category are
// included.
func (s *productService) ListByCategory(ctx context.Context, categoryRef string, params pagination.Params) (domain.Page[domain.Product], error) {
	category, err := s.resolveCategoryRef(ctx, categoryRef)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return domain.Page[domain.Product]{}, translateStoreError(err)
	}
	active := true
	page, err := s.products.List(ctx, repositories.ProductListFilter{
		CategoryIDs: collectDescendantIDs(category.ID, categories),
		IsActive:    &active,
		SortBy:      domain.ProductSortFeatured,
		Pagination:  params,
	})
	if err != nil {
		return domain.Page[domain.Product]{}, translateStoreError(err)
	}
	return page, nil
}

func (s *productService) Search(ctx context.Context, query string, params pagination.Params) (domain.Page[domain.Product], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Page[domain.Product]{Items: []domain.Product{}, CurrentPage: 1}, nil
	}
	active := true
	page, err := s.products.List(ctx, repositories.ProductListFilter{
		IsActive:   &active,
		Query:      query,
		SortBy:     domain.ProductSortCreatedAt,
		SortOrder:  domain.SortDesc,
		Pagination: params,
	})
	if err != nil {
		return domain.Page[domain.Product]{}, translateStoreError(err)
	}
	return page, nil
}

func (s *productService) Brands(ctx context.Context) ([]domain.BrandCount, error) {
	brands, err := s.products.ListBrands(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return brands, nil
}

// ResyncCategorySlug rewrites the denormalized slug copy on bound products.
// Delegated straight to the repository; reruns with an unchanged slug match
// nothing.
func (s *productService) ResyncCategorySlug(ctx context.Context, categoryID string, newSlug string) (int, error) {
	n, err := s.products.ResyncCategorySlug(ctx, categoryID, newSlug)
	if err != nil {
		return 0, translateStoreError(err)
	}
	return n, nil
}

func (s *productService) resolveCategoryRef(ctx context.Context, ref string) (domain.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Category{}, ErrCategoryNotFound
	}
	category, err := s.categories.FindByID(ctx, ref)
	if err == nil {
		return category, nil
	}
	if !isStoreNotFound(err) {
		return domain.Category{}, translateStoreError(err)
	}
	category, err = s.categories.FindBySlug(ctx, ref)
	if err != nil {
		if isStoreNotFound(err) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, translateStoreError(err)
	}
	return category, nil
}

// collectDescendantIDs returns rootID plus every category reachable through
// parent links, breadth first.
func collectDescendantIDs(rootID string, categories []domain.Category) []string {
	children := make(map[string][]string, len(categories))
	for _, c := range categories {
		if c.ParentID == nil || *c.ParentID == "" {
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c.ID)
	}

	ids := []string{rootID}
	seen := map[string]struct{}{rootID: {}}
	for cursor := 0; cursor < len(ids); cursor++ {
		for _, child := range children[ids[cursor]] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			ids = append(ids, child)
		}
	}
	return ids
}

func normalizeProductSort(sortBy domain.ProductSort) domain.ProductSort {
	switch sortBy {
	case domain.ProductSortPrice, domain.ProductSortName, domain.ProductSortFeatured, domain.ProductSortRating, domain.ProductSortCreatedAt:
		return sortBy
	default:
		return domain.ProductSortCreatedAt
	}
}

func normalizeSortOrder(order domain.SortOrder) domain.SortOrder {
	if order == domain.SortAsc {
		return domain.SortAsc
	}
	return domain.SortDesc
}

func normalizeFilterPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeTags lowercases, trims and deduplicates tags, returning them sorted.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
