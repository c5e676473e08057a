package repositories

import (
	"context"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Categories() CategoryRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CategoryRepository persists catalog categories and enforces uniqueness and
// deletion guards transactionally against the shared store.
type CategoryRepository interface {
	// Insert creates a category after re-checking name and slug uniqueness
	// inside a transaction. Returns a CatalogError on conflict.
	Insert(ctx context.Context, category domain.Category) (domain.Category, error)
	// Update replaces the category state, re-checking name and slug
	// uniqueness against other categories when they changed.
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	// DeleteGuarded removes a category only if it has no subcategories and no
	// bound products, re-checking both inside the deleting transaction.
	// Subcategories are checked first.
	DeleteGuarded(ctx context.Context, categoryID string) error
	// DeleteBatch removes the given ids all-or-nothing, re-checking batch
	// guards transactionally. Returns the number of documents deleted.
	DeleteBatch(ctx context.Context, ids []string) (int, error)

	FindByID(ctx context.Context, categoryID string) (domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (domain.Category, error)
	FindByName(ctx context.Context, name string) (domain.Category, error)
	List(ctx context.Context, filter CategoryListFilter) ([]domain.Category, error)
	ListAll(ctx context.Context) ([]domain.Category, error)
	ListChildren(ctx context.Context, categoryID string) ([]domain.Category, error)
	CountChildren(ctx context.Context, categoryID string) (int64, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.Category, error)
}

// ProductRepository persists catalog products and the denormalized category
// slug copy.
type ProductRepository interface {
	// Insert creates a product after re-checking SKU and slug uniqueness
	// inside a transaction.
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	// Update replaces the product state, re-checking SKU uniqueness against
	// other products when it changed.
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
	// DeleteBatch removes the given ids and returns how many existed.
	DeleteBatch(ctx context.Context, ids []string) (int, error)

	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.Page[domain.Product], error)

	// CountByCategory reports how many products reference the category.
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	// ListCategoryRefs returns the distinct category ids referenced by at
	// least one product, used for batch deletion guards.
	ListCategoryRefs(ctx context.Context) ([]string, error)
	// ResyncCategorySlug rewrites the denormalized categorySlug on every
	// product bound to categoryID whose stored value differs from newSlug.
	// Returns the number of products updated; rerunning with the same slug
	// matches nothing.
	ResyncCategorySlug(ctx context.Context, categoryID string, newSlug string) (int, error)
	// ListBrands groups products by brand with counts.
	ListBrands(ctx context.Context) ([]domain.BrandCount, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

// CategoryListFilter narrows category listings. RootsOnly selects categories
// without a parent; ParentID selects direct children of an explicit parent.
// At most one of the two should be set.
type CategoryListFilter struct {
	RootsOnly bool
	ParentID  *string
	IsActive  *bool
}

// ProductListFilter narrows, sorts and paginates product listings. Query runs
// a case-insensitive substring match across name/description/brand/tags.
type ProductListFilter struct {
	CategoryIDs []string
	Brand       *string
	IsActive    *bool
	IsFeatured  *bool
	MinPrice    *float64
	MaxPrice    *float64
	Query       string
	SortBy      domain.ProductSort
	SortOrder   domain.SortOrder
	Pagination  pagination.Params
}

// AuditLogFilter narrows audit trail listings.
type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Action     string
	Pagination pagination.Params
}
