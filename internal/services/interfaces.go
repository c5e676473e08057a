package services

import (
	"context"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
)

// CategoryService owns category entities: creation, update with slug
// propagation, deletion guards and hierarchy queries.
type CategoryService interface {
	Create(ctx context.Context, cmd CreateCategoryCommand) (domain.Category, error)
	Update(ctx context.Context, categoryID string, cmd UpdateCategoryCommand) (domain.Category, error)
	Delete(ctx context.Context, categoryID string, actor string) error
	BulkDelete(ctx context.Context, ids []string, actor string) (int, error)
	ListByFilter(ctx context.Context, filter CategoryFilter) ([]domain.Category, error)
	Hierarchy(ctx context.Context) ([]domain.CategoryNode, error)
	Search(ctx context.Context, query string) ([]domain.Category, error)
	Get(ctx context.Context, categoryID string) (domain.Category, error)
}

// ProductService owns product entities and the denormalized category slug copy.
type ProductService interface {
	Create(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	Update(ctx context.Context, productID string, cmd UpdateProductCommand) (domain.Product, error)
	Delete(ctx context.Context, productID string, actor string) error
	BulkDelete(ctx context.Context, ids []string, actor string) (int, error)
	Get(ctx context.Context, productID string) (domain.Product, error)
	ListAll(ctx context.Context, filter ProductFilter) (domain.Page[domain.Product], error)
	ListByCategory(ctx context.Context, categoryRef string, params pagination.Params) (domain.Page[domain.Product], error)
	Search(ctx context.Context, query string, params pagination.Params) (domain.Page[domain.Product], error)
	Brands(ctx context.Context) ([]domain.BrandCount, error)

	CategorySlugSubscriber
}

// CategorySlugSubscriber re-synchronizes dependent documents after a category
// slug change. CategoryService invokes it synchronously inside Update so
// products are consistent when the request returns.
type CategorySlugSubscriber interface {
	ResyncCategorySlug(ctx context.Context, categoryID string, newSlug string) (int, error)
}

// SlugEventPublisher emits slug change events for out-of-process consumers.
type SlugEventPublisher interface {
	PublishSlugChanged(ctx context.Context, event CategorySlugChangedEvent) (string, error)
}

// CategorySlugChangedEvent is the payload published after a category rename.
type CategorySlugChangedEvent struct {
	EventType        string    `json:"eventType"`
	CategoryID       string    `json:"categoryId"`
	OldSlug          string    `json:"oldSlug"`
	NewSlug          string    `json:"newSlug"`
	ProductsResynced int       `json:"productsResynced"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// SlugChangedEventType identifies category slug change events on the wire.
const SlugChangedEventType = "catalog.category.slug_changed"

// CatalogQueryService composes read-only views over both catalog stores.
type CatalogQueryService interface {
	Hierarchy(ctx context.Context) ([]domain.CategoryNode, error)
	Search(ctx context.Context, query string, params pagination.Params) (OmniboxResult, error)
	Brands(ctx context.Context) ([]domain.BrandCount, error)
}

// OmniboxResult is the combined category and product search response.
type OmniboxResult struct {
	Categories []domain.Category
	Products   domain.Page[domain.Product]
}

// AuditLogService records admin catalog mutations.
type AuditLogService interface {
	// Record persists the entry; failures are logged, never surfaced, so the
	// primary mutation flow is not interrupted.
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error)
}

// AuditLogRecord carries the inputs for a single audit entry.
type AuditLogRecord struct {
	Actor      string
	ActorType  string
	Action     string
	TargetRef  string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]any
	Diff       map[string]domain.AuditDiff
}

// AuditLogFilter narrows audit trail listings.
type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Action     string
	Pagination pagination.Params
}

// Commands and filters --------------------------------------------------------

// CreateCategoryCommand carries the inputs for category creation.
type CreateCategoryCommand struct {
	Name     string
	ParentID *string
	Image    domain.AssetRef
	IsActive *bool
	Actor    string
}

// UpdateCategoryCommand carries a partial category update. Nil fields are left
// untouched; a ParentID pointing at an empty string clears the parent.
type UpdateCategoryCommand struct {
	Name     *string
	ParentID *string
	Image    *domain.AssetRef
	IsActive *bool
	Actor    string
}

// IsEmpty reports whether the update carries no fields.
func (c UpdateCategoryCommand) IsEmpty() bool {
	return c.Name == nil && c.ParentID == nil && c.Image == nil && c.IsActive == nil
}

// ParentFilterMain is the sentinel selecting top-level categories only.
const ParentFilterMain = "main"

// CategoryFilter narrows category listings. Parent recognises three modes:
// empty (no filter), ParentFilterMain (top-level only) or an explicit parent id.
type CategoryFilter struct {
	Parent   string
	IsActive *bool
}

// CreateProductCommand carries the inputs for product creation.
type CreateProductCommand struct {
	Name           string
	Description    string
	Brand          string
	SKU            string
	Price          *float64
	OriginalPrice  *float64
	CategoryID     string
	Images         []domain.AssetRef
	Specifications map[string]string
	Tags           []string
	IsActive       *bool
	IsFeatured     *bool
	Actor          string
}

// UpdateProductCommand carries a partial product update. Nil fields are left
// untouched; a non-nil Images slice replaces the entire image list.
type UpdateProductCommand struct {
	Name           *string
	Description    *string
	Brand          *string
	SKU            *string
	Price          *float64
	OriginalPrice  *float64
	CategoryID     *string
	Images         []domain.AssetRef
	Specifications map[string]string
	Tags           []string
	IsActive       *bool
	IsFeatured     *bool
	Actor          string
}

// IsEmpty reports whether the update carries no fields.
func (c UpdateProductCommand) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Brand == nil && c.SKU == nil &&
		c.Price == nil && c.OriginalPrice == nil && c.CategoryID == nil &&
		c.Images == nil && c.Specifications == nil && c.Tags == nil &&
		c.IsActive == nil && c.IsFeatured == nil
}

// ProductFilter narrows, sorts and paginates generic product listings.
type ProductFilter struct {
	Category   string
	Brand      *string
	IsActive   *bool
	IsFeatured *bool
	MinPrice   *float64
	MaxPrice   *float64
	Search     string
	SortBy     domain.ProductSort
	SortOrder  domain.SortOrder
	Pagination pagination.Params
}
