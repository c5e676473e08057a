package domain

import (
	"time"
)

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// ProductSort enumerates the fields accepted for product listings.
type ProductSort string

const (
	// ProductSortCreatedAt sorts products by creation time.
	ProductSortCreatedAt ProductSort = "createdAt"
	// ProductSortPrice sorts products by price.
	ProductSortPrice ProductSort = "price"
	// ProductSortName sorts products by display name.
	ProductSortName ProductSort = "name"
	// ProductSortFeatured applies the two-key featured ordering (isFeatured desc, createdAt desc).
	ProductSortFeatured ProductSort = "featured"
	// ProductSortRating sorts products by average review rating.
	ProductSortRating ProductSort = "rating"
)

// AssetRef points at an image owned by the external upload collaborator.
// The reference is stored by value; the asset lifecycle is managed elsewhere.
type AssetRef struct {
	URL      string
	PublicID string
}

// IsZero reports whether the reference carries no asset.
func (a AssetRef) IsZero() bool {
	return a.URL == "" && a.PublicID == ""
}

// Category is a node in the self-referential catalog tree. ParentID is nil for
// top-level categories. Slug is derived from Name and unique across categories.
type Category struct {
	ID        string
	Name      string
	Slug      string
	ParentID  *string
	Image     AssetRef
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMain reports whether the category sits at the top of the hierarchy.
func (c Category) IsMain() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// CategoryNode is a category with its subcategories populated recursively.
type CategoryNode struct {
	Category
	Subcategories []CategoryNode
}

// Product is a catalog entry bound to exactly one category. CategorySlug is a
// denormalized copy of the bound category's slug and is re-synchronized whenever
// that slug changes.
type Product struct {
	ID             string
	Name           string
	Slug           string
	Description    string
	Brand          string
	SKU            string
	Price          float64
	OriginalPrice  *float64
	CategoryID     string
	CategorySlug   string
	Images         []AssetRef
	Specifications map[string]string
	Tags           []string
	IsActive       bool
	IsFeatured     bool
	Rating         float64
	NumReviews     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BrandCount reports how many products carry a given brand.
type BrandCount struct {
	Brand string
	Count int
}

// AuditLogEntry captures an immutable record of an admin mutation.
type AuditLogEntry struct {
	ID         string
	Actor      string
	ActorType  string
	Action     string
	TargetRef  string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]any
	Diff       map[string]AuditDiff
}

// AuditDiff records a single field transition inside an audit entry.
type AuditDiff struct {
	Before any
	After  any
}

// Page packages offset-paginated list results with derived metadata.
type Page[T any] struct {
	Items       []T
	TotalItems  int
	CurrentPage int
	TotalPages  int
	HasNext     bool
	HasPrev     bool
}

// HealthStatus classifies the outcome of a dependency probe.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// SystemHealthCheck is the result of probing a single dependency.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency checks into an overall status.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
