package handlers

import (
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/pagination"
)

type assetRefPayload struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

type categoryResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	ParentCategory *string         `json:"parentCategory"`
	Image          assetRefPayload `json:"image"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type categoryNodeResponse struct {
	categoryResponse
	Subcategories []categoryNodeResponse `json:"subcategories"`
}

type productResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description"`
	Brand          string            `json:"brand"`
	SKU            string            `json:"sku"`
	Price          float64           `json:"price"`
	OriginalPrice  *float64          `json:"originalPrice,omitempty"`
	Category       string            `json:"category"`
	CategorySlug   string            `json:"categorySlug"`
	Images         []assetRefPayload `json:"images"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	IsActive       bool              `json:"isActive"`
	IsFeatured     bool              `json:"isFeatured"`
	Rating         float64           `json:"rating"`
	NumReviews     int               `json:"numReviews"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type productPageResponse struct {
	Items []productResponse `json:"items"`
	Meta  pagination.Meta   `json:"meta"`
}

type brandCountPayload struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

type auditLogResponse struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	ActorType  string         `json:"actorType"`
	Action     string         `json:"action"`
	TargetRef  string         `json:"targetRef"`
	Severity   string         `json:"severity"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func newAssetRefPayload(ref domain.AssetRef) assetRefPayload {
	return assetRefPayload{URL: ref.URL, PublicID: ref.PublicID}
}

func newCategoryResponse(category domain.Category) categoryResponse {
	return categoryResponse{
		ID:             category.ID,
		Name:           category.Name,
		Slug:           category.Slug,
		ParentCategory: category.ParentID,
		Image:          newAssetRefPayload(category.Image),
		IsActive:       category.IsActive,
		CreatedAt:      category.CreatedAt,
		UpdatedAt:      category.UpdatedAt,
	}
}

func newCategoryListResponse(categories []domain.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, newCategoryResponse(c))
	}
	return out
}

func newCategoryNodeResponse(node domain.CategoryNode) categoryNodeResponse {
	children := make([]categoryNodeResponse, 0, len(node.Subcategories))
	for _, child := range node.Subcategories {
		children = append(children, newCategoryNodeResponse(child))
	}
	return categoryNodeResponse{
		categoryResponse: newCategoryResponse(node.Category),
		Subcategories:    children,
	}
}

func newHierarchyResponse(nodes []domain.CategoryNode) []categoryNodeResponse {
	out := make([]categoryNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, newCategoryNodeResponse(node))
	}
	return out
}

func newProductResponse(product domain.Product) productResponse {
	images := make([]assetRefPayload, 0, len(product.Images))
	for _, img := range product.Images {
		images = append(images, newAssetRefPayload(img))
	}
	return productResponse{
		ID:             product.ID,
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		Brand:          product.Brand,
		SKU:            product.SKU,
		Price:          product.Price,
		OriginalPrice:  product.OriginalPrice,
		Category:       product.CategoryID,
		CategorySlug:   product.CategorySlug,
		Images:         images,
		Specifications: product.Specifications,
		Tags:           product.Tags,
		IsActive:       product.IsActive,
		IsFeatured:     product.IsFeatured,
		Rating:         product.Rating,
		NumReviews:     product.NumReviews,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

func newProductPageResponse(page domain.Page[domain.Product]) productPageResponse {
	items := make([]productResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, newProductResponse(p))
	}
	return productPageResponse{
		Items: items,
		Meta: pagination.Meta{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
			HasNext:     page.HasNext,
			HasPrev:     page.HasPrev,
		},
	}
}

func newBrandListResponse(brands []domain.BrandCount) []brandCountPayload {
	out := make([]brandCountPayload, 0, len(brands))
	for _, b := range brands {
		out = append(out, brandCountPayload{Brand: b.Brand, Count: b.Count})
	}
	return out
}

func newAuditLogResponse(entry domain.AuditLogEntry) auditLogResponse {
	return auditLogResponse{
		ID:         entry.ID,
		Actor:      entry.Actor,
		ActorType:  entry.ActorType,
		Action:     entry.Action,
		TargetRef:  entry.TargetRef,
		Severity:   entry.Severity,
		OccurredAt: entry.OccurredAt,
		Metadata:   entry.Metadata,
	}
}
