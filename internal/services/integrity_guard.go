package services

import (
	domain "github.com/glowmart/api/internal/domain"
)

// BatchConflictKind identifies why a bulk delete batch was rejected.
type BatchConflictKind string

const (
	BatchConflictSubcategories BatchConflictKind = "subcategories"
	BatchConflictProducts      BatchConflictKind = "products"
)

// BatchConflict names the first category that blocks a bulk delete.
type BatchConflict struct {
	CategoryID   string
	CategoryName string
	Kind         BatchConflictKind
}

// IsSelfParent reports whether an update would point a category at itself.
func IsSelfParent(categoryID string, parentID *string) bool {
	return parentID != nil && *parentID == categoryID
}

// HasSubcategories reports whether any category in the snapshot has the given
// category as its parent.
func HasSubcategories(categoryID string, categories []domain.Category) bool {
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == categoryID {
			return true
		}
	}
	return false
}

// HasBoundProducts reports whether any product references the category.
// refs is the distinct set of category ids referenced by products.
func HasBoundProducts(categoryID string, refs []string) bool {
	for _, ref := range refs {
		if ref == categoryID {
			return true
		}
	}
	return false
}

// WouldCreateBatchConflict validates an entire bulk delete batch against the
// category snapshot and product references. The whole batch is checked for
// subcategories first, then for product bindings, so the reported conflict is
// stable regardless of id order. A category whose children are also in the
// batch still conflicts. Returns nil when the batch is deletable.
func WouldCreateBatchConflict(ids []string, categories []domain.Category, refs []string) *BatchConflict {
	byID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for _, id := range ids {
		if HasSubcategories(id, categories) {
			return &BatchConflict{CategoryID: id, CategoryName: conflictName(byID, id), Kind: BatchConflictSubcategories}
		}
	}
	for _, id := range ids {
		if HasBoundProducts(id, refs) {
			return &BatchConflict{CategoryID: id, CategoryName: conflictName(byID, id), Kind: BatchConflictProducts}
		}
	}
	return nil
}

func conflictName(byID map[string]domain.Category, id string) string {
	if c, ok := byID[id]; ok && c.Name != "" {
		return c.Name
	}
	return id
}
