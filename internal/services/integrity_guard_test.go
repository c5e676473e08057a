package services

import (
	"testing"

	domain "github.com/glowmart/api/internal/domain"
)

func strPtr(v string) *string { return &v }

func TestIsSelfParent(t *testing.T) {
	if !IsSelfParent("cat-1", strPtr("cat-1")) {
		t.Fatalf("expected self parent to be detected")
	}
	if IsSelfParent("cat-1", strPtr("cat-2")) {
		t.Fatalf("unexpected self parent for distinct ids")
	}
	if IsSelfParent("cat-1", nil) {
		t.Fatalf("nil parent must never be self")
	}
}

func TestHasSubcategories(t *testing.T) {
	categories := []domain.Category{
		{ID: "root", Name: "Skin Care"},
		{ID: "child", Name: "Moisturizers", ParentID: strPtr("root")},
	}
	if !HasSubcategories("root", categories) {
		t.Fatalf("expected root to have subcategories")
	}
	if HasSubcategories("child", categories) {
		t.Fatalf("leaf category must not report subcategories")
	}
}

func TestWouldCreateBatchConflict(t *testing.T) {
	categories := []domain.Category{
		{ID: "skin", Name: "Skin Care"},
		{ID: "moist", Name: "Moisturizers", ParentID: strPtr("skin")},
		{ID: "hair", Name: "Hair Care"},
	}

	t.Run("clean batch", func(t *testing.T) {
		if got := WouldCreateBatchConflict([]string{"moist", "hair"}, categories, nil); got != nil {
			t.Fatalf("unexpected conflict: %+v", got)
		}
	})

	t.Run("parent with child also in batch still conflicts", func(t *testing.T) {
		got := WouldCreateBatchConflict([]string{"skin", "moist"}, categories, nil)
		if got == nil || got.Kind != BatchConflictSubcategories || got.CategoryName != "Skin Care" {
			t.Fatalf("expected subcategory conflict on Skin Care, got %+v", got)
		}
	})

	t.Run("subcategory conflicts reported before product conflicts", func(t *testing.T) {
		got := WouldCreateBatchConflict([]string{"hair", "skin"}, categories, []string{"hair"})
		if got == nil || got.Kind != BatchConflictSubcategories || got.CategoryID != "skin" {
			t.Fatalf("expected subcategory conflict first, got %+v", got)
		}
	})

	t.Run("bound products", func(t *testing.T) {
		got := WouldCreateBatchConflict([]string{"hair"}, categories, []string{"hair"})
		if got == nil || got.Kind != BatchConflictProducts || got.CategoryName != "Hair Care" {
			t.Fatalf("expected product conflict on Hair Care, got %+v", got)
		}
	})
}
