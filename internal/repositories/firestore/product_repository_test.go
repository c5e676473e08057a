package firestore

import (
	"testing"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/repositories"
)

func TestSortProductsFeatured(t *testing.T) {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	items := []domain.Product{
		{ID: "old-plain", CreatedAt: base},
		{ID: "new-featured", IsFeatured: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "new-plain", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "old-featured", IsFeatured: true, CreatedAt: base.Add(time.Hour)},
	}

	sortProducts(items, domain.ProductSortFeatured, false)

	want := []string{"new-featured", "old-featured", "new-plain", "old-plain"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
}

func TestSortProductsPriceDesc(t *testing.T) {
	items := []domain.Product{
		{ID: "cheap", Price: 9.99},
		{ID: "mid", Price: 24.50},
		{ID: "dear", Price: 120},
	}

	sortProducts(items, domain.ProductSortPrice, true)

	if items[0].ID != "dear" || items[2].ID != "cheap" {
		t.Fatalf("unexpected order: %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestMatchesQuery(t *testing.T) {
	product := domain.Product{
		Name:        "Hydrating Face Serum",
		Description: "Lightweight serum with hyaluronic acid",
		Brand:       "GlowLab",
		Tags:        []string{"skincare", "serum"},
	}

	cases := []struct {
		needle string
		want   bool
	}{
		{"serum", true},
		{"hyaluronic", true},
		{"glowlab", true},
		{"skincare", true},
		{"lipstick", false},
	}
	for _, tc := range cases {
		if got := matchesQuery(product, tc.needle); got != tc.want {
			t.Fatalf("matchesQuery(%q) = %v, want %v", tc.needle, got, tc.want)
		}
	}
}

func TestNeedsScan(t *testing.T) {
	if needsScan(repositories.ProductListFilter{}) {
		t.Fatalf("plain filter should run server-side")
	}
	if !needsScan(repositories.ProductListFilter{Query: "serum"}) {
		t.Fatalf("text search requires a scan")
	}
	min := 10.0
	if !needsScan(repositories.ProductListFilter{MinPrice: &min}) {
		t.Fatalf("price range requires a scan")
	}
	ids := make([]string, maxInValues+1)
	for i := range ids {
		ids[i] = "cat"
	}
	if !needsScan(repositories.ProductListFilter{CategoryIDs: ids}) {
		t.Fatalf("oversized category set requires a scan")
	}
}

func TestDedupeIDs(t *testing.T) {
	got := dedupeIDs([]string{" b ", "a", "b", "", "a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected ids %v", got)
	}
}
