package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{DefaultSortBy: "createdAt", DefaultSortOrder: "desc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 1 {
		t.Fatalf("expected page 1, got %d", params.Page)
	}
	if params.Limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, params.Limit)
	}
	if params.SortBy != "createdAt" || !params.SortDesc {
		t.Fatalf("expected default sort createdAt desc, got %q desc=%v", params.SortBy, params.SortDesc)
	}
}

func TestParseLimitSentinel(t *testing.T) {
	values := url.Values{"limit": []string{"0"}}
	params, err := Parse(values, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !params.Unlimited {
		t.Fatalf("expected limit 0 to mean unlimited")
	}
	if params.Offset() != 0 {
		t.Fatalf("expected zero offset for unlimited, got %d", params.Offset())
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]struct {
		values url.Values
		want   error
	}{
		"page not a number":  {url.Values{"page": []string{"x"}}, ErrInvalidPage},
		"page zero":          {url.Values{"page": []string{"0"}}, ErrInvalidPage},
		"negative limit":     {url.Values{"limit": []string{"-1"}}, ErrInvalidLimit},
		"unknown sort field": {url.Values{"sortBy": []string{"height"}}, ErrInvalidSortBy},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.values, Options{AllowedSortBy: []string{"createdAt"}})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseCapsLimit(t *testing.T) {
	params, err := Parse(url.Values{"limit": []string{"5000"}}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Limit != MaxLimit {
		t.Fatalf("expected limit capped to %d, got %d", MaxLimit, params.Limit)
	}
}

func TestBoolFlag(t *testing.T) {
	if v, err := BoolFlag(""); err != nil || v != nil {
		t.Fatalf("expected nil pointer for empty flag, got %v err=%v", v, err)
	}
	v, err := BoolFlag("true")
	if err != nil || v == nil || !*v {
		t.Fatalf("expected true, got %v err=%v", v, err)
	}
	v, err = BoolFlag("False")
	if err != nil || v == nil || *v {
		t.Fatalf("expected false, got %v err=%v", v, err)
	}
	if _, err := BoolFlag("yes"); !errors.Is(err, ErrInvalidBoolFlag) {
		t.Fatalf("expected ErrInvalidBoolFlag, got %v", err)
	}
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(45, Params{Page: 2, Limit: 20})
	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", meta.TotalPages)
	}
	if !meta.HasNext || !meta.HasPrev {
		t.Fatalf("expected hasNext and hasPrev on middle page, got %+v", meta)
	}

	meta = NewMeta(45, Params{Page: 3, Limit: 20})
	if meta.HasNext {
		t.Fatalf("expected no next page on last page")
	}

	meta = NewMeta(10, Params{Unlimited: true})
	if meta.TotalPages != 1 || meta.HasNext || meta.HasPrev {
		t.Fatalf("expected single page for unlimited, got %+v", meta)
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, meta := Slice(items, Params{Page: 2, Limit: 2})
	if len(page) != 2 || page[0] != 3 || page[1] != 4 {
		t.Fatalf("expected [3 4], got %v", page)
	}
	if meta.CurrentPage != 2 || meta.TotalPages != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	page, _ = Slice(items, Params{Page: 9, Limit: 2})
	if page != nil {
		t.Fatalf("expected empty window past the end, got %v", page)
	}

	page, _ = Slice(items, Params{Unlimited: true})
	if len(page) != len(items) {
		t.Fatalf("expected all items for unlimited, got %v", page)
	}
}
