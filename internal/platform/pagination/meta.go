package pagination

// Meta describes the position of an offset-paginated result set.
type Meta struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewMeta derives the page metadata from the total item count and the request
// parameters. With an unlimited request everything fits on a single page.
func NewMeta(total int, params Params) Meta {
	if total < 0 {
		total = 0
	}
	if params.Unlimited || params.Limit <= 0 {
		return Meta{
			CurrentPage: 1,
			TotalPages:  1,
			TotalItems:  total,
		}
	}

	totalPages := (total + params.Limit - 1) / params.Limit
	if totalPages == 0 {
		totalPages = 1
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	return Meta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Slice applies offset paging to an in-memory result set and returns the page
// window alongside its metadata.
func Slice[T any](items []T, params Params) ([]T, Meta) {
	meta := NewMeta(len(items), params)
	if params.Unlimited || params.Limit <= 0 {
		return items, meta
	}
	start := params.Offset()
	if start >= len(items) {
		return nil, meta
	}
	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], meta
}
