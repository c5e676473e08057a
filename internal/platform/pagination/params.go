package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit defines the fallback number of items returned when the client omits limit.
	DefaultLimit = 20
	// MaxLimit caps the supported limit to prevent unbounded result sets.
	MaxLimit = 200
)

var (
	ErrInvalidPage     = errors.New("pagination: invalid page")
	ErrInvalidLimit    = errors.New("pagination: invalid limit")
	ErrInvalidSortBy   = errors.New("pagination: invalid sortBy")
	ErrInvalidBoolFlag = errors.New("pagination: invalid boolean flag")
)

// Params bundles the offset pagination and sorting values extracted from a request.
// Page is 1-based. Limit 0 means "no limit" and disables paging entirely.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortDesc  bool
	Unlimited bool
}

// Options control how Parse validates sort fields for a given handler.
type Options struct {
	DefaultLimit     int
	AllowedSortBy    []string
	DefaultSortBy    string
	DefaultSortOrder string
}

// Offset returns the number of items to skip for the current page.
func (p Params) Offset() int {
	if p.Unlimited || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// FromRequest parses the supported query parameters from the supplied request.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse consumes the provided query values and returns the normalised Params.
func Parse(values url.Values, opts Options) (Params, error) {
	if values == nil {
		values = url.Values{}
	}

	page, err := parsePage(values.Get("page"))
	if err != nil {
		return Params{}, err
	}

	limit, unlimited, err := parseLimit(values.Get("limit"), opts)
	if err != nil {
		return Params{}, err
	}

	sortBy, err := parseSortBy(values.Get("sortBy"), opts)
	if err != nil {
		return Params{}, err
	}

	return Params{
		Page:      page,
		Limit:     limit,
		SortBy:    sortBy,
		SortDesc:  parseSortOrder(values.Get("sortOrder"), opts),
		Unlimited: unlimited,
	}, nil
}

// BoolFlag interprets the "true"/"false" string convention used by the routing
// layer for boolean filters. An empty value yields a nil pointer (no filter).
func BoolFlag(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBoolFlag, raw)
	}
}

func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: must be an integer", ErrInvalidPage)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidPage)
	}
	return value, nil
}

func parseLimit(raw string, opts Options) (int, bool, error) {
	fallback := opts.DefaultLimit
	if fallback <= 0 {
		fallback = DefaultLimit
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: must be an integer", ErrInvalidLimit)
	}
	if value < 0 {
		return 0, false, fmt.Errorf("%w: must not be negative", ErrInvalidLimit)
	}
	if value == 0 {
		// Zero is the documented "no limit" sentinel.
		return 0, true, nil
	}
	if value > MaxLimit {
		value = MaxLimit
	}
	return value, false, nil
}

func parseSortBy(raw string, opts Options) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return opts.DefaultSortBy, nil
	}
	if len(opts.AllowedSortBy) == 0 {
		return "", fmt.Errorf("%w: sorting not supported", ErrInvalidSortBy)
	}
	for _, field := range opts.AllowedSortBy {
		if field == raw {
			return raw, nil
		}
	}
	return "", fmt.Errorf("%w: field %q is not allowed", ErrInvalidSortBy, raw)
}

func parseSortOrder(raw string, opts Options) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc":
		return false
	case "desc":
		return true
	}
	return strings.EqualFold(opts.DefaultSortOrder, "desc")
}
