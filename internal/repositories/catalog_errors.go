package repositories

import (
	"errors"
	"fmt"
)

// CatalogErrorCode enumerates integrity failures detected at the store layer.
type CatalogErrorCode string

const (
	// CatalogErrorNameTaken indicates another category or product already uses the name.
	CatalogErrorNameTaken CatalogErrorCode = "catalog_name_taken"
	// CatalogErrorSlugTaken indicates another document already uses the derived slug.
	CatalogErrorSlugTaken CatalogErrorCode = "catalog_slug_taken"
	// CatalogErrorSKUTaken indicates another product already uses the SKU.
	CatalogErrorSKUTaken CatalogErrorCode = "catalog_sku_taken"
	// CatalogErrorHasSubcategories indicates a category still parents other categories.
	CatalogErrorHasSubcategories CatalogErrorCode = "catalog_has_subcategories"
	// CatalogErrorHasProducts indicates a category is still referenced by products.
	CatalogErrorHasProducts CatalogErrorCode = "catalog_has_products"
)

// CatalogError wraps catalog integrity failures with machine readable codes.
// Ref names the offending document when the check can identify one.
type CatalogError struct {
	Op      string
	Code    CatalogErrorCode
	Ref     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *CatalogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsConflict marks every catalog integrity failure as a conflict for the
// RepositoryError categorisation.
func (e *CatalogError) IsConflict() bool { return e != nil }

// IsNotFound implements RepositoryError.
func (e *CatalogError) IsNotFound() bool { return false }

// IsUnavailable implements RepositoryError.
func (e *CatalogError) IsUnavailable() bool { return false }

// NewCatalogError constructs a typed catalog integrity error.
func NewCatalogError(code CatalogErrorCode, message string) *CatalogError {
	if message == "" {
		message = string(code)
	}
	return &CatalogError{
		Code:    code,
		Message: message,
	}
}

// CatalogCode extracts the integrity code from err when it is a CatalogError.
func CatalogCode(err error) (CatalogErrorCode, bool) {
	var catalogErr *CatalogError
	if !errors.As(err, &catalogErr) {
		return "", false
	}
	return catalogErr.Code, true
}

// CatalogRef extracts the offending document reference from err when present.
func CatalogRef(err error) string {
	var catalogErr *CatalogError
	if !errors.As(err, &catalogErr) {
		return ""
	}
	return catalogErr.Ref
}
