package services

import (
	"errors"
	"fmt"

	"github.com/glowmart/api/internal/repositories"
)

// Domain error kinds surfaced by the catalog services. All are recoverable and
// reportable to the caller; the services never retry internally.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicateName indicates another category or product already uses the name (or its derived slug).
	ErrDuplicateName = errors.New("catalog: duplicate name")
	// ErrDuplicateSKU indicates another product already uses the SKU, compared case-insensitively.
	ErrDuplicateSKU = errors.New("catalog: duplicate sku")
	// ErrParentNotFound indicates the supplied parent category id is unresolvable.
	ErrParentNotFound = errors.New("catalog: parent category not found")
	// ErrSelfParent indicates a category referenced itself as parent.
	ErrSelfParent = errors.New("catalog: category cannot be its own parent")
	// ErrHasSubcategories blocks deleting a category that still parents other categories.
	ErrHasSubcategories = errors.New("catalog: category has subcategories")
	// ErrHasProducts blocks deleting a category still referenced by products.
	ErrHasProducts = errors.New("catalog: category has bound products")
	// ErrCategoryNotFound indicates a product referenced an unresolvable category.
	ErrCategoryNotFound = errors.New("catalog: category not found")
	// ErrImageRequired indicates a category was submitted without an image.
	ErrImageRequired = errors.New("catalog: image is required")
	// ErrNoImages indicates a product was submitted without any images.
	ErrNoImages = errors.New("catalog: at least one image is required")
	// ErrMissingRequiredField indicates a required product field was absent.
	ErrMissingRequiredField = errors.New("catalog: missing required field")
	// ErrNoFieldsProvided indicates an update payload resolved to nothing.
	ErrNoFieldsProvided = errors.New("catalog: no fields provided")
	// ErrNothingDeleted indicates a bulk delete matched no documents.
	ErrNothingDeleted = errors.New("catalog: nothing deleted")
	// ErrBatchHasSubcategories blocks a bulk delete containing a parent category.
	ErrBatchHasSubcategories = errors.New("catalog: batch contains a category with subcategories")
	// ErrBatchHasProducts blocks a bulk delete containing a category with bound products.
	ErrBatchHasProducts = errors.New("catalog: batch contains a category with bound products")
	// ErrStoreFailure wraps persistence failures the services do not interpret further.
	ErrStoreFailure = errors.New("catalog: store failure")
)

// BatchConflictError names the category that made an entire bulk delete fail.
type BatchConflictError struct {
	CategoryName string
	Err          error
}

// Error implements the error interface.
func (e *BatchConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.CategoryName == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q", e.Err, e.CategoryName)
}

// Unwrap exposes the batch sentinel so errors.Is works on the conflict kind.
func (e *BatchConflictError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// translateStoreError maps repository failures onto the domain error kinds.
// Integrity conflicts detected transactionally at the store layer carry
// typed codes; everything else the services cannot interpret becomes a
// StoreFailure wrapping the cause.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}

	if code, ok := repositories.CatalogCode(err); ok {
		switch code {
		case repositories.CatalogErrorNameTaken, repositories.CatalogErrorSlugTaken:
			return ErrDuplicateName
		case repositories.CatalogErrorSKUTaken:
			return ErrDuplicateSKU
		case repositories.CatalogErrorHasSubcategories:
			return ErrHasSubcategories
		case repositories.CatalogErrorHasProducts:
			return ErrHasProducts
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrNotFound
	}

	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

// translateBatchError is translateStoreError with the batch-flavoured guard
// sentinels, preserving the offending category name.
func translateBatchError(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := repositories.CatalogCode(err); ok {
		switch code {
		case repositories.CatalogErrorHasSubcategories:
			return &BatchConflictError{CategoryName: repositories.CatalogRef(err), Err: ErrBatchHasSubcategories}
		case repositories.CatalogErrorHasProducts:
			return &BatchConflictError{CategoryName: repositories.CatalogRef(err), Err: ErrBatchHasProducts}
		}
	}
	return translateStoreError(err)
}

func isStoreNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
