package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/services"
)

const maxCatalogRequestBody = 256 * 1024

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields and
// trailing content.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxCatalogRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeCatalogError maps catalog service errors onto the HTTP error envelope.
func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	var conflict *services.BatchConflictError
	if errors.As(err, &conflict) {
		httpx.WriteError(ctx, w, httpx.NewError("batch_conflict", conflict.Error(), http.StatusConflict).
			WithDetails(map[string]any{"category": conflict.CategoryName}))
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrCategoryNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("category_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrParentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("parent_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrDuplicateName):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_name", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrDuplicateSKU):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_sku", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrSelfParent):
		httpx.WriteError(ctx, w, httpx.NewError("self_parent", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrHasSubcategories):
		httpx.WriteError(ctx, w, httpx.NewError("has_subcategories", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrHasProducts):
		httpx.WriteError(ctx, w, httpx.NewError("has_products", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBatchHasSubcategories), errors.Is(err, services.ErrBatchHasProducts):
		httpx.WriteError(ctx, w, httpx.NewError("batch_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrImageRequired),
		errors.Is(err, services.ErrNoImages),
		errors.Is(err, services.ErrMissingRequiredField),
		errors.Is(err, services.ErrNoFieldsProvided):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrNothingDeleted):
		httpx.WriteError(ctx, w, httpx.NewError("nothing_deleted", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "catalog operation failed", http.StatusInternalServerError))
	}
}
