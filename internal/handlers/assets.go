package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowmart/api/internal/platform/auth"
	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/platform/storage"
)

// AssetHandlers issues signed upload slots for catalog images.
type AssetHandlers struct {
	authn  *auth.Authenticator
	issuer *storage.UploadURLIssuer
}

// NewAssetHandlers constructs asset handlers.
func NewAssetHandlers(authn *auth.Authenticator, issuer *storage.UploadURLIssuer) *AssetHandlers {
	return &AssetHandlers{authn: authn, issuer: issuer}
}

// Routes registers the asset upload endpoint.
func (h *AssetHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Group(func(g chi.Router) {
		if h.authn != nil {
			g.Use(h.authn.RequireAdmin())
		}
		g.Post("/assets/uploads", h.issueUpload)
	})
}

type uploadRequest struct {
	Kind        string `json:"kind"`
	ContentType string `json:"contentType"`
}

func (h *AssetHandlers) issueUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.issuer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "upload issuer unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload uploadRequest
	if err := decodeJSON(r, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	upload, err := h.issuer.Issue(ctx, storage.UploadKind(payload.Kind), payload.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUnsupportedContentType), errors.Is(err, storage.ErrUnknownUploadKind):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to issue upload url", http.StatusInternalServerError))
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"url":         upload.URL,
		"objectPath":  upload.ObjectPath,
		"contentType": upload.ContentType,
		"expiresAt":   upload.ExpiresAt,
	})
}
