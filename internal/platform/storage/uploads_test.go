package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubSigner struct{}

func (stubSigner) Email() string { return "signer@example.iam.gserviceaccount.com" }

func (stubSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	return []byte("signed:" + string(payload[:4])), nil
}

func newTestIssuer(t *testing.T) *UploadURLIssuer {
	t.Helper()
	issuer, err := NewUploadURLIssuer("glowmart-images", stubSigner{},
		WithClock(func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { return "01hxyzexample" }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return issuer
}

func TestNewUploadURLIssuerValidation(t *testing.T) {
	if _, err := NewUploadURLIssuer("", stubSigner{}); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
	if _, err := NewUploadURLIssuer("bucket", nil); err == nil {
		t.Fatalf("expected error for nil signer")
	}
}

func TestObjectPath(t *testing.T) {
	issuer := newTestIssuer(t)

	path, err := issuer.ObjectPath(UploadKindProductImage, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "products/01hxyzexample.png" {
		t.Fatalf("unexpected object path %q", path)
	}

	path, err = issuer.ObjectPath(UploadKindCategoryImage, "IMAGE/JPEG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(path, "categories/") || !strings.HasSuffix(path, ".jpg") {
		t.Fatalf("unexpected object path %q", path)
	}
}

func TestObjectPathRejectsUnknownInputs(t *testing.T) {
	issuer := newTestIssuer(t)

	if _, err := issuer.ObjectPath(UploadKindProductImage, "application/pdf"); !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("expected ErrUnsupportedContentType, got %v", err)
	}
	if _, err := issuer.ObjectPath(UploadKind("videos"), "image/png"); !errors.Is(err, ErrUnknownUploadKind) {
		t.Fatalf("expected ErrUnknownUploadKind, got %v", err)
	}
}

func TestIssueSignedUpload(t *testing.T) {
	issuer := newTestIssuer(t)

	upload, err := issuer.Issue(context.Background(), UploadKindCategoryImage, "image/webp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upload.ObjectPath != "categories/01hxyzexample.webp" {
		t.Fatalf("unexpected object path %q", upload.ObjectPath)
	}
	if !strings.Contains(upload.URL, "glowmart-images") {
		t.Fatalf("expected bucket in url, got %q", upload.URL)
	}
	wantExpiry := time.Date(2025, time.March, 10, 12, 15, 0, 0, time.UTC)
	if !upload.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, upload.ExpiresAt)
	}
}
