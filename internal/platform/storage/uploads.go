package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
)

const defaultUploadTTL = 15 * time.Minute

// UploadKind scopes uploaded objects to a catalog entity family.
type UploadKind string

const (
	// UploadKindCategoryImage stores category banner images.
	UploadKindCategoryImage UploadKind = "categories"
	// UploadKindProductImage stores product gallery images.
	UploadKindProductImage UploadKind = "products"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var (
	// ErrUnsupportedContentType rejects uploads outside the image allow-list.
	ErrUnsupportedContentType = errors.New("storage: unsupported content type")
	// ErrUnknownUploadKind rejects object paths outside the catalog families.
	ErrUnknownUploadKind = errors.New("storage: unknown upload kind")
)

// SignedUpload describes a one-shot upload slot issued to an admin client.
type SignedUpload struct {
	URL         string
	ObjectPath  string
	ContentType string
	ExpiresAt   time.Time
}

// UploadURLIssuer issues V4 signed PUT URLs for catalog image uploads. The
// upload itself is performed by the client directly against Cloud Storage.
type UploadURLIssuer struct {
	bucket string
	signer Signer
	ttl    time.Duration
	now    func() time.Time
	idGen  func() string
}

// IssuerOption customises the issuer.
type IssuerOption func(*UploadURLIssuer)

// WithTTL overrides the signed URL lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *UploadURLIssuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *UploadURLIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithIDGenerator injects a deterministic object id generator for tests.
func WithIDGenerator(gen func() string) IssuerOption {
	return func(i *UploadURLIssuer) {
		if gen != nil {
			i.idGen = gen
		}
	}
}

// NewUploadURLIssuer constructs the issuer for the given bucket.
func NewUploadURLIssuer(bucket string, signer Signer, opts ...IssuerOption) (*UploadURLIssuer, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	if signer == nil {
		return nil, errors.New("storage: signer is required")
	}
	issuer := &UploadURLIssuer{
		bucket: bucket,
		signer: signer,
		ttl:    defaultUploadTTL,
		now:    time.Now,
		idGen:  func() string { return strings.ToLower(ulid.Make().String()) },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// ObjectPath derives the destination object name for an upload request.
func (i *UploadURLIssuer) ObjectPath(kind UploadKind, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	switch kind {
	case UploadKindCategoryImage, UploadKindProductImage:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownUploadKind, kind)
	}
	return path.Join(string(kind), i.idGen()+ext), nil
}

// Issue produces a signed PUT URL for the requested upload.
func (i *UploadURLIssuer) Issue(ctx context.Context, kind UploadKind, contentType string) (SignedUpload, error) {
	if i == nil || i.signer == nil {
		return SignedUpload{}, errors.New("storage: issuer not initialised")
	}

	objectPath, err := i.ObjectPath(kind, contentType)
	if err != nil {
		return SignedUpload{}, err
	}

	expiresAt := i.now().UTC().Add(i.ttl)
	url, err := storage.SignedURL(i.bucket, objectPath, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         http.MethodPut,
		GoogleAccessID: i.signer.Email(),
		SignBytes: func(payload []byte) ([]byte, error) {
			return i.signer.SignBytes(ctx, payload)
		},
		Expires:     expiresAt,
		ContentType: contentType,
	})
	if err != nil {
		return SignedUpload{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return SignedUpload{
		URL:         url,
		ObjectPath:  objectPath,
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}, nil
}
