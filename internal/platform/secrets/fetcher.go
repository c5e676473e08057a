package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultCacheTTL = 5 * time.Minute

var clientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves named secrets through Google Secret Manager with a small
// in-process cache. Secret names are resolved against a single project.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	projectID  string
	logger     *zap.Logger
	ttl        time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	fetchedAt time.Time
}

// Option customises Fetcher construction.
type Option func(*Fetcher)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithCacheTTL overrides how long resolved values are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithClient injects a preconfigured Secret Manager client (primarily for tests).
func WithClient(client secretManagerClient) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher constructs a Fetcher bound to the given project.
func NewFetcher(ctx context.Context, projectID string, opts ...Option) (*Fetcher, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("secrets: project id is required")
	}

	fetcher := &Fetcher{
		projectID: projectID,
		logger:    zap.NewNop(),
		ttl:       defaultCacheTTL,
		cache:     map[string]cacheEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fetcher)
		}
	}

	if fetcher.client == nil {
		client, err := clientFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		fetcher.client = client
		fetcher.ownsClient = true
	}
	return fetcher, nil
}

// Resolve returns the latest version of the named secret. Implements
// config.SecretResolver.
func (f *Fetcher) Resolve(ctx context.Context, name string) (string, error) {
	if f == nil || f.client == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: secret name is required")
	}

	f.mu.RLock()
	entry, ok := f.cache[name]
	f.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < f.ttl {
		return entry.value, nil
	}

	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", f.projectID, name)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	value := string(resp.GetPayload().GetData())

	f.mu.Lock()
	f.cache[name] = cacheEntry{value: value, fetchedAt: time.Now()}
	f.mu.Unlock()

	f.logger.Debug("secret resolved", zap.String("secret", name))
	return value, nil
}

// Close releases the underlying client when owned by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}
