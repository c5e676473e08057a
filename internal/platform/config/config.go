package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultEnvironment  = "local"

	defaultSlugEventTopic = "catalog-slug-changed"

	secretScheme = "secret://"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	PubSub    PubSubConfig
	Storage   StorageConfig
	Security  SecurityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores document database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FirebaseConfig stores the project used for admin token verification.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// PubSubConfig names the topics the catalog publishes domain events on.
type PubSubConfig struct {
	ProjectID      string
	SlugEventTopic string
}

// StorageConfig configures signed upload URL issuance for catalog images.
type StorageConfig struct {
	ImagesBucket       string
	SignerEmail        string
	SignerKeySecretRef string
	SignedURLTTL       time.Duration
}

// SecurityConfig groups environment metadata used by middleware.
type SecurityConfig struct {
	Environment string
}

// SecretResolver resolves secret references (secret://name) into their values.
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// SecretResolverFunc adapts a function to the SecretResolver interface.
type SecretResolverFunc func(context.Context, string) (string, error)

// Resolve implements SecretResolver.
func (f SecretResolverFunc) Resolve(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// ValidationError reports configuration keys that are missing or malformed.
type ValidationError struct {
	Keys []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Keys) == 0 {
		return "config: invalid configuration"
	}
	keys := append([]string(nil), e.Keys...)
	sort.Strings(keys)
	return fmt.Sprintf("config: invalid or missing keys: %s", strings.Join(keys, ", "))
}

// Option customises the Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile  string
	lookup   func(string) (string, bool)
	resolver SecretResolver
}

// WithEnvFile overrides the .env file consulted before the process environment.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithLookup overrides the environment lookup, primarily for tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *loaderOptions) {
		if lookup != nil {
			o.lookup = lookup
		}
	}
}

// WithSecretResolver resolves secret:// references during Load.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.resolver = resolver
	}
}

// Load reads configuration from the optional .env file and the process
// environment, applies defaults, resolves secret references, and validates
// required keys.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, lookup: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	fileValues, err := readEnvFile(options.envFile)
	if err != nil {
		return Config{}, err
	}

	get := func(key string) string {
		if value, ok := options.lookup(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}

	var invalid []string

	duration := func(key string, fallback time.Duration) time.Duration {
		raw := get(key)
		if raw == "" {
			return fallback
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, key)
			return fallback
		}
		return parsed
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         firstNonEmpty(get("PORT"), defaultPort),
			ReadTimeout:  duration("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: duration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  duration("SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    firstNonEmpty(get("FIRESTORE_PROJECT_ID"), get("GOOGLE_CLOUD_PROJECT")),
			EmulatorHost: get("FIRESTORE_EMULATOR_HOST"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       firstNonEmpty(get("FIREBASE_PROJECT_ID"), get("GOOGLE_CLOUD_PROJECT")),
			CredentialsFile: get("FIREBASE_CREDENTIALS_FILE"),
		},
		PubSub: PubSubConfig{
			ProjectID:      firstNonEmpty(get("PUBSUB_PROJECT_ID"), get("GOOGLE_CLOUD_PROJECT")),
			SlugEventTopic: firstNonEmpty(get("PUBSUB_SLUG_EVENT_TOPIC"), defaultSlugEventTopic),
		},
		Storage: StorageConfig{
			ImagesBucket:       get("STORAGE_IMAGES_BUCKET"),
			SignerEmail:        get("STORAGE_SIGNER_EMAIL"),
			SignerKeySecretRef: get("STORAGE_SIGNER_KEY"),
			SignedURLTTL:       duration("STORAGE_SIGNED_URL_TTL", 15*time.Minute),
		},
		Security: SecurityConfig{
			Environment: firstNonEmpty(get("ENVIRONMENT"), defaultEnvironment),
		},
	}

	if cfg.Firestore.ProjectID == "" && cfg.Firestore.EmulatorHost == "" {
		invalid = append(invalid, "FIRESTORE_PROJECT_ID")
	}

	if err := resolveSecrets(ctx, &cfg, options.resolver); err != nil {
		return Config{}, err
	}

	if len(invalid) > 0 {
		return Config{}, &ValidationError{Keys: dedupe(invalid)}
	}
	return cfg, nil
}

func resolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) error {
	ref := strings.TrimSpace(cfg.Storage.SignerKeySecretRef)
	if !strings.HasPrefix(ref, secretScheme) {
		return nil
	}
	if resolver == nil {
		return errors.New("config: STORAGE_SIGNER_KEY references a secret but no resolver is configured")
	}
	value, err := resolver.Resolve(ctx, strings.TrimPrefix(ref, secretScheme))
	if err != nil {
		return fmt.Errorf("config: resolve STORAGE_SIGNER_KEY: %w", err)
	}
	cfg.Storage.SignerKeySecretRef = value
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if strings.TrimSpace(path) == "" {
		return values, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
