package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithLookup(lookupFrom(map[string]string{
			"GOOGLE_CLOUD_PROJECT": "demo-project",
		})),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Fatalf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "demo-project" {
		t.Fatalf("expected project fallback, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.SlugEventTopic != defaultSlugEventTopic {
		t.Fatalf("expected default topic, got %q", cfg.PubSub.SlugEventTopic)
	}
}

func TestLoadRequiresProject(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(""), WithLookup(lookupFrom(nil)))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "FIRESTORE_PROJECT_ID") {
		t.Fatalf("expected FIRESTORE_PROJECT_ID named, got %v", verr)
	}
}

func TestLoadEmulatorWithoutProject(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithLookup(lookupFrom(map[string]string{
			"FIRESTORE_EMULATOR_HOST": "localhost:8200",
		})),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Fatalf("expected emulator host, got %q", cfg.Firestore.EmulatorHost)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithLookup(lookupFrom(map[string]string{
			"GOOGLE_CLOUD_PROJECT": "demo-project",
			"SERVER_READ_TIMEOUT":  "soon",
		})),
	)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "SERVER_READ_TIMEOUT") {
		t.Fatalf("expected SERVER_READ_TIMEOUT named, got %v", verr)
	}
}

func TestLoadResolvesSecrets(t *testing.T) {
	resolver := SecretResolverFunc(func(_ context.Context, name string) (string, error) {
		if name != "signer-key" {
			t.Fatalf("unexpected secret name %q", name)
		}
		return "pem-bytes", nil
	})
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
		WithLookup(lookupFrom(map[string]string{
			"GOOGLE_CLOUD_PROJECT":   "demo-project",
			"STORAGE_SIGNER_KEY":     "secret://signer-key",
			"STORAGE_SIGNED_URL_TTL": "5m",
		})),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.SignerKeySecretRef != "pem-bytes" {
		t.Fatalf("expected resolved secret, got %q", cfg.Storage.SignerKeySecretRef)
	}
	if cfg.Storage.SignedURLTTL != 5*time.Minute {
		t.Fatalf("expected 5m TTL, got %v", cfg.Storage.SignedURLTTL)
	}
}

func TestLoadSecretWithoutResolver(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithLookup(lookupFrom(map[string]string{
			"GOOGLE_CLOUD_PROJECT": "demo-project",
			"STORAGE_SIGNER_KEY":   "secret://signer-key",
		})),
	)
	if err == nil {
		t.Fatalf("expected error when secret reference has no resolver")
	}
}
