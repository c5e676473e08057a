package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/glowmart/api/internal/domain"
)

func TestNewProbeHealthRepositoryValidation(t *testing.T) {
	if _, err := NewProbeHealthRepository(nil); err == nil {
		t.Fatalf("expected error for empty probe set")
	}
	if _, err := NewProbeHealthRepository([]DependencyProbe{{Name: " "}}); err == nil {
		t.Fatalf("expected error for unnamed probe")
	}
	if _, err := NewProbeHealthRepository([]DependencyProbe{{Name: "firestore"}}); err == nil {
		t.Fatalf("expected error for probe without check")
	}
}

func TestCollectAllHealthy(t *testing.T) {
	repo, err := NewProbeHealthRepository([]DependencyProbe{
		{Name: "firestore", Check: func(context.Context) error { return nil }},
		{Name: "pubsub", Check: func(context.Context) error { return nil }},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok status, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(report.Checks))
	}
	if report.Checks["firestore"].Status != domain.HealthStatusOK {
		t.Fatalf("unexpected firestore status %s", report.Checks["firestore"].Status)
	}
}

func TestCollectDegraded(t *testing.T) {
	repo, err := NewProbeHealthRepository([]DependencyProbe{
		{Name: "firestore", Check: func(context.Context) error { return nil }},
		{Name: "pubsub", Check: func(context.Context) error { return errors.New("topic missing") }},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected degraded status, got %s", report.Status)
	}
	if report.Checks["pubsub"].Detail != "topic missing" {
		t.Fatalf("unexpected detail %q", report.Checks["pubsub"].Detail)
	}
}

func TestCollectTimeout(t *testing.T) {
	repo, err := NewProbeHealthRepository([]DependencyProbe{
		{
			Name:    "firestore",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.HealthStatusError {
		t.Fatalf("expected error status, got %s", report.Status)
	}
	if report.Checks["firestore"].Detail != "timeout" {
		t.Fatalf("unexpected detail %q", report.Checks["firestore"].Detail)
	}
}
