package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/glowmart/api/internal/domain"
)

type stubHealthRepo struct {
	report domain.SystemHealthReport
	err    error
}

func (s *stubHealthRepo) Collect(context.Context) (domain.SystemHealthReport, error) {
	return s.report, s.err
}

func TestHealthHandlersHealthz(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := start
	handlers := NewHealthHandlers(WithHealthClock(func() time.Time {
		current := now
		now = now.Add(30 * time.Second)
		return current
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handlers.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["status"] != string(domain.HealthStatusOK) {
		t.Fatalf("expected ok status, got %v", body["status"])
	}
	if body["uptime"] != "30s" {
		t.Fatalf("expected 30s uptime, got %v", body["uptime"])
	}
}

func TestHealthHandlersReadyz(t *testing.T) {
	repo := &stubHealthRepo{report: domain.SystemHealthReport{
		Status: domain.HealthStatusError,
		Checks: map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusError, Detail: "unavailable"},
		},
		GeneratedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}}
	handlers := NewHealthHandlers(WithHealthRepository(repo))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for error report, got %d", rr.Code)
	}
}

func TestHealthHandlersReadyzDegradedStaysReady(t *testing.T) {
	repo := &stubHealthRepo{report: domain.SystemHealthReport{Status: domain.HealthStatusDegraded}}
	handlers := NewHealthHandlers(WithHealthRepository(repo))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	handlers.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("degraded dependencies must not fail readiness, got %d", rr.Code)
	}
}
