package handlers

import (
	"net/http"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/platform/httpx"
	"github.com/glowmart/api/internal/repositories"
)

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	health  repositories.HealthRepository
	clock   func() time.Time
	started time.Time
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthRepository wires the dependency probe collector behind /readyz.
func WithHealthRepository(repo repositories.HealthRepository) HealthOption {
	return func(h *HealthHandlers) {
		h.health = repo
	}
}

// WithHealthClock injects a deterministic clock for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs health handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.started = h.clock().UTC()
	return h
}

// Healthz reports process liveness only.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    domain.HealthStatusOK,
		"uptime":    now.Sub(h.started).String(),
		"timestamp": now.Format(time.RFC3339),
	})
}

// Readyz probes downstream dependencies and reports per-check detail. A
// report carrying an error status yields 503 so the instance is rotated out.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.health == nil {
		h.Healthz(w, r)
		return
	}

	report, err := h.health.Collect(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("health_probe_failed", err.Error(), http.StatusServiceUnavailable))
		return
	}

	checks := make(map[string]any, len(report.Checks))
	for name, check := range report.Checks {
		checks[name] = map[string]any{
			"status":    check.Status,
			"detail":    check.Detail,
			"latencyMs": check.Latency.Milliseconds(),
		}
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, status, map[string]any{
		"status":      report.Status,
		"checks":      checks,
		"generatedAt": report.GeneratedAt.Format(time.RFC3339),
	})
}
