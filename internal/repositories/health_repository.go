package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/glowmart/api/internal/domain"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// DependencyProbe describes a single downstream dependency check.
type DependencyProbe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// ProbeHealthOption customises the probe-backed health repository.
type ProbeHealthOption func(*probeHealthRepository)

// WithProbeTimeout overrides the default timeout applied when a probe omits its own.
func WithProbeTimeout(timeout time.Duration) ProbeHealthOption {
	return func(repo *probeHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

// WithProbeClock injects a custom clock, primarily for tests.
func WithProbeClock(clock func() time.Time) ProbeHealthOption {
	return func(repo *probeHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type probeHealthRepository struct {
	probes         []DependencyProbe
	defaultTimeout time.Duration
	now            func() time.Time
}

var _ HealthRepository = (*probeHealthRepository)(nil)

// NewProbeHealthRepository constructs a HealthRepository evaluating the given probes.
func NewProbeHealthRepository(probes []DependencyProbe, opts ...ProbeHealthOption) (HealthRepository, error) {
	if len(probes) == 0 {
		return nil, errors.New("health repository: at least one dependency probe is required")
	}
	for _, probe := range probes {
		if strings.TrimSpace(probe.Name) == "" {
			return nil, errors.New("health repository: dependency probe missing name")
		}
		if probe.Check == nil {
			return nil, errors.New("health repository: dependency probe " + probe.Name + " missing check function")
		}
	}

	repo := &probeHealthRepository{
		probes:         make([]DependencyProbe, len(probes)),
		defaultTimeout: defaultProbeTimeout,
		now:            time.Now,
	}
	copy(repo.probes, probes)

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo, nil
}

func (r *probeHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("health repository: context is required")
	}

	checks := make(map[string]domain.SystemHealthCheck, len(r.probes))
	for _, probe := range r.probes {
		checks[probe.Name] = r.run(ctx, probe)
	}

	status := domain.HealthStatusOK
	for _, check := range checks {
		switch check.Status {
		case domain.HealthStatusError:
			status = domain.HealthStatusError
		case domain.HealthStatusDegraded:
			if status == domain.HealthStatusOK {
				status = domain.HealthStatusDegraded
			}
		}
	}

	return domain.SystemHealthReport{
		Status:      status,
		Checks:      checks,
		GeneratedAt: r.now(),
	}, nil
}

func (r *probeHealthRepository) run(ctx context.Context, probe DependencyProbe) domain.SystemHealthCheck {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := probe.Check(probeCtx)
	end := r.now()

	check := domain.SystemHealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    "ok",
		Latency:   end.Sub(start),
		CheckedAt: end,
	}

	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		check.Status = domain.HealthStatusError
		check.Detail = "timeout"
	case errors.Is(err, context.Canceled):
		check.Status = domain.HealthStatusError
		check.Detail = "cancelled"
	default:
		check.Status = domain.HealthStatusDegraded
		check.Detail = err.Error()
	}

	return check
}
