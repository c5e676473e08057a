package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/repositories"
)

const (
	defaultAuditSeverity = "info"
	defaultActorType     = "unknown"
)

// AuditLogger defines the logging contract used by the audit writer service.
type AuditLogger interface {
	Warnf(format string, args ...any)
}

type auditLogService struct {
	repo   repositories.AuditLogRepository
	clock  func() time.Time
	logger AuditLogger
	idGen  func() string
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository repositories.AuditLogRepository
	Clock      func() time.Time
	Logger     AuditLogger
	IDGen      func() string
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("audit log service: repository is required")
	}
	if deps.IDGen == nil {
		return nil, fmt.Errorf("audit log service: id generator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}

	return &auditLogService{
		repo:   deps.Repository,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
		idGen:  deps.IDGen,
	}, nil
}

// Record persists an audit log entry. Repository failures are logged but do
// not bubble up to callers to avoid interrupting the primary mutation flow.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	if s.repo == nil {
		return
	}
	entry := s.buildEntry(record)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Warnf("audit log append failed: %v", err)
	}
}

// List delegates to the repository to retrieve paginated audit logs.
func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	if s.repo == nil {
		return domain.Page[domain.AuditLogEntry]{}, fmt.Errorf("audit log service: repository is required")
	}
	page, err := s.repo.List(ctx, repositories.AuditLogFilter{
		TargetRef:  strings.TrimSpace(filter.TargetRef),
		Actor:      strings.TrimSpace(filter.Actor),
		Action:     strings.TrimSpace(filter.Action),
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.Page[domain.AuditLogEntry]{}, translateStoreError(err)
	}
	return page, nil
}

func (s *auditLogService) buildEntry(record AuditLogRecord) domain.AuditLogEntry {
	occurredAt := record.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock()
	}
	severity := strings.TrimSpace(strings.ToLower(record.Severity))
	if severity == "" {
		severity = defaultAuditSeverity
	}
	actorType := strings.TrimSpace(record.ActorType)
	if actorType == "" {
		actorType = defaultActorType
	}
	return domain.AuditLogEntry{
		ID:         s.idGen(),
		Actor:      strings.TrimSpace(record.Actor),
		ActorType:  actorType,
		Action:     strings.TrimSpace(record.Action),
		TargetRef:  strings.TrimSpace(record.TargetRef),
		Severity:   severity,
		OccurredAt: occurredAt.UTC(),
		Metadata:   record.Metadata,
		Diff:       record.Diff,
	}
}

type noopAuditLogger struct{}

func (noopAuditLogger) Warnf(string, ...any) {}

type noopAuditLogService struct{}

func (noopAuditLogService) Record(context.Context, AuditLogRecord) {}

func (noopAuditLogService) List(context.Context, AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	return domain.Page[domain.AuditLogEntry]{}, nil
}

// NoopAuditLogService returns an audit writer that drops every record. Used
// when auditing is not configured.
func NoopAuditLogService() AuditLogService {
	return noopAuditLogService{}
}
