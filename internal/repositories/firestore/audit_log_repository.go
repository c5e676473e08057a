package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/glowmart/api/internal/domain"
	pfirestore "github.com/glowmart/api/internal/platform/firestore"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/repositories"
)

// AuditLogRepository persists append-only records of admin catalog mutations.
type AuditLogRepository struct {
	base *pfirestore.BaseRepository[domain.AuditLogEntry]
}

var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository: firestore provider is required")
	}

	encoder := func(value domain.AuditLogEntry) (any, error) {
		return encodeAuditLogDocument(value), nil
	}
	decoder := func(snap *firestore.DocumentSnapshot) (domain.AuditLogEntry, error) {
		var doc auditLogDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.AuditLogEntry{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.OccurredAt.IsZero() {
			doc.OccurredAt = snap.CreateTime
		}
		return decodeAuditLogDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.AuditLogEntry](provider, auditLogsCollection, encoder, decoder)
	return &AuditLogRepository{base: base}, nil
}

// Append stores a new immutable entry. Entries are never updated or deleted.
func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if r == nil || r.base == nil {
		return errors.New("audit log repository not initialised")
	}
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		return errors.New("audit log repository: id is required")
	}
	_, err := r.base.Create(ctx, entry.ID, entry)
	return err
}

// List returns entries matching the filter, newest first.
func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.AuditLogEntry]{}, errors.New("audit log repository not initialised")
	}

	narrow := func(q firestore.Query) firestore.Query {
		if ref := strings.TrimSpace(filter.TargetRef); ref != "" {
			q = q.Where("targetRef", "==", ref)
		}
		if actor := strings.TrimSpace(filter.Actor); actor != "" {
			q = q.Where("actor", "==", actor)
		}
		if action := strings.TrimSpace(filter.Action); action != "" {
			q = q.Where("action", "==", action)
		}
		return q
	}

	total, err := r.base.Count(ctx, narrow)
	if err != nil {
		return domain.Page[domain.AuditLogEntry]{}, err
	}

	params := filter.Pagination
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = narrow(q).OrderBy("occurredAt", firestore.Desc)
		if !params.Unlimited && params.Limit > 0 {
			q = q.Offset(params.Offset()).Limit(params.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.AuditLogEntry]{}, err
	}

	items := make([]domain.AuditLogEntry, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data)
	}

	meta := pagination.NewMeta(int(total), params)
	return domain.Page[domain.AuditLogEntry]{
		Items:       items,
		TotalItems:  meta.TotalItems,
		CurrentPage: meta.CurrentPage,
		TotalPages:  meta.TotalPages,
		HasNext:     meta.HasNext,
		HasPrev:     meta.HasPrev,
	}, nil
}

type auditLogDocument struct {
	ID         string                       `firestore:"-"`
	Actor      string                       `firestore:"actor"`
	ActorType  string                       `firestore:"actorType"`
	Action     string                       `firestore:"action"`
	TargetRef  string                       `firestore:"targetRef"`
	Severity   string                       `firestore:"severity,omitempty"`
	OccurredAt time.Time                    `firestore:"occurredAt"`
	Metadata   map[string]any               `firestore:"metadata,omitempty"`
	Diff       map[string]auditDiffDocument `firestore:"diff,omitempty"`
}

type auditDiffDocument struct {
	Before any `firestore:"before,omitempty"`
	After  any `firestore:"after,omitempty"`
}

func encodeAuditLogDocument(entry domain.AuditLogEntry) auditLogDocument {
	var diff map[string]auditDiffDocument
	if len(entry.Diff) > 0 {
		diff = make(map[string]auditDiffDocument, len(entry.Diff))
		for field, change := range entry.Diff {
			diff[field] = auditDiffDocument{Before: change.Before, After: change.After}
		}
	}

	return auditLogDocument{
		Actor:      strings.TrimSpace(entry.Actor),
		ActorType:  strings.TrimSpace(entry.ActorType),
		Action:     strings.TrimSpace(entry.Action),
		TargetRef:  strings.TrimSpace(entry.TargetRef),
		Severity:   strings.TrimSpace(entry.Severity),
		OccurredAt: entry.OccurredAt.UTC(),
		Metadata:   cloneMetadata(entry.Metadata),
		Diff:       diff,
	}
}

func decodeAuditLogDocument(doc auditLogDocument) domain.AuditLogEntry {
	var diff map[string]domain.AuditDiff
	if len(doc.Diff) > 0 {
		diff = make(map[string]domain.AuditDiff, len(doc.Diff))
		for field, change := range doc.Diff {
			diff[field] = domain.AuditDiff{Before: change.Before, After: change.After}
		}
	}

	return domain.AuditLogEntry{
		ID:         doc.ID,
		Actor:      doc.Actor,
		ActorType:  doc.ActorType,
		Action:     doc.Action,
		TargetRef:  doc.TargetRef,
		Severity:   doc.Severity,
		OccurredAt: doc.OccurredAt.UTC(),
		Metadata:   cloneMetadata(doc.Metadata),
		Diff:       diff,
	}
}

func cloneMetadata(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}
