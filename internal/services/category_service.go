package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/repositories"
)

// maxCategorySearchResults caps name search responses.
const maxCategorySearchResults = 20

// CategoryServiceDeps bundles constructor inputs for the category service.
type CategoryServiceDeps struct {
	Categories repositories.CategoryRepository
	Products   repositories.ProductRepository
	Subscriber CategorySlugSubscriber
	Events     SlugEventPublisher
	Audit      AuditLogService
	Logger     *zap.Logger
	Clock      func() time.Time
	IDGen      func() string
}

type categoryService struct {
	categories repositories.CategoryRepository
	products   repositories.ProductRepository
	subscriber CategorySlugSubscriber
	events     SlugEventPublisher
	audit      AuditLogService
	logger     *zap.Logger
	clock      func() time.Time
	idGen      func() string
}

var _ CategoryService = (*categoryService)(nil)

// NewCategoryService constructs the category service with the supplied dependencies.
func NewCategoryService(deps CategoryServiceDeps) (CategoryService, error) {
	if deps.Categories == nil {
		return nil, fmt.Errorf("category service: category repository is required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("category service: product repository is required")
	}
	if deps.IDGen == nil {
		return nil, fmt.Errorf("category service: id generator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := deps.Audit
	if audit == nil {
		audit = NoopAuditLogService()
	}
	return &categoryService{
		categories: deps.Categories,
		products:   deps.Products,
		subscriber: deps.Subscriber,
		events:     deps.Events,
		audit:      audit,
		logger:     logger,
		clock:      func() time.Time { return clock().UTC() },
		idGen:      deps.IDGen,
	}, nil
}

func (s *categoryService) Create(ctx context.Context, cmd CreateCategoryCommand) (domain.Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}
	if cmd.Image.IsZero() {
		return domain.Category{}, ErrImageRequired
	}

	parentID, err := s.resolveParent(ctx, cmd.ParentID, "")
	if err != nil {
		return domain.Category{}, err
	}

	// Fast path; the repository re-checks inside the inserting transaction.
	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return domain.Category{}, ErrDuplicateName
	} else if !isStoreNotFound(err) {
		return domain.Category{}, translateStoreError(err)
	}

	now := s.clock()
	category := domain.Category{
		ID:        s.idGen(),
		Name:      name,
		Slug:      Slugify(name),
		ParentID:  parentID,
		Image:     cmd.Image,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cmd.IsActive != nil {
		category.IsActive = *cmd.IsActive
	}

	created, err := s.categories.Insert(ctx, category)
	if err != nil {
		return domain.Category{}, translateStoreError(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     cmd.Actor,
		ActorType: "admin",
		Action:    "category.create",
		TargetRef: "categories/" + created.ID,
		Metadata:  map[string]any{"name": created.Name, "slug": created.Slug},
	})
	return created, nil
}

func (s *categoryService) Update(ctx context.Context, categoryID string, cmd UpdateCategoryCommand) (domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, ErrNotFound
	}
	if cmd.IsEmpty() {
		return domain.Category{}, ErrNoFieldsProvided
	}

	current, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return domain.Category{}, translateStoreError(err)
	}

	updated := current
	if cmd.ParentID != nil {
		parent := strings.TrimSpace(*cmd.ParentID)
		if parent == categoryID {
			return domain.Category{}, ErrSelfParent
		}
		if parent == "" {
			updated.ParentID = nil
		} else {
			resolved, err := s.resolveParent(ctx, &parent, categoryID)
			if err != nil {
				return domain.Category{}, err
			}
			updated.ParentID = resolved
		}
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Category{}, fmt.Errorf("%w: name", ErrMissingRequiredField)
		}
		if name != current.Name {
			if other, err := s.categories.FindByName(ctx, name); err == nil && other.ID != categoryID {
				return domain.Category{}, ErrDuplicateName
			} else if err != nil && !isStoreNotFound(err) {
				return domain.Category{}, translateStoreError(err)
			}
			updated.Name = name
			updated.Slug = Slugify(name)
		}
	}
	if cmd.Image != nil {
		if cmd.Image.IsZero() {
			return domain.Category{}, ErrImageRequired
		}
		updated.Image = *cmd.Image
	}
	if cmd.IsActive != nil {
		updated.IsActive = *cmd.IsActive
	}
	updated.UpdatedAt = s.clock()

	persisted, err := s.categories.Update(ctx, updated)
	if err != nil {
		return domain.Category{}, translateStoreError(err)
	}

	resynced := 0
	if persisted.Slug != current.Slug {
		resynced, err = s.propagateSlugChange(ctx, persisted.ID, current.Slug, persisted.Slug)
		if err != nil {
			return domain.Category{}, err
		}
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     cmd.Actor,
		ActorType: "admin",
		Action:    "category.update",
		TargetRef: "categories/" + persisted.ID,
		Metadata:  map[string]any{"slug": persisted.Slug, "productsResynced": resynced},
	})
	return persisted, nil
}

// propagateSlugChange rewrites dependent product documents synchronously so the
// denormalized slug copy is consistent when the update returns, then publishes
// the change event best effort.
func (s *categoryService) propagateSlugChange(ctx context.Context, categoryID, oldSlug, newSlug string) (int, error) {
	resynced := 0
	if s.subscriber != nil {
		n, err := s.subscriber.ResyncCategorySlug(ctx, categoryID, newSlug)
		if err != nil {
			return 0, translateStoreError(err)
		}
		resynced = n
	}
	if s.events != nil {
		event := CategorySlugChangedEvent{
			EventType:        SlugChangedEventType,
			CategoryID:       categoryID,
			OldSlug:          oldSlug,
			NewSlug:          newSlug,
			ProductsResynced: resynced,
			OccurredAt:       s.clock(),
		}
		if _, err := s.events.PublishSlugChanged(ctx, event); err != nil {
			s.logger.Warn("publish slug change event failed",
				zap.String("categoryId", categoryID),
				zap.String("newSlug", newSlug),
				zap.Error(err))
		}
	}
	return resynced, nil
}

func (s *categoryService) Delete(ctx context.Context, categoryID string, actor string) error {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return ErrNotFound
	}
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return translateStoreError(err)
	}

	// Fast path; the repository re-checks both guards inside the deleting
	// transaction, subcategories first.
	children, err := s.categories.CountChildren(ctx, categoryID)
	if err != nil {
		return translateStoreError(err)
	}
	if children > 0 {
		return ErrHasSubcategories
	}
	bound, err := s.products.CountByCategory(ctx, categoryID)
	if err != nil {
		return translateStoreError(err)
	}
	if bound > 0 {
		return ErrHasProducts
	}

	if err := s.categories.DeleteGuarded(ctx, categoryID); err != nil {
		return translateStoreError(err)
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     actor,
		ActorType: "admin",
		Action:    "category.delete",
		TargetRef: "categories/" + categoryID,
	})
	return nil
}

func (s *categoryService) BulkDelete(ctx context.Context, ids []string, actor string) (int, error) {
	ids = normalizeIDList(ids)
	if len(ids) == 0 {
		return 0, ErrNothingDeleted
	}

	// Fast path over a snapshot; the repository re-validates the whole batch
	// inside the deleting transaction.
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return 0, translateStoreError(err)
	}
	refs, err := s.products.ListCategoryRefs(ctx)
	if err != nil {
		return 0, translateStoreError(err)
	}
	if conflict := WouldCreateBatchConflict(ids, categories, refs); conflict != nil {
		sentinel := ErrBatchHasSubcategories
		if conflict.Kind == BatchConflictProducts {
			sentinel = ErrBatchHasProducts
		}
		return 0, &BatchConflictError{CategoryName: conflict.CategoryName, Err: sentinel}
	}

	deleted, err := s.categories.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, translateBatchError(err)
	}
	if deleted == 0 {
		return 0, ErrNothingDeleted
	}

	s.audit.Record(ctx, AuditLogRecord{
		Actor:     actor,
		ActorType: "admin",
		Action:    "category.bulk_delete",
		TargetRef: "categories",
		Metadata:  map[string]any{"requested": len(ids), "deleted": deleted},
	})
	return deleted, nil
}

func (s *categoryService) ListByFilter(ctx context.Context, filter CategoryFilter) ([]domain.Category, error) {
	repoFilter := repositories.CategoryListFilter{IsActive: filter.IsActive}
	switch parent := strings.TrimSpace(filter.Parent); parent {
	case "":
	case ParentFilterMain:
		repoFilter.RootsOnly = true
	default:
		repoFilter.ParentID = &parent
	}
	categories, err := s.categories.List(ctx, repoFilter)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return categories, nil
}

func (s *categoryService) Hierarchy(ctx context.Context) ([]domain.CategoryNode, error) {
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return BuildHierarchy(categories), nil
}

func (s *categoryService) Search(ctx context.Context, query string) ([]domain.Category, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Category{}, nil
	}
	matches, err := s.categories.SearchByName(ctx, query, maxCategorySearchResults)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return matches, nil
}

func (s *categoryService) Get(ctx context.Context, categoryID string) (domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, ErrNotFound
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return domain.Category{}, translateStoreError(err)
	}
	return category, nil
}

// resolveParent validates an optional parent reference. selfID, when set, makes
// a parent pointing back at the subject an error.
func (s *categoryService) resolveParent(ctx context.Context, parentID *string, selfID string) (*string, error) {
	if parentID == nil {
		return nil, nil
	}
	parent := strings.TrimSpace(*parentID)
	if parent == "" {
		return nil, nil
	}
	if selfID != "" && parent == selfID {
		return nil, ErrSelfParent
	}
	if _, err := s.categories.FindByID(ctx, parent); err != nil {
		if isStoreNotFound(err) {
			return nil, ErrParentNotFound
		}
		return nil, translateStoreError(err)
	}
	return &parent, nil
}

// BuildHierarchy assembles the category tree from a flat snapshot. Input order
// is preserved within each sibling group; categories pointing at a missing
// parent are treated as roots so the tree never silently drops nodes.
func BuildHierarchy(categories []domain.Category) []domain.CategoryNode {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
	}
	children := make(map[string][]domain.Category)
	var roots []domain.Category
	for _, c := range categories {
		if c.IsMain() {
			roots = append(roots, c)
			continue
		}
		parent := *c.ParentID
		if _, ok := known[parent]; !ok {
			roots = append(roots, c)
			continue
		}
		children[parent] = append(children[parent], c)
	}

	var build func(list []domain.Category) []domain.CategoryNode
	build = func(list []domain.Category) []domain.CategoryNode {
		nodes := make([]domain.CategoryNode, 0, len(list))
		for _, c := range list {
			nodes = append(nodes, domain.CategoryNode{
				Category:      c,
				Subcategories: build(children[c.ID]),
			})
		}
		return nodes
	}
	return build(roots)
}

// normalizeIDList trims and deduplicates ids, preserving first-seen order.
func normalizeIDList(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
