package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/glowmart/api/internal/domain"
	"github.com/glowmart/api/internal/repositories"
)

type repoNotFoundErr struct{}

func (repoNotFoundErr) Error() string       { return "not found" }
func (repoNotFoundErr) IsNotFound() bool    { return true }
func (repoNotFoundErr) IsConflict() bool    { return false }
func (repoNotFoundErr) IsUnavailable() bool { return false }

type stubCategoryRepo struct {
	byID          map[string]domain.Category
	byName        map[string]domain.Category
	all           []domain.Category
	childCounts   map[string]int64
	searchResults []domain.Category

	inserted  []domain.Category
	updated   []domain.Category
	deletedID string
	batchIDs  []string

	insertErr      error
	updateErr      error
	deleteErr      error
	batchDeleted   int
	batchErr       error
	lastListFilter repositories.CategoryListFilter
}

func (s *stubCategoryRepo) Insert(_ context.Context, category domain.Category) (domain.Category, error) {
	if s.insertErr != nil {
		return domain.Category{}, s.insertErr
	}
	s.inserted = append(s.inserted, category)
	return category, nil
}

func (s *stubCategoryRepo) Update(_ context.Context, category domain.Category) (domain.Category, error) {
	if s.updateErr != nil {
		return domain.Category{}, s.updateErr
	}
	s.updated = append(s.updated, category)
	return category, nil
}

func (s *stubCategoryRepo) DeleteGuarded(_ context.Context, categoryID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedID = categoryID
	return nil
}

func (s *stubCategoryRepo) DeleteBatch(_ context.Context, ids []string) (int, error) {
	s.batchIDs = ids
	if s.batchErr != nil {
		return 0, s.batchErr
	}
	return s.batchDeleted, nil
}

func (s *stubCategoryRepo) FindByID(_ context.Context, categoryID string) (domain.Category, error) {
	if c, ok := s.byID[categoryID]; ok {
		return c, nil
	}
	return domain.Category{}, repoNotFoundErr{}
}

func (s *stubCategoryRepo) FindBySlug(_ context.Context, slug string) (domain.Category, error) {
	for _, c := range s.byID {
		if c.Slug == slug {
			return c, nil
		}
	}
	return domain.Category{}, repoNotFoundErr{}
}

func (s *stubCategoryRepo) FindByName(_ context.Context, name string) (domain.Category, error) {
	if c, ok := s.byName[name]; ok {
		return c, nil
	}
	return domain.Category{}, repoNotFoundErr{}
}

func (s *stubCategoryRepo) List(_ context.Context, filter repositories.CategoryListFilter) ([]domain.Category, error) {
	s.lastListFilter = filter
	return s.all, nil
}

func (s *stubCategoryRepo) ListAll(_ context.Context) ([]domain.Category, error) {
	return s.all, nil
}

func (s *stubCategoryRepo) ListChildren(_ context.Context, categoryID string) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range s.all {
		if c.ParentID != nil && *c.ParentID == categoryID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCategoryRepo) CountChildren(_ context.Context, categoryID string) (int64, error) {
	return s.childCounts[categoryID], nil
}

func (s *stubCategoryRepo) SearchByName(_ context.Context, _ string, limit int) ([]domain.Category, error) {
	if len(s.searchResults) > limit {
		return s.searchResults[:limit], nil
	}
	return s.searchResults, nil
}

type stubProductRepo struct {
	byID           map[string]domain.Product
	bySKU          map[string]domain.Product
	categoryCounts map[string]int64
	categoryRefs   []string
	brands         []domain.BrandCount
	listResp       domain.Page[domain.Product]

	inserted []domain.Product
	updated  []domain.Product
	batchIDs []string

	resyncCategoryID string
	resyncSlug       string
	resyncCount      int
	resyncErr        error

	batchDeleted   int
	lastListFilter repositories.ProductListFilter
}

func (s *stubProductRepo) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	s.inserted = append(s.inserted, product)
	return product, nil
}

func (s *stubProductRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	s.updated = append(s.updated, product)
	return product, nil
}

func (s *stubProductRepo) Delete(_ context.Context, productID string) error {
	if _, ok := s.byID[productID]; !ok {
		return repoNotFoundErr{}
	}
	delete(s.byID, productID)
	return nil
}

func (s *stubProductRepo) DeleteBatch(_ context.Context, ids []string) (int, error) {
	s.batchIDs = ids
	return s.batchDeleted, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	if p, ok := s.byID[productID]; ok {
		return p, nil
	}
	return domain.Product{}, repoNotFoundErr{}
}

func (s *stubProductRepo) FindBySKU(_ context.Context, sku string) (domain.Product, error) {
	if p, ok := s.bySKU[sku]; ok {
		return p, nil
	}
	return domain.Product{}, repoNotFoundErr{}
}

func (s *stubProductRepo) List(_ context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	s.lastListFilter = filter
	return s.listResp, nil
}

func (s *stubProductRepo) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	return s.categoryCounts[categoryID], nil
}

func (s *stubProductRepo) ListCategoryRefs(_ context.Context) ([]string, error) {
	return s.categoryRefs, nil
}

func (s *stubProductRepo) ResyncCategorySlug(_ context.Context, categoryID string, newSlug string) (int, error) {
	s.resyncCategoryID = categoryID
	s.resyncSlug = newSlug
	return s.resyncCount, s.resyncErr
}

func (s *stubProductRepo) ListBrands(_ context.Context) ([]domain.BrandCount, error) {
	return s.brands, nil
}

type stubSlugSubscriber struct {
	categoryID string
	newSlug    string
	count      int
	err        error
}

func (s *stubSlugSubscriber) ResyncCategorySlug(_ context.Context, categoryID string, newSlug string) (int, error) {
	s.categoryID = categoryID
	s.newSlug = newSlug
	return s.count, s.err
}

type stubSlugPublisher struct {
	events []CategorySlugChangedEvent
	err    error
}

func (s *stubSlugPublisher) PublishSlugChanged(_ context.Context, event CategorySlugChangedEvent) (string, error) {
	s.events = append(s.events, event)
	return "msg-1", s.err
}

type recordingAuditService struct {
	records []AuditLogRecord
}

func (s *recordingAuditService) Record(_ context.Context, record AuditLogRecord) {
	s.records = append(s.records, record)
}

func (s *recordingAuditService) List(_ context.Context, _ AuditLogFilter) (domain.Page[domain.AuditLogEntry], error) {
	return domain.Page[domain.AuditLogEntry]{}, nil
}

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newCategoryService(t *testing.T, deps CategoryServiceDeps) CategoryService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return fixedNow }
	}
	if deps.IDGen == nil {
		deps.IDGen = func() string { return "cat-generated" }
	}
	svc, err := NewCategoryService(deps)
	if err != nil {
		t.Fatalf("new category service: %v", err)
	}
	return svc
}

func TestCategoryServiceCreate(t *testing.T) {
	categories := &stubCategoryRepo{byID: map[string]domain.Category{}, byName: map[string]domain.Category{}}
	products := &stubProductRepo{}
	audit := &recordingAuditService{}
	svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: products, Audit: audit})

	created, err := svc.Create(context.Background(), CreateCategoryCommand{
		Name:  "  Skin Care  ",
		Image: domain.AssetRef{URL: "https://cdn.example.com/skin.png"},
		Actor: "admin-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "cat-generated" {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.Name != "Skin Care" || created.Slug != "skin-care" {
		t.Fatalf("unexpected name/slug: %q %q", created.Name, created.Slug)
	}
	if !created.IsActive {
		t.Fatalf("new categories default to active")
	}
	if !created.CreatedAt.Equal(fixedNow) || !created.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps not set from clock: %v %v", created.CreatedAt, created.UpdatedAt)
	}
	if len(categories.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(categories.inserted))
	}
	if len(audit.records) != 1 || audit.records[0].Action != "category.create" {
		t.Fatalf("expected category.create audit record, got %+v", audit.records)
	}
}

func TestCategoryServiceCreateValidation(t *testing.T) {
	parent := "missing-parent"
	cases := []struct {
		name    string
		cmd     CreateCategoryCommand
		wantErr error
	}{
		{
			name:    "missing name",
			cmd:     CreateCategoryCommand{Image: domain.AssetRef{URL: "u"}},
			wantErr: ErrMissingRequiredField,
		},
		{
			name:    "missing image",
			cmd:     CreateCategoryCommand{Name: "Hair Care"},
			wantErr: ErrImageRequired,
		},
		{
			name:    "unknown parent",
			cmd:     CreateCategoryCommand{Name: "Hair Care", Image: domain.AssetRef{URL: "u"}, ParentID: &parent},
			wantErr: ErrParentNotFound,
		},
		{
			name:    "duplicate name",
			cmd:     CreateCategoryCommand{Name: "Skin Care", Image: domain.AssetRef{URL: "u"}},
			wantErr: ErrDuplicateName,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			categories := &stubCategoryRepo{
				byID:   map[string]domain.Category{},
				byName: map[string]domain.Category{"Skin Care": {ID: "cat-1", Name: "Skin Care"}},
			}
			svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})
			if _, err := svc.Create(context.Background(), tc.cmd); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCategoryServiceUpdateRenamePropagatesSlug(t *testing.T) {
	existing := domain.Category{
		ID:       "cat-1",
		Name:     "Skin Care",
		Slug:     "skin-care",
		Image:    domain.AssetRef{URL: "u"},
		IsActive: true,
	}
	categories := &stubCategoryRepo{
		byID:   map[string]domain.Category{"cat-1": existing},
		byName: map[string]domain.Category{"Skin Care": existing},
	}
	subscriber := &stubSlugSubscriber{count: 4}
	publisher := &stubSlugPublisher{}
	svc := newCategoryService(t, CategoryServiceDeps{
		Categories: categories,
		Products:   &stubProductRepo{},
		Subscriber: subscriber,
		Events:     publisher,
	})

	name := "Skin & Body Care"
	updated, err := svc.Update(context.Background(), "cat-1", UpdateCategoryCommand{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "skin-&-body-care" {
		t.Fatalf("slug not recomputed: %q", updated.Slug)
	}
	if subscriber.categoryID != "cat-1" || subscriber.newSlug != updated.Slug {
		t.Fatalf("resync not invoked with new slug: %+v", subscriber)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one slug change event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.EventType != SlugChangedEventType || event.OldSlug != "skin-care" || event.NewSlug != updated.Slug || event.ProductsResynced != 4 {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestCategoryServiceUpdateValidation(t *testing.T) {
	existing := domain.Category{ID: "cat-1", Name: "Skin Care", Slug: "skin-care", Image: domain.AssetRef{URL: "u"}}
	self := "cat-1"

	categories := &stubCategoryRepo{byID: map[string]domain.Category{"cat-1": existing}, byName: map[string]domain.Category{}}
	svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})

	if _, err := svc.Update(context.Background(), "cat-1", UpdateCategoryCommand{}); !errors.Is(err, ErrNoFieldsProvided) {
		t.Fatalf("empty update: got %v, want %v", err, ErrNoFieldsProvided)
	}
	if _, err := svc.Update(context.Background(), "cat-1", UpdateCategoryCommand{ParentID: &self}); !errors.Is(err, ErrSelfParent) {
		t.Fatalf("self parent: got %v, want %v", err, ErrSelfParent)
	}
	missing := "ghost"
	if _, err := svc.Update(context.Background(), "cat-1", UpdateCategoryCommand{ParentID: &missing}); !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("unknown parent: got %v, want %v", err, ErrParentNotFound)
	}
	if _, err := svc.Update(context.Background(), "ghost", UpdateCategoryCommand{ParentID: &self}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing category: got %v, want %v", err, ErrNotFound)
	}
}

func TestCategoryServiceUpdateWithoutRenameSkipsResync(t *testing.T) {
	existing := domain.Category{ID: "cat-1", Name: "Skin Care", Slug: "skin-care", Image: domain.AssetRef{URL: "u"}}
	categories := &stubCategoryRepo{byID: map[string]domain.Category{"cat-1": existing}, byName: map[string]domain.Category{}}
	subscriber := &stubSlugSubscriber{}
	svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}, Subscriber: subscriber})

	active := false
	if _, err := svc.Update(context.Background(), "cat-1", UpdateCategoryCommand{IsActive: &active}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if subscriber.categoryID != "" {
		t.Fatalf("resync must not run when the slug is unchanged")
	}
}

func TestCategoryServiceDeleteGuards(t *testing.T) {
	existing := domain.Category{ID: "cat-1", Name: "Skin Care"}

	t.Run("blocked by subcategories", func(t *testing.T) {
		categories := &stubCategoryRepo{
			byID:        map[string]domain.Category{"cat-1": existing},
			childCounts: map[string]int64{"cat-1": 2},
		}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})
		if err := svc.Delete(context.Background(), "cat-1", "admin-1"); !errors.Is(err, ErrHasSubcategories) {
			t.Fatalf("got %v, want %v", err, ErrHasSubcategories)
		}
	})

	t.Run("blocked by products", func(t *testing.T) {
		categories := &stubCategoryRepo{byID: map[string]domain.Category{"cat-1": existing}, childCounts: map[string]int64{}}
		products := &stubProductRepo{categoryCounts: map[string]int64{"cat-1": 5}}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: products})
		if err := svc.Delete(context.Background(), "cat-1", "admin-1"); !errors.Is(err, ErrHasProducts) {
			t.Fatalf("got %v, want %v", err, ErrHasProducts)
		}
	})

	t.Run("deletes clean category", func(t *testing.T) {
		categories := &stubCategoryRepo{byID: map[string]domain.Category{"cat-1": existing}, childCounts: map[string]int64{}}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{categoryCounts: map[string]int64{}}})
		if err := svc.Delete(context.Background(), "cat-1", "admin-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if categories.deletedID != "cat-1" {
			t.Fatalf("delete not delegated, got %q", categories.deletedID)
		}
	})

	t.Run("missing category", func(t *testing.T) {
		svc := newCategoryService(t, CategoryServiceDeps{Categories: &stubCategoryRepo{byID: map[string]domain.Category{}}, Products: &stubProductRepo{}})
		if err := svc.Delete(context.Background(), "ghost", "admin-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("got %v, want %v", err, ErrNotFound)
		}
	})
}

func TestCategoryServiceBulkDelete(t *testing.T) {
	parent := "skin"
	snapshot := []domain.Category{
		{ID: "skin", Name: "Skin Care"},
		{ID: "moist", Name: "Moisturizers", ParentID: &parent},
		{ID: "hair", Name: "Hair Care"},
	}

	t.Run("empty batch", func(t *testing.T) {
		svc := newCategoryService(t, CategoryServiceDeps{Categories: &stubCategoryRepo{}, Products: &stubProductRepo{}})
		if _, err := svc.BulkDelete(context.Background(), []string{" ", ""}, "admin-1"); !errors.Is(err, ErrNothingDeleted) {
			t.Fatalf("got %v, want %v", err, ErrNothingDeleted)
		}
	})

	t.Run("batch with parent conflicts even when child included", func(t *testing.T) {
		categories := &stubCategoryRepo{all: snapshot}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})
		_, err := svc.BulkDelete(context.Background(), []string{"skin", "moist"}, "admin-1")
		if !errors.Is(err, ErrBatchHasSubcategories) {
			t.Fatalf("got %v, want %v", err, ErrBatchHasSubcategories)
		}
		var conflict *BatchConflictError
		if !errors.As(err, &conflict) || conflict.CategoryName != "Skin Care" {
			t.Fatalf("conflict must name the offending category, got %v", err)
		}
	})

	t.Run("batch with bound products conflicts", func(t *testing.T) {
		categories := &stubCategoryRepo{all: snapshot}
		products := &stubProductRepo{categoryRefs: []string{"hair"}}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: products})
		if _, err := svc.BulkDelete(context.Background(), []string{"hair"}, "admin-1"); !errors.Is(err, ErrBatchHasProducts) {
			t.Fatalf("got %v, want %v", err, ErrBatchHasProducts)
		}
	})

	t.Run("clean batch deletes", func(t *testing.T) {
		categories := &stubCategoryRepo{all: snapshot, batchDeleted: 2}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})
		deleted, err := svc.BulkDelete(context.Background(), []string{"moist", "hair", "moist"}, "admin-1")
		if err != nil {
			t.Fatalf("bulk delete: %v", err)
		}
		if deleted != 2 {
			t.Fatalf("expected 2 deleted, got %d", deleted)
		}
		if len(categories.batchIDs) != 2 {
			t.Fatalf("ids not deduplicated: %v", categories.batchIDs)
		}
	})

	t.Run("no documents deleted", func(t *testing.T) {
		categories := &stubCategoryRepo{all: nil, batchDeleted: 0}
		svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})
		if _, err := svc.BulkDelete(context.Background(), []string{"ghost"}, "admin-1"); !errors.Is(err, ErrNothingDeleted) {
			t.Fatalf("got %v, want %v", err, ErrNothingDeleted)
		}
	})
}

func TestCategoryServiceListByFilter(t *testing.T) {
	categories := &stubCategoryRepo{}
	svc := newCategoryService(t, CategoryServiceDeps{Categories: categories, Products: &stubProductRepo{}})

	if _, err := svc.ListByFilter(context.Background(), CategoryFilter{Parent: ParentFilterMain}); err != nil {
		t.Fatalf("list main: %v", err)
	}
	if !categories.lastListFilter.RootsOnly {
		t.Fatalf("main filter must select roots only")
	}

	if _, err := svc.ListByFilter(context.Background(), CategoryFilter{Parent: "cat-1"}); err != nil {
		t.Fatalf("list children: %v", err)
	}
	if categories.lastListFilter.ParentID == nil || *categories.lastListFilter.ParentID != "cat-1" {
		t.Fatalf("parent id filter not passed: %+v", categories.lastListFilter)
	}
}

func TestBuildHierarchy(t *testing.T) {
	skin := "skin"
	moist := "moist"
	ghost := "ghost"
	nodes := BuildHierarchy([]domain.Category{
		{ID: "skin", Name: "Skin Care"},
		{ID: "moist", Name: "Moisturizers", ParentID: &skin},
		{ID: "night", Name: "Night Creams", ParentID: &moist},
		{ID: "orphan", Name: "Orphan", ParentID: &ghost},
	})

	if len(nodes) != 2 {
		t.Fatalf("expected 2 roots (one orphan promoted), got %d", len(nodes))
	}
	if nodes[0].ID != "skin" || len(nodes[0].Subcategories) != 1 {
		t.Fatalf("unexpected first root: %+v", nodes[0])
	}
	if nodes[0].Subcategories[0].ID != "moist" || len(nodes[0].Subcategories[0].Subcategories) != 1 {
		t.Fatalf("nesting lost: %+v", nodes[0].Subcategories)
	}
	if nodes[1].ID != "orphan" {
		t.Fatalf("orphan not promoted to root: %+v", nodes[1])
	}
}
