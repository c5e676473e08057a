package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/glowmart/api/internal/domain"
	pfirestore "github.com/glowmart/api/internal/platform/firestore"
	"github.com/glowmart/api/internal/repositories"
)

// CategoryRepository persists catalog categories. Uniqueness and deletion
// guards are re-checked inside Firestore transactions so concurrent admin
// edits cannot interleave between check and write.
type CategoryRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[domain.Category]
}

var _ repositories.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository constructs a Firestore-backed category repository.
func NewCategoryRepository(provider *pfirestore.Provider) (*CategoryRepository, error) {
	if provider == nil {
		return nil, errors.New("category repository: firestore provider is required")
	}

	encoder := func(value domain.Category) (any, error) {
		return encodeCategoryDocument(value), nil
	}
	decoder := func(snap *firestore.DocumentSnapshot) (domain.Category, error) {
		var doc categoryDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Category{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeCategoryDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Category](provider, categoriesCollection, encoder, decoder)
	return &CategoryRepository{provider: provider, base: base}, nil
}

// Insert creates the category after re-checking name and slug uniqueness in a transaction.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	category.ID = strings.TrimSpace(category.ID)
	if category.ID == "" {
		return domain.Category{}, errors.New("category repository: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := r.checkUniqueTx(ctx, tx, "categories.insert", category, ""); err != nil {
			return err
		}
		docRef, err := r.base.DocumentRef(ctx, category.ID)
		if err != nil {
			return err
		}
		return tx.Create(docRef, encodeCategoryDocument(category))
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// Update replaces the category state, re-checking uniqueness against other documents.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	category.ID = strings.TrimSpace(category.ID)
	if category.ID == "" {
		return domain.Category{}, errors.New("category repository: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, category.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(docRef); err != nil {
			return pfirestore.WrapError("categories.update", err)
		}
		if err := r.checkUniqueTx(ctx, tx, "categories.update", category, category.ID); err != nil {
			return err
		}
		return tx.Set(docRef, encodeCategoryDocument(category))
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteGuarded removes the category after re-checking both referential guards
// inside the deleting transaction. Subcategories are checked before products.
func (r *CategoryRepository) DeleteGuarded(ctx context.Context, categoryID string) error {
	if r == nil || r.base == nil {
		return errors.New("category repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return errors.New("category repository: id is required")
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, categoryID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(docRef)
		if err != nil {
			return pfirestore.WrapError("categories.delete", err)
		}

		hasChildren, err := r.hasChildrenTx(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if hasChildren {
			return &repositories.CatalogError{
				Op:      "categories.delete",
				Code:    repositories.CatalogErrorHasSubcategories,
				Ref:     categoryName(snap, categoryID),
				Message: "category has subcategories",
			}
		}

		hasProducts, err := r.hasProductsTx(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if hasProducts {
			return &repositories.CatalogError{
				Op:      "categories.delete",
				Code:    repositories.CatalogErrorHasProducts,
				Ref:     categoryName(snap, categoryID),
				Message: "category has bound products",
			}
		}

		return tx.Delete(docRef)
	})
}

// DeleteBatch removes the given ids all-or-nothing. Every id in the batch is
// validated against both guards before any document is deleted; the returned
// count reports how many of the requested ids existed and were removed.
func (r *CategoryRepository) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("category repository not initialised")
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		deleted = 0

		type target struct {
			ref  *firestore.DocumentRef
			name string
			id   string
		}
		var targets []target
		for _, id := range ids {
			docRef, err := r.base.DocumentRef(ctx, id)
			if err != nil {
				return err
			}
			snap, err := tx.Get(docRef)
			if err != nil {
				wrapped := pfirestore.WrapError("categories.bulk_delete", err)
				var repoErr *pfirestore.Error
				if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
					continue
				}
				return wrapped
			}
			targets = append(targets, target{ref: docRef, name: categoryName(snap, id), id: id})
		}
		if len(targets) == 0 {
			return nil
		}

		for _, tgt := range targets {
			hasChildren, err := r.hasChildrenTx(ctx, tx, tgt.id)
			if err != nil {
				return err
			}
			if hasChildren {
				return &repositories.CatalogError{
					Op:      "categories.bulk_delete",
					Code:    repositories.CatalogErrorHasSubcategories,
					Ref:     tgt.name,
					Message: fmt.Sprintf("category %q has subcategories", tgt.name),
				}
			}
		}
		for _, tgt := range targets {
			hasProducts, err := r.hasProductsTx(ctx, tx, tgt.id)
			if err != nil {
				return err
			}
			if hasProducts {
				return &repositories.CatalogError{
					Op:      "categories.bulk_delete",
					Code:    repositories.CatalogErrorHasProducts,
					Ref:     tgt.name,
					Message: fmt.Sprintf("category %q has bound products", tgt.name),
				}
			}
		}

		for _, tgt := range targets {
			if err := tx.Delete(tgt.ref); err != nil {
				return pfirestore.WrapError("categories.bulk_delete", err)
			}
		}
		deleted = len(targets)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// FindByID loads a category by its identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, errors.New("category repository: id is required")
	}
	doc, err := r.base.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	return doc.Data, nil
}

// FindBySlug loads a category by its unique slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	return r.findByField(ctx, "slug", strings.TrimSpace(slug), "categories.find_by_slug")
}

// FindByName loads a category by its exact (case-sensitive) name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (domain.Category, error) {
	return r.findByField(ctx, "name", strings.TrimSpace(name), "categories.find_by_name")
}

func (r *CategoryRepository) findByField(ctx context.Context, field string, value string, op string) (domain.Category, error) {
	if r == nil || r.base == nil {
		return domain.Category{}, errors.New("category repository not initialised")
	}
	if value == "" {
		return domain.Category{}, errors.New("category repository: " + field + " is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.Category{}, err
	}
	if len(docs) == 0 {
		return domain.Category{}, pfirestore.NotFoundError(op, "category not found")
	}
	return docs[0].Data, nil
}

// List returns categories narrowed by the filter, ordered by name.
func (r *CategoryRepository) List(ctx context.Context, filter repositories.CategoryListFilter) ([]domain.Category, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("category repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		switch {
		case filter.RootsOnly:
			q = q.Where("parentCategory", "==", nil)
		case filter.ParentID != nil:
			q = q.Where("parentCategory", "==", *filter.ParentID)
		}
		if filter.IsActive != nil {
			q = q.Where("isActive", "==", *filter.IsActive)
		}
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	return collectCategories(docs), nil
}

// ListAll returns every category ordered by name.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	return r.List(ctx, repositories.CategoryListFilter{})
}

// ListChildren returns the direct children of a category.
func (r *CategoryRepository) ListChildren(ctx context.Context, categoryID string) ([]domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, errors.New("category repository: id is required")
	}
	return r.List(ctx, repositories.CategoryListFilter{ParentID: &categoryID})
}

// CountChildren reports how many categories reference categoryID as parent.
func (r *CategoryRepository) CountChildren(ctx context.Context, categoryID string) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("category repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return 0, errors.New("category repository: id is required")
	}
	return r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("parentCategory", "==", categoryID)
	})
}

// SearchByName runs a case-insensitive substring match over category names.
// Firestore has no contains operator, so the bounded category set is scanned
// and filtered in memory.
func (r *CategoryRepository) SearchByName(ctx context.Context, query string, limit int) ([]domain.Category, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("category repository not initialised")
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var matches []domain.Category
	for _, category := range all {
		if strings.Contains(strings.ToLower(category.Name), needle) {
			matches = append(matches, category)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches, nil
}

func (r *CategoryRepository) checkUniqueTx(ctx context.Context, tx *firestore.Transaction, op string, category domain.Category, excludeID string) error {
	nameTaken, err := r.takenTx(ctx, tx, "name", category.Name, excludeID)
	if err != nil {
		return err
	}
	if nameTaken {
		return &repositories.CatalogError{
			Op:      op,
			Code:    repositories.CatalogErrorNameTaken,
			Ref:     category.Name,
			Message: fmt.Sprintf("category name %q already exists", category.Name),
		}
	}

	slugTaken, err := r.takenTx(ctx, tx, "slug", category.Slug, excludeID)
	if err != nil {
		return err
	}
	if slugTaken {
		return &repositories.CatalogError{
			Op:      op,
			Code:    repositories.CatalogErrorSlugTaken,
			Ref:     category.Slug,
			Message: fmt.Sprintf("category slug %q already exists", category.Slug),
		}
	}
	return nil
}

func (r *CategoryRepository) takenTx(ctx context.Context, tx *firestore.Transaction, field string, value string, excludeID string) (bool, error) {
	docs, err := r.base.QueryTx(ctx, tx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(2)
	})
	if err != nil {
		return false, err
	}
	for _, doc := range docs {
		if doc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *CategoryRepository) hasChildrenTx(ctx context.Context, tx *firestore.Transaction, categoryID string) (bool, error) {
	docs, err := r.base.QueryTx(ctx, tx, func(q firestore.Query) firestore.Query {
		return q.Where("parentCategory", "==", categoryID).Limit(1)
	})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

func (r *CategoryRepository) hasProductsTx(ctx context.Context, tx *firestore.Transaction, categoryID string) (bool, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return false, err
	}
	query := client.Collection(productsCollection).
		Where("category", "==", categoryID).
		Limit(1)

	iter := tx.Documents(query)
	defer iter.Stop()

	_, err = iter.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, pfirestore.WrapError("categories.product_guard", err)
	}
	return true, nil
}

func categoryName(snap *firestore.DocumentSnapshot, fallback string) string {
	if snap != nil {
		if raw, err := snap.DataAt("name"); err == nil {
			if name, ok := raw.(string); ok && name != "" {
				return name
			}
		}
	}
	return fallback
}

func collectCategories(docs []pfirestore.Document[domain.Category]) []domain.Category {
	out := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data)
	}
	return out
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type categoryDocument struct {
	ID        string           `firestore:"-"`
	Name      string           `firestore:"name"`
	Slug      string           `firestore:"slug"`
	ParentID  *string          `firestore:"parentCategory"`
	Image     assetRefDocument `firestore:"image"`
	IsActive  bool             `firestore:"isActive"`
	CreatedAt time.Time        `firestore:"createdAt"`
	UpdatedAt time.Time        `firestore:"updatedAt"`
}

type assetRefDocument struct {
	URL      string `firestore:"url"`
	PublicID string `firestore:"publicId,omitempty"`
}

func encodeCategoryDocument(category domain.Category) categoryDocument {
	return categoryDocument{
		Name:     strings.TrimSpace(category.Name),
		Slug:     strings.TrimSpace(category.Slug),
		ParentID: cloneStringPtr(category.ParentID),
		Image: assetRefDocument{
			URL:      strings.TrimSpace(category.Image.URL),
			PublicID: strings.TrimSpace(category.Image.PublicID),
		},
		IsActive:  category.IsActive,
		CreatedAt: category.CreatedAt.UTC(),
		UpdatedAt: category.UpdatedAt.UTC(),
	}
}

func decodeCategoryDocument(doc categoryDocument) domain.Category {
	return domain.Category{
		ID:       doc.ID,
		Name:     doc.Name,
		Slug:     doc.Slug,
		ParentID: cloneStringPtr(doc.ParentID),
		Image: domain.AssetRef{
			URL:      doc.Image.URL,
			PublicID: doc.Image.PublicID,
		},
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
