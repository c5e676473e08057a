package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/glowmart/api/internal/domain"
	pfirestore "github.com/glowmart/api/internal/platform/firestore"
	"github.com/glowmart/api/internal/platform/pagination"
	"github.com/glowmart/api/internal/repositories"
)

// Firestore caps disjunctive filter values ("in", "array-contains-any").
const maxInValues = 30

// ProductRepository persists catalog products. SKUs are stored uppercased so
// the case-insensitive uniqueness check is a plain equality query.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[domain.Product]
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository: firestore provider is required")
	}

	encoder := func(value domain.Product) (any, error) {
		return encodeProductDocument(value), nil
	}
	decoder := func(snap *firestore.DocumentSnapshot) (domain.Product, error) {
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Product{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeProductDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Product](provider, productsCollection, encoder, decoder)
	return &ProductRepository{provider: provider, base: base}, nil
}

// Insert creates the product after re-checking SKU and slug uniqueness in a transaction.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return domain.Product{}, errors.New("product repository: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := r.checkUniqueTx(ctx, tx, "products.insert", product, ""); err != nil {
			return err
		}
		docRef, err := r.base.DocumentRef(ctx, product.ID)
		if err != nil {
			return err
		}
		return tx.Create(docRef, encodeProductDocument(product))
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Update replaces the product state, re-checking uniqueness against other documents.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return domain.Product{}, errors.New("product repository: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, product.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(docRef); err != nil {
			return pfirestore.WrapError("products.update", err)
		}
		if err := r.checkUniqueTx(ctx, tx, "products.update", product, product.ID); err != nil {
			return err
		}
		return tx.Set(docRef, encodeProductDocument(product))
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Delete removes the product and fails not-found when it never existed.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("product repository: id is required")
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef, err := r.base.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(docRef); err != nil {
			return pfirestore.WrapError("products.delete", err)
		}
		return tx.Delete(docRef)
	})
}

// DeleteBatch removes the given ids and reports how many of them existed.
// Products carry no referential guards.
func (r *ProductRepository) DeleteBatch(ctx context.Context, ids []string) (int, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("product repository not initialised")
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		deleted = 0

		var refs []*firestore.DocumentRef
		for _, id := range ids {
			docRef, err := r.base.DocumentRef(ctx, id)
			if err != nil {
				return err
			}
			if _, err := tx.Get(docRef); err != nil {
				wrapped := pfirestore.WrapError("products.bulk_delete", err)
				var repoErr *pfirestore.Error
				if errors.As(wrapped, &repoErr) && repoErr.IsNotFound() {
					continue
				}
				return wrapped
			}
			refs = append(refs, docRef)
		}

		for _, ref := range refs {
			if err := tx.Delete(ref); err != nil {
				return pfirestore.WrapError("products.bulk_delete", err)
			}
		}
		deleted = len(refs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// FindByID loads a product by its identifier.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, errors.New("product repository: id is required")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data, nil
}

// FindBySKU loads a product by SKU. The lookup is case-insensitive because
// SKUs are normalised to uppercase before storage.
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.Product{}, errors.New("product repository: sku is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("sku", "==", sku).Limit(1)
	})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, pfirestore.NotFoundError("products.find_by_sku", "product not found")
	}
	return docs[0].Data, nil
}

// List returns a filtered, sorted, offset-paginated product page. Equality
// filters run server-side; substring search, price ranges and oversized
// category sets fall back to a scan filtered in memory, since Firestore
// cannot combine those with arbitrary orderings.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Product]{}, errors.New("product repository not initialised")
	}
	if needsScan(filter) {
		return r.listScan(ctx, filter)
	}
	return r.listServerSide(ctx, filter)
}

func needsScan(filter repositories.ProductListFilter) bool {
	if strings.TrimSpace(filter.Query) != "" {
		return true
	}
	if len(filter.CategoryIDs) > maxInValues {
		return true
	}
	return filter.MinPrice != nil || filter.MaxPrice != nil
}

func (r *ProductRepository) listServerSide(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	equality := func(q firestore.Query) firestore.Query {
		return applyEqualityFilters(q, filter)
	}

	total, err := r.base.Count(ctx, equality)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	params := filter.Pagination
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = applyEqualityFilters(q, filter)
		q = applyOrdering(q, filter)
		if !params.Unlimited && params.Limit > 0 {
			q = q.Offset(params.Offset()).Limit(params.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	items := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data)
	}
	return buildPage(items, pagination.NewMeta(int(total), params)), nil
}

func (r *ProductRepository) listScan(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.Product], error) {
	pushDownCategories := len(filter.CategoryIDs) > 0 && len(filter.CategoryIDs) <= maxInValues

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if pushDownCategories {
			q = categoryFilter(q, filter.CategoryIDs)
		}
		if filter.IsActive != nil {
			q = q.Where("isActive", "==", *filter.IsActive)
		}
		if filter.IsFeatured != nil {
			q = q.Where("isFeatured", "==", *filter.IsFeatured)
		}
		if filter.Brand != nil {
			q = q.Where("brand", "==", *filter.Brand)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}

	var categorySet map[string]struct{}
	if len(filter.CategoryIDs) > 0 && !pushDownCategories {
		categorySet = make(map[string]struct{}, len(filter.CategoryIDs))
		for _, id := range filter.CategoryIDs {
			categorySet[id] = struct{}{}
		}
	}
	needle := strings.ToLower(strings.TrimSpace(filter.Query))

	var items []domain.Product
	for _, doc := range docs {
		product := doc.Data
		if categorySet != nil {
			if _, ok := categorySet[product.CategoryID]; !ok {
				continue
			}
		}
		if filter.MinPrice != nil && product.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && product.Price > *filter.MaxPrice {
			continue
		}
		if needle != "" && !matchesQuery(product, needle) {
			continue
		}
		items = append(items, product)
	}

	sortProducts(items, filter.SortBy, filter.SortOrder == domain.SortDesc)
	page, meta := pagination.Slice(items, filter.Pagination)
	return buildPage(page, meta), nil
}

// CountByCategory reports how many products reference the category.
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("product repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return 0, errors.New("product repository: category id is required")
	}
	return r.base.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("category", "==", categoryID)
	})
}

// ListCategoryRefs returns the distinct category ids referenced by products.
func (r *ProductRepository) ListCategoryRefs(ctx context.Context) ([]string, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Select("category")
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(docs))
	var refs []string
	for _, doc := range docs {
		id := doc.Data.CategoryID
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}
	sort.Strings(refs)
	return refs, nil
}

// ResyncCategorySlug rewrites the denormalized categorySlug on every product
// bound to categoryID. Only documents whose stored slug differs are touched,
// so rerunning with the same target slug is a no-op.
func (r *ProductRepository) ResyncCategorySlug(ctx context.Context, categoryID string, newSlug string) (int, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("product repository not initialised")
	}
	categoryID = strings.TrimSpace(categoryID)
	newSlug = strings.TrimSpace(newSlug)
	if categoryID == "" || newSlug == "" {
		return 0, errors.New("product repository: category id and slug are required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("category", "==", categoryID).Where("categorySlug", "!=", newSlug)
	})
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	coll := client.Collection(productsCollection)

	writer := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := writer.Update(coll.Doc(doc.ID), []firestore.Update{
			{Path: "categorySlug", Value: newSlug},
		})
		if err != nil {
			writer.End()
			return 0, pfirestore.WrapError("products.resync_category_slug", err)
		}
		jobs = append(jobs, job)
	}
	writer.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return 0, pfirestore.WrapError("products.resync_category_slug", err)
		}
	}
	return len(docs), nil
}

// ListBrands groups products by brand with counts, ordered by count descending.
// Firestore has no group-by aggregation, so brands are tallied from a
// field-projected scan.
func (r *ProductRepository) ListBrands(ctx context.Context) ([]domain.BrandCount, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Select("brand")
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, doc := range docs {
		brand := strings.TrimSpace(doc.Data.Brand)
		if brand == "" {
			continue
		}
		counts[brand]++
	}

	brands := make([]domain.BrandCount, 0, len(counts))
	for brand, count := range counts {
		brands = append(brands, domain.BrandCount{Brand: brand, Count: count})
	}
	sort.Slice(brands, func(i, j int) bool {
		if brands[i].Count != brands[j].Count {
			return brands[i].Count > brands[j].Count
		}
		return brands[i].Brand < brands[j].Brand
	})
	return brands, nil
}

func (r *ProductRepository) checkUniqueTx(ctx context.Context, tx *firestore.Transaction, op string, product domain.Product, excludeID string) error {
	skuTaken, err := r.fieldTakenTx(ctx, tx, "sku", product.SKU, excludeID)
	if err != nil {
		return err
	}
	if skuTaken {
		return &repositories.CatalogError{
			Op:      op,
			Code:    repositories.CatalogErrorSKUTaken,
			Ref:     product.SKU,
			Message: fmt.Sprintf("product sku %q already exists", product.SKU),
		}
	}

	slugTaken, err := r.fieldTakenTx(ctx, tx, "slug", product.Slug, excludeID)
	if err != nil {
		return err
	}
	if slugTaken {
		return &repositories.CatalogError{
			Op:      op,
			Code:    repositories.CatalogErrorSlugTaken,
			Ref:     product.Slug,
			Message: fmt.Sprintf("product slug %q already exists", product.Slug),
		}
	}
	return nil
}

func (r *ProductRepository) fieldTakenTx(ctx context.Context, tx *firestore.Transaction, field string, value string, excludeID string) (bool, error) {
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

func applyEqualityFilters(q firestore.Query, filter repositories.ProductListFilter) firestore.Query {
	if len(filter.CategoryIDs) > 0 {
		q = categoryFilter(q, filter.CategoryIDs)
	}
	if filter.IsActive != nil {
		q = q.Where("isActive", "==", *filter.IsActive)
	}
	if filter.IsFeatured != nil {
		q = q.Where("isFeatured", "==", *filter.IsFeatured)
	}
	if filter.Brand != nil {
		q = q.Where("brand", "==", *filter.Brand)
	}
	return q
}

func categoryFilter(q firestore.Query, ids []string) firestore.Query {
	if len(ids) == 1 {
		return q.Where("category", "==", ids[0])
	}
	return q.Where("category", "in", ids)
}

func applyOrdering(q firestore.Query, filter repositories.ProductListFilter) firestore.Query {
	dir := firestore.Asc
	if filter.SortOrder == domain.SortDesc {
		dir = firestore.Desc
	}

	switch filter.SortBy {
	case domain.ProductSortFeatured:
		// Fixed two-key ordering regardless of the requested direction.
		return q.OrderBy("isFeatured", firestore.Desc).OrderBy("createdAt", firestore.Desc)
	case domain.ProductSortRating:
		return q.OrderBy("rating", dir)
	case domain.ProductSortPrice:
		return q.OrderBy("price", dir)
	case domain.ProductSortName:
		return q.OrderBy("name", dir)
	case domain.ProductSortCreatedAt:
		return q.OrderBy("createdAt", dir)
	default:
		return q.OrderBy("createdAt", firestore.Desc)
	}
}

func matchesQuery(product domain.Product, needle string) bool {
	if strings.Contains(strings.ToLower(product.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(product.Description), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(product.Brand), needle) {
		return true
	}
	for _, tag := range product.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func sortProducts(items []domain.Product, sortBy domain.ProductSort, desc bool) {
	less := func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }

	switch sortBy {
	case domain.ProductSortFeatured:
		less = func(a, b domain.Product) bool {
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		desc = false
	case domain.ProductSortRating:
		less = func(a, b domain.Product) bool { return a.Rating < b.Rating }
	case domain.ProductSortPrice:
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case domain.ProductSortName:
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case domain.ProductSortCreatedAt:
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		desc = false
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func buildPage(items []domain.Product, meta pagination.Meta) domain.Page[domain.Product] {
	return domain.Page[domain.Product]{
		Items:       items,
		TotalItems:  meta.TotalItems,
		CurrentPage: meta.CurrentPage,
		TotalPages:  meta.TotalPages,
		HasNext:     meta.HasNext,
		HasPrev:     meta.HasPrev,
	}
}

type productDocument struct {
	ID             string             `firestore:"-"`
	Name           string             `firestore:"name"`
	Slug           string             `firestore:"slug"`
	Description    string             `firestore:"description"`
	Brand          string             `firestore:"brand"`
	SKU            string             `firestore:"sku"`
	Price          float64            `firestore:"price"`
	OriginalPrice  *float64           `firestore:"originalPrice,omitempty"`
	CategoryID     string             `firestore:"category"`
	CategorySlug   string             `firestore:"categorySlug"`
	Images         []assetRefDocument `firestore:"images"`
	Specifications map[string]string  `firestore:"specifications,omitempty"`
	Tags           []string           `firestore:"tags,omitempty"`
	IsActive       bool               `firestore:"isActive"`
	IsFeatured     bool               `firestore:"isFeatured"`
	Rating         float64            `firestore:"rating"`
	NumReviews     int                `firestore:"numReviews"`
	CreatedAt      time.Time          `firestore:"createdAt"`
	UpdatedAt      time.Time          `firestore:"updatedAt"`
}

func encodeProductDocument(product domain.Product) productDocument {
	images := make([]assetRefDocument, 0, len(product.Images))
	for _, image := range product.Images {
		images = append(images, assetRefDocument{
			URL:      strings.TrimSpace(image.URL),
			PublicID: strings.TrimSpace(image.PublicID),
		})
	}

	return productDocument{
		Name:           strings.TrimSpace(product.Name),
		Slug:           strings.TrimSpace(product.Slug),
		Description:    product.Description,
		Brand:          strings.TrimSpace(product.Brand),
		SKU:            strings.ToUpper(strings.TrimSpace(product.SKU)),
		Price:          product.Price,
		OriginalPrice:  cloneFloatPtr(product.OriginalPrice),
		CategoryID:     strings.TrimSpace(product.CategoryID),
		CategorySlug:   strings.TrimSpace(product.CategorySlug),
		Images:         images,
		Specifications: cloneStringMap(product.Specifications),
		Tags:           cloneStrings(product.Tags),
		IsActive:       product.IsActive,
		IsFeatured:     product.IsFeatured,
		Rating:         product.Rating,
		NumReviews:     product.NumReviews,
		CreatedAt:      product.CreatedAt.UTC(),
		UpdatedAt:      product.UpdatedAt.UTC(),
	}
}

func decodeProductDocument(doc productDocument) domain.Product {
	images := make([]domain.AssetRef, 0, len(doc.Images))
	for _, image := range doc.Images {
		images = append(images, domain.AssetRef{URL: image.URL, PublicID: image.PublicID})
	}

	return domain.Product{
		ID:             doc.ID,
		Name:           doc.Name,
		Slug:           doc.Slug,
		Description:    doc.Description,
		Brand:          doc.Brand,
		SKU:            doc.SKU,
		Price:          doc.Price,
		OriginalPrice:  cloneFloatPtr(doc.OriginalPrice),
		CategoryID:     doc.CategoryID,
		CategorySlug:   doc.CategorySlug,
		Images:         images,
		Specifications: cloneStringMap(doc.Specifications),
		Tags:           cloneStrings(doc.Tags),
		IsActive:       doc.IsActive,
		IsFeatured:     doc.IsFeatured,
		Rating:         doc.Rating,
		NumReviews:     doc.NumReviews,
		CreatedAt:      doc.CreatedAt.UTC(),
		UpdatedAt:      doc.UpdatedAt.UTC(),
	}
}

func cloneFloatPtr(value *float64) *float64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
