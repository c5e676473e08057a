package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/glowmart/api/internal/platform/firestore"
	"github.com/glowmart/api/internal/repositories"
)

const (
	categoriesCollection = "categories"
	productsCollection   = "products"
	auditLogsCollection  = "auditLogs"
)

// Registry wires the Firestore-backed repositories behind the repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	categories *CategoryRepository
	products   *ProductRepository
	auditLogs  *AuditLogRepository
	health     repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the repository registry on top of a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("repository registry: firestore provider is required")
	}

	categories, err := NewCategoryRepository(provider)
	if err != nil {
		return nil, err
	}
	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}

	health, err := repositories.NewProbeHealthRepository([]repositories.DependencyProbe{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := categories.base.Count(ctx, nil)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:   provider,
		categories: categories,
		products:   products,
		auditLogs:  auditLogs,
		health:     health,
	}, nil
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Categories returns the category repository.
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }

// Products returns the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// AuditLogs returns the audit log repository.
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.auditLogs }

// Health returns the dependency health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }
