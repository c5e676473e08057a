package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/glowmart/api/internal/platform/config"
	"github.com/glowmart/api/internal/repositories"
	"github.com/glowmart/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Categories services.CategoryService
	Products   services.ProductService
	Catalog    services.CatalogQueryService
	Audit      services.AuditLogService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerOption customises optional collaborators before assembly.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	events services.SlugEventPublisher
	logger *zap.Logger
	clock  func() time.Time
	idGen  func() string
}

// WithSlugEventPublisher wires the slug change event publisher.
func WithSlugEventPublisher(events services.SlugEventPublisher) ContainerOption {
	return func(o *containerOptions) {
		o.events = events
	}
}

// WithLogger injects the base logger used by the services.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock injects a deterministic clock, primarily for tests.
func WithClock(clock func() time.Time) ContainerOption {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// the Firestore-backed registry; tests can supply in-memory ones.
func NewContainer(_ context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{
		logger: zap.NewNop(),
		clock:  time.Now,
		idGen:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	svc, err := buildServices(reg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources held by the repository layer.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, options containerOptions) (Services, error) {
	var svc Services

	audit, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      options.clock,
		Logger:     zapAuditLogger{logger: options.logger.Named("audit")},
		IDGen:      options.idGen,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = audit

	products, err := services.NewProductService(services.ProductServiceDeps{
		Products:   reg.Products(),
		Categories: reg.Categories(),
		Audit:      audit,
		Clock:      options.clock,
		IDGen:      options.idGen,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build product service: %w", err)
	}
	svc.Products = products

	categories, err := services.NewCategoryService(services.CategoryServiceDeps{
		Categories: reg.Categories(),
		Products:   reg.Products(),
		Subscriber: products,
		Events:     options.events,
		Audit:      audit,
		Logger:     options.logger.Named("categories"),
		Clock:      options.clock,
		IDGen:      options.idGen,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build category service: %w", err)
	}
	svc.Categories = categories

	catalog, err := services.NewCatalogQueryService(services.CatalogQueryServiceDeps{
		Categories: categories,
		Products:   products,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog query service: %w", err)
	}
	svc.Catalog = catalog

	return svc, nil
}

type zapAuditLogger struct {
	logger *zap.Logger
}

func (l zapAuditLogger) Warnf(format string, args ...any) {
	l.logger.Sugar().Warnf(format, args...)
}
