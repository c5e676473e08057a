package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/glowmart/api/internal/di"
	"github.com/glowmart/api/internal/handlers"
	"github.com/glowmart/api/internal/platform/auth"
	"github.com/glowmart/api/internal/platform/config"
	pfirestore "github.com/glowmart/api/internal/platform/firestore"
	"github.com/glowmart/api/internal/platform/jobs"
	"github.com/glowmart/api/internal/platform/observability"
	"github.com/glowmart/api/internal/platform/secrets"
	platformstorage "github.com/glowmart/api/internal/platform/storage"
	firestoreRepo "github.com/glowmart/api/internal/repositories/firestore"
	"github.com/glowmart/api/internal/services"
)

const shutdownTimeout = 20 * time.Second

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx, config.WithSecretResolver(lazySecretResolver(logger)))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := firestoreRepo.NewRegistry(provider)
	if err != nil {
		logger.Fatal("failed to build repository registry", zap.Error(err))
	}

	var events services.SlugEventPublisher
	if cfg.PubSub.ProjectID != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to create pubsub client", zap.Error(err))
		}
		defer func() {
			_ = psClient.Close()
		}()

		topic := psClient.Topic(cfg.PubSub.SlugEventTopic)
		defer topic.Stop()

		publisher, err := jobs.NewPubSubSlugEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to build slug event publisher", zap.Error(err))
		}
		events = publisher
		logger.Info("slug change events enabled", zap.String("topic", cfg.PubSub.SlugEventTopic))
	} else {
		logger.Warn("pubsub project not configured, slug change events disabled")
	}

	containerOpts := []di.ContainerOption{di.WithLogger(logger)}
	if events != nil {
		containerOpts = append(containerOpts, di.WithSlugEventPublisher(events))
	}
	container, err := di.NewContainer(ctx, cfg, registry, containerOpts...)
	if err != nil {
		logger.Fatal("failed to assemble services", zap.Error(err))
	}

	var authn *auth.Authenticator
	if cfg.Firebase.ProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
		if err != nil {
			logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
		}
		authn = auth.NewAuthenticator(verifier)
	} else {
		logger.Warn("firebase project not configured, admin endpoints reject all requests")
	}

	uploadIssuer := buildUploadIssuer(cfg, logger)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthRepository(registry.Health()),
		)),
		handlers.WithCatalogRoutes(func(r chi.Router) {
			handlers.NewCategoryHandlers(container.Services.Categories).Routes(r)
			handlers.NewProductHandlers(container.Services.Products).Routes(r)
			handlers.NewCatalogHandlers(container.Services.Catalog).Routes(r)
		}),
		handlers.WithAdminRoutes(func(r chi.Router) {
			handlers.NewAdminCatalogHandlers(authn, container.Services.Categories, container.Services.Products, container.Services.Audit).Routes(r)
			handlers.NewAssetHandlers(authn, uploadIssuer).Routes(r)
		}),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.Security.Environment))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	if err := container.Close(stopCtx); err != nil {
		logger.Error("closing repositories failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// lazySecretResolver builds the Secret Manager fetcher only when the
// configuration actually references a secret.
func lazySecretResolver(logger *zap.Logger) config.SecretResolverFunc {
	return func(ctx context.Context, name string) (string, error) {
		projectID := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
		fetcher, err := secrets.NewFetcher(ctx, projectID, secrets.WithLogger(logger))
		if err != nil {
			return "", err
		}
		defer func() {
			_ = fetcher.Close()
		}()
		return fetcher.Resolve(ctx, name)
	}
}

func buildUploadIssuer(cfg config.Config, logger *zap.Logger) *platformstorage.UploadURLIssuer {
	if cfg.Storage.ImagesBucket == "" || cfg.Storage.SignerEmail == "" || cfg.Storage.SignerKeySecretRef == "" {
		logger.Warn("storage signer not configured, image uploads disabled")
		return nil
	}
	signer, err := platformstorage.NewServiceAccountSigner(cfg.Storage.SignerEmail, []byte(cfg.Storage.SignerKeySecretRef))
	if err != nil {
		logger.Fatal("failed to build storage signer", zap.Error(err))
	}
	issuer, err := platformstorage.NewUploadURLIssuer(cfg.Storage.ImagesBucket, signer, platformstorage.WithTTL(cfg.Storage.SignedURLTTL))
	if err != nil {
		logger.Fatal("failed to build upload issuer", zap.Error(err))
	}
	return issuer
}
