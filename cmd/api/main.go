package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/handlers"
	"github.com/deimos91-cmyk/felpe-scuola/internal/manifest"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/auth"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/config"
	pfirestore "github.com/deimos91-cmyk/felpe-scuola/internal/platform/firestore"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/observability"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/session"
	firestoreRepo "github.com/deimos91-cmyk/felpe-scuola/internal/repositories/firestore"
	"github.com/deimos91-cmyk/felpe-scuola/internal/services"
)

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

	logger := baseLogger.Named("felpe")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	assetManifest, err := manifest.Load(cfg.Catalog.ManifestPath)
	if err != nil {
		logger.Fatal("failed to load asset manifest", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}

	passwords, err := auth.NewPasswordClient(cfg.Firebase.WebAPIKey)
	if err != nil {
		logger.Fatal("failed to initialise password client", zap.Error(err))
	}

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      []byte(cfg.Session.HashKey),
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.Secure,
		Lifetime:     cfg.Session.TTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise session manager", zap.Error(err))
	}

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider, cfg.Firestore.OrdersCollection)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: domain.Products(),
		Manifest: assetManifest,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: orderRepo,
		Catalog:    catalogService,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	templates, err := handlers.NewTemplates()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	pageHandlers := handlers.NewPageHandlers(templates, catalogService, orderService, sessions)
	adminHandlers := handlers.NewAdminHandlers(orderService, sessions, passwords, verifier)

	health := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck(orderRepo.Ping),
	)

	router := handlers.NewRouter(
		handlers.WithHealthHandlers(health),
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithPages(pageHandlers.Routes),
		handlers.WithAdminAPI(adminHandlers.Routes),
		handlers.WithProductAssets(cfg.Catalog.AssetsDir),
	)

	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
		// WriteTimeout stays unset. The admin order stream holds its
		// response open indefinitely; per-route deadlines come from the
		// router's timeout middleware instead.
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("felpe-scuola listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
