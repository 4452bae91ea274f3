package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labelstack/hub/internal/api/handlers"
	"github.com/labelstack/hub/internal/api/middleware"
	"github.com/labelstack/hub/internal/config"
	"github.com/labelstack/hub/internal/models"
	"github.com/labelstack/hub/internal/observability"
	"github.com/labelstack/hub/internal/repository"
	"github.com/labelstack/hub/internal/search"
	"github.com/labelstack/hub/internal/service"
	"github.com/labelstack/hub/pkg/cache"
	"github.com/labelstack/hub/pkg/database"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg           *config.Config
	db            *pgxpool.Pool
	server        *http.Server
	meterProvider observability.MeterProviderShutdown
	logger        *slog.Logger
}

// NewApp builds and wires all components. It does not start the HTTP server;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, logger *slog.Logger) (*App, error) {
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	datasetsRepo := repository.NewDatasetsRepository(db)
	recordsRepo := repository.NewRecordsRepository(db)
	suggestionsRepo := repository.NewSuggestionsRepository(db)
	responsesRepo := repository.NewResponsesRepository(db)
	vectorsRepo := repository.NewVectorsRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	datasetCache, err := cache.NewLoaderCache[uuid.UUID, *models.Dataset](
		cfg.DatasetCacheSize, uuid.UUID.String)
	if err != nil {
		return nil, fmt.Errorf("create dataset cache: %w", err)
	}

	var (
		cacheMetrics  observability.CacheMetrics
		ingestMetrics observability.IngestMetrics
		apiMetrics    observability.APIMetrics
	)

	if metrics != nil {
		cacheMetrics = metrics.Cache
		ingestMetrics = metrics.Ingest
		apiMetrics = metrics.API
	}

	cachedDatasets := service.NewCachingDatasetsRepository(datasetsRepo, datasetCache, cacheMetrics)

	var engine search.Engine
	if cfg.SearchURL != "" {
		engine = search.NewHTTPEngine(cfg.SearchURL, cfg.SearchAPIKey)
		logger.Info("search indexing enabled", "url", cfg.SearchURL)
	} else {
		engine = search.NoopEngine{}
		logger.Warn("search indexing disabled (SEARCH_URL empty)")
	}

	uow := database.NewPoolUnitOfWork(db)

	bulkService := service.NewRecordsBulkService(
		uow, cachedDatasets, recordsRepo, suggestionsRepo, responsesRepo,
		vectorsRepo, usersRepo, engine, ingestMetrics, logger)
	recordsService := service.NewRecordsService(
		uow, cachedDatasets, recordsRepo, suggestionsRepo, responsesRepo,
		usersRepo, engine, logger)
	datasetsService := service.NewDatasetsService(cachedDatasets, logger)

	bulkHandler := handlers.NewRecordsBulkHandler(bulkService)
	recordsHandler := handlers.NewRecordsHandler(recordsService)
	responsesHandler := handlers.NewResponsesHandler(recordsService)
	suggestionsHandler := handlers.NewSuggestionsHandler(recordsService)
	questionsHandler := handlers.NewQuestionsHandler(datasetsService)
	healthHandler := handlers.NewHealthHandler(db)

	router := chi.NewRouter()
	router.Use(middleware.Metrics(apiMetrics))
	router.Use(middleware.RequestID)
	router.Use(middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics))

	router.Get("/healthz", healthHandler.Live)
	router.Get("/readyz", healthHandler.Ready)
	router.Method(http.MethodGet, "/metrics", metricsHandler)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.APIKey))
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

		r.Get("/v1/datasets/{dataset_id}", questionsHandler.Get)
		r.Post("/v1/datasets/{dataset_id}/questions", questionsHandler.Create)
		r.Delete("/v1/datasets/{dataset_id}/questions/{question_id}", questionsHandler.Delete)

		r.Get("/v1/datasets/{dataset_id}/records", recordsHandler.List)
		r.Post("/v1/datasets/{dataset_id}/records/bulk", bulkHandler.Create)
		r.Put("/v1/datasets/{dataset_id}/records/bulk", bulkHandler.Upsert)
		r.Patch("/v1/datasets/{dataset_id}/records", bulkHandler.Update)

		r.Post("/v1/datasets/{dataset_id}/records/{record_id}/responses", responsesHandler.Create)
		r.Put("/v1/datasets/{dataset_id}/records/{record_id}/suggestions", suggestionsHandler.Upsert)
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &App{
		cfg:           cfg,
		db:            db,
		server:        server,
		meterProvider: meterProvider,
		logger:        logger,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails. Shutdown drains in-flight requests up to shutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.meterProvider != nil {
		if err := a.meterProvider.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Meter provider shutdown failed", "error", err)
		}
	}

	return nil
}
