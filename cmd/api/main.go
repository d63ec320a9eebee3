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

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/adapters/cache"
	"github.com/annuaire-sante/backend/internal/adapters/database"
	"github.com/annuaire-sante/backend/internal/adapters/events"
	"github.com/annuaire-sante/backend/internal/adapters/search"
	"github.com/annuaire-sante/backend/internal/api/handlers"
	"github.com/annuaire-sante/backend/internal/api/middleware"
	"github.com/annuaire-sante/backend/internal/api/routes"
	"github.com/annuaire-sante/backend/internal/application/services"
	"github.com/annuaire-sante/backend/internal/domain/providers"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/redis"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/typesense"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	"github.com/annuaire-sante/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is optional; Prometheus metrics are always served
	var metrics *observability.Metrics
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			if metrics, err = observability.InitMetrics(); err != nil {
				log.Fatal().Err(err).Msg("failed to initialize metrics")
			}
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	healthChecks := map[string]handlers.Pinger{"postgres": pgClient}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			// Continue without Redis: rate limiting falls back to memory
			log.Warn().Err(err).Msg("failed to initialize Redis client")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			healthChecks["redis"] = redisClient
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
		log.Info().Msg("using in-memory event bus")
	}
	defer eventBus.Close()

	structureRepo := database.NewStructureAdapter(pgClient)
	associationRepo := database.NewAssociationAdapter(pgClient)
	catalogRepo := database.NewCatalogAdapter(pgClient)
	evaluationRepo := database.NewEvaluationAdapter(pgClient)
	historyRepo := database.NewSearchHistoryAdapter(pgClient)

	var indexer providers.StructureIndexer
	var indexSync *services.IndexSyncService
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Typesense client, suggestions disabled")
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure Typesense schema")
			}
			indexer = adapter
			indexSync = services.NewIndexSyncService(structureRepo, adapter, eventBus)
			if err := indexSync.Start(); err != nil {
				log.Warn().Err(err).Msg("failed to start index sync")
			} else {
				defer indexSync.Stop()
			}
		}
	}

	loc := cfg.Search.Location()
	historyService := services.NewSearchHistoryService(historyRepo)
	defer historyService.Stop()
	searchService := services.NewSearchService(structureRepo, services.NewFilterPipeline(loc, time.Now), historyService)
	structureService := services.NewStructureService(structureRepo, indexSync, eventBus)
	associationService := services.NewAssociationService(structureRepo, associationRepo, eventBus)
	catalogService := services.NewCatalogService(catalogRepo)
	evaluationService := services.NewEvaluationService(structureRepo, evaluationRepo, eventBus)

	scheduler := services.NewJobScheduler(historyService, indexSync, services.JobSchedulerConfig{
		HistoryRetention: time.Duration(cfg.Jobs.HistoryRetentionDays) * 24 * time.Hour,
		ReindexInterval:  cfg.Jobs.ReindexInterval,
	}, loc)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start job scheduler")
	}
	defer scheduler.Stop()

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	searchLimiter := middleware.NewRateLimiter("search", cfg.Search.RateLimitPerSecond, cfg.Search.RateLimitBurst)
	searchLimiter.Cleanup(time.Minute, stopCleanup)

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, every bearer token will be rejected")
	}

	router := routes.NewRouter(
		routes.Handlers{
			Search:        handlers.NewSearchHandler(searchService, indexer),
			Structure:     handlers.NewStructureHandler(structureService),
			Association:   handlers.NewAssociationHandler(associationService),
			Catalog:       handlers.NewCatalogHandler(catalogService),
			Evaluation:    handlers.NewEvaluationHandler(evaluationService, cacheProvider),
			SearchHistory: handlers.NewSearchHistoryHandler(historyService),
			Health:        handlers.NewHealthHandler(healthChecks),
		},
		middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		searchLimiter,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
