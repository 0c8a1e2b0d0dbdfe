package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glowtrip/procedure-recommender/internal/adapters/cache"
	"github.com/glowtrip/procedure-recommender/internal/adapters/database"
	"github.com/glowtrip/procedure-recommender/internal/adapters/search"
	"github.com/glowtrip/procedure-recommender/internal/api/handlers"
	"github.com/glowtrip/procedure-recommender/internal/api/middleware"
	"github.com/glowtrip/procedure-recommender/internal/api/routes"
	"github.com/glowtrip/procedure-recommender/internal/application/services"
	"github.com/glowtrip/procedure-recommender/internal/domain/providers"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/postgres"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/redis"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/typesense"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
	"github.com/glowtrip/procedure-recommender/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is optional; the engine runs fine without an exporter.
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Redis is optional; without it the resolver cache stays in-process.
	var remoteCache providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Redis client, continuing without shared cache")
	} else {
		defer redisClient.Close()
		remoteCache = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis client initialized")
	}

	memoryCache, err := cache.NewMemoryAdapter(cfg.Engine.CacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize memory cache")
	}
	resolverCache := cache.NewTieredAdapter(memoryCache, remoteCache)

	var searchRepo repositories.ProcedureSearchRepository
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Typesense client")
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			searchRepo = adapter
			logger.Info().Msg("Typesense client initialized")
		}
	}

	// Adapters
	procedureAdapter := database.NewProcedureAdapter(pgClient)
	recoveryAdapter := database.NewCategoryRecoveryAdapter(pgClient)
	keywordAdapter := database.NewCategoryKeywordAdapter(pgClient)

	// Services
	aliasService := services.NewCategoryAliasService()
	resolverService := services.NewRecoveryResolverService(
		recoveryAdapter,
		resolverCache,
		metrics,
		cfg.Engine.BaseLanguage,
		cfg.Engine.ResolverTimeout,
	)
	filterService := services.NewItineraryFilterService(cfg.Engine.PreferStayDaysForFit)
	rankingService := services.NewSuitabilityRankingService(cfg.Engine.ReasonablePriceThreshold)
	recommendationService := services.NewRecommendationService(
		procedureAdapter,
		aliasService,
		resolverService,
		filterService,
		rankingService,
		metrics,
		cfg.Engine.ResolverConcurrency,
		cfg.Engine.UnconstrainedTopN,
	)
	keywordService := services.NewKeywordLookupService(keywordAdapter, resolverCache, metrics)

	// Handlers
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService, cfg.Engine.BaseLanguage)
	procedureHandler := handlers.NewProcedureHandler(procedureAdapter, searchRepo, cfg.Engine.BaseLanguage)
	categoryHandler := handlers.NewCategoryHandler(keywordService, cfg.Engine.BaseLanguage)

	var cacheMiddleware *middleware.CacheMiddleware
	if remoteCache != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(remoteCache)
		logger.Info().Msg("response cache middleware initialized")
	}

	router := routes.NewRouter(
		recommendationHandler,
		procedureHandler,
		categoryHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
