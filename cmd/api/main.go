package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/optimed-health/backend/internal/adapters/cache"
	"github.com/optimed-health/backend/internal/adapters/database"
	"github.com/optimed-health/backend/internal/adapters/events"
	"github.com/optimed-health/backend/internal/adapters/providers/estimation"
	"github.com/optimed-health/backend/internal/adapters/providers/triage"
	"github.com/optimed-health/backend/internal/adapters/search"
	"github.com/optimed-health/backend/internal/api/handlers"
	"github.com/optimed-health/backend/internal/api/middleware"
	"github.com/optimed-health/backend/internal/api/routes"
	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/providers"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/clients/openai"
	"github.com/optimed-health/backend/internal/infrastructure/clients/postgres"
	"github.com/optimed-health/backend/internal/infrastructure/clients/redis"
	"github.com/optimed-health/backend/internal/infrastructure/clients/typesense"
	"github.com/optimed-health/backend/internal/infrastructure/observability"
	"github.com/optimed-health/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis client; the application works without it, losing caching and
	// real-time streams
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Typesense client for fuzzy hospital search
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Typesense client, search degrades to exact matches")
		typesenseClient = nil
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
	}

	// Adapters
	queueAdapter := database.NewQueueAdapter(pgClient)
	baseHospitalAdapter := database.NewHospitalAdapter(pgClient)

	var hospitalAdapter repositories.HospitalRepository = baseHospitalAdapter
	if cacheProvider != nil {
		hospitalAdapter = database.NewCachedHospitalAdapter(baseHospitalAdapter, cacheProvider)
	}

	var searchRepo repositories.HospitalSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = adapter
	}

	// Wait estimation with optional display jitter
	estimator := estimation.NewJitteredEstimator(
		estimation.NewBaselineEstimator(cfg.Queue.DefaultWaitMinutes),
		cfg.Queue.WaitJitterMinutes,
	)

	// Triage completion provider; the mock keeps local development working
	// without an API key
	var triageProvider providers.TriageProvider
	if cfg.OpenAI.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; using mock triage provider")
		triageProvider = triage.NewMockTriageProvider()
	} else {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize OpenAI client; using mock triage provider")
			triageProvider = triage.NewMockTriageProvider()
		} else {
			triageProvider = client
		}
	}

	// Services
	queueService := services.NewQueueService(
		queueAdapter,
		hospitalAdapter,
		searchRepo,
		estimator,
		eventBus,
		metrics,
		cfg.Queue,
	)
	hospitalService := services.NewHospitalService(hospitalAdapter, searchRepo, eventBus)
	triageService := services.NewTriageService(triageProvider, services.NewAssessmentExtractor(), metrics)
	countdownService := services.NewCountdownService(queueAdapter, time.Minute, cfg.Queue)

	notificationService := services.NewNotificationService(
		sqlx.NewDb(pgClient.DB(), "postgres"),
		services.LogSMSSender{},
	)
	queueService.SetNotifier(notificationService)

	if cacheProvider != nil && eventBus != nil {
		invalidationService := services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
		} else {
			defer invalidationService.Stop()
		}
	}

	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(hospitalAdapter, cacheProvider)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	// Handlers
	hospitalHandler := handlers.NewHospitalHandler(hospitalService)
	queueHandler := handlers.NewQueueHandler(queueService, countdownService)
	triageHandler := handlers.NewTriageHandler(triageService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus, countdownService)
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	router := routes.NewRouter(
		hospitalHandler,
		queueHandler,
		triageHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout: SSE streams stay open for the life of the client
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
