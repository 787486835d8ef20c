package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/cache"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/database"
	"github.com/zatekoja/ai-event-scanner/backend/internal/adapters/events"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/handlers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/routes"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/perplexity"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableLogExport(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer store.Close()

	// Redis is optional; without it caching is in-process and no bus runs
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without it")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			bus := events.NewRedisEventBus(redisClient)
			defer bus.Close()
			eventBus = bus
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache and event bus initialized")
		}
	}

	// Initialize adapters
	var eventRepo repositories.EventRepository = database.NewEventAdapter(store)
	if cacheProvider != nil {
		eventRepo = database.NewCachedEventAdapter(eventRepo, cacheProvider, cfg.Discovery.MonthCacheTTL)
	}
	sessionRepo := database.NewSessionAdapter(store)
	watchRepo := database.NewWatchAdapter(store)
	discoveryLogs := database.NewDiscoveryLogAdapter(store)
	usageLogs := database.NewUsageLogAdapter(store)

	searcher, err := perplexity.NewClient(&cfg.Perplexity, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event search client")
	}

	// Initialize services
	discoveryService := services.NewDiscoveryService(searcher, eventRepo, discoveryLogs).
		WithMetrics(metrics).
		WithDefaultPlatform(entities.Platform(cfg.Discovery.DefaultPlatform))
	if eventBus != nil {
		discoveryService.WithEventBus(eventBus)
	}
	eventService := services.NewEventService(eventRepo, watchRepo).
		WithMinRelevanceScore(cfg.Discovery.MinRelevanceScore)
	sessionService := services.NewSessionService(sessionRepo, watchRepo)

	if deleted, err := sessionService.CleanupExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to clean up expired sessions")
	} else {
		log.Info().Int64("deleted", deleted).Msg("Expired sessions cleaned up")
	}

	sweeper := services.NewSessionSweeper(sessionService, cfg.Session.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cacheProvider != nil && eventBus != nil {
		invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus, database.MonthCachePattern)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
		} else {
			defer invalidation.Stop()
		}
	}

	// Initialize handlers
	cookies := handlers.NewSessionCookies(cfg.Session)
	eventHandler := handlers.NewEventHandler(eventService, discoveryService, sessionService, cookies)
	userHandler := handlers.NewUserHandler(sessionService, cookies)
	healthHandler := handlers.NewHealthHandler(cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion)

	router := routes.NewRouter(eventHandler, userHandler, healthHandler, usageLogs, metrics, cfg)

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	cancel()

	log.Info().Msg("Server stopped")
}
