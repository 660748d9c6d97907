package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/orderbridge/backend/internal/application/sync"
	"github.com/orderbridge/backend/internal/domain/sync"
	"github.com/orderbridge/backend/internal/infrastructure/cache"
	"github.com/orderbridge/backend/internal/infrastructure/config"
	"github.com/orderbridge/backend/internal/infrastructure/logger"
	"github.com/orderbridge/backend/internal/infrastructure/persistence"
	"github.com/orderbridge/backend/internal/infrastructure/platform"
	"github.com/orderbridge/backend/internal/infrastructure/ratelimit"
	"github.com/orderbridge/backend/internal/infrastructure/scheduler"
	"github.com/orderbridge/backend/internal/interfaces/http/handler"
	"github.com/orderbridge/backend/internal/interfaces/http/middleware"
	"github.com/orderbridge/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OrderBridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Mapping repository with a Redis read-through cache; falls back to an
	// in-process cache when Redis is unreachable
	var mappingCache sync.MappingCache
	redisMappingCache, err := cache.NewRedisMappingCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cache.WithMappingCacheLogger(log))
	if err != nil {
		log.Warn("Redis unavailable, using in-memory mapping cache", zap.Error(err))
		mappingCache = cache.NewInMemoryMappingCache(cache.WithInMemoryMappingLogger(log))
	} else {
		mappingCache = redisMappingCache
	}

	mappingRepo := persistence.NewCachedEntityMappingRepository(
		persistence.NewGormEntityMappingRepository(db.DB),
		mappingCache,
		sync.DefaultMappingCacheConfig().TTL,
		log,
	)
	taskRepo := persistence.NewGormSyncTaskRepository(db.DB)

	// Webhook dedup store, Redis-backed with the same fallback
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Platform adapters
	supplyHub, err := platform.NewSupplyHubAdapter(&platform.SupplyHubConfig{
		APIKey:        cfg.Platforms.SupplyHub.APIKey,
		APISecret:     cfg.Platforms.SupplyHub.APISecret,
		WebhookSecret: cfg.Platforms.SupplyHub.WebhookSecret,
		BaseURL:       cfg.Platforms.SupplyHub.BaseURL,
		Timeout:       cfg.Platforms.SupplyHub.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create SupplyHub adapter", zap.Error(err))
	}
	posify, err := platform.NewPosifyAdapter(&platform.PosifyConfig{
		AccessToken:   cfg.Platforms.Posify.APIKey,
		WebhookSecret: cfg.Platforms.Posify.WebhookSecret,
		BaseURL:       cfg.Platforms.Posify.BaseURL,
		Timeout:       cfg.Platforms.Posify.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create Posify adapter", zap.Error(err))
	}
	adapters := platform.NewRegistry(supplyHub, posify)

	// Outbound rate limiting and retry discipline
	limiter := ratelimit.NewPlatformLimiter(map[sync.PlatformCode]ratelimit.LimitConfig{
		sync.PlatformSupplyHub: {
			RequestsPerSecond: cfg.Platforms.SupplyHub.RequestsPerSecond,
			Burst:             cfg.Platforms.SupplyHub.Burst,
		},
		sync.PlatformPosify: {
			RequestsPerSecond: cfg.Platforms.Posify.RequestsPerSecond,
			Burst:             cfg.Platforms.Posify.Burst,
		},
	})
	retryPolicy := ratelimit.DefaultRetryPolicy()
	if cfg.Sync.RetryMaxAttempts > 0 {
		retryPolicy.MaxAttempts = cfg.Sync.RetryMaxAttempts
	}
	if cfg.Sync.RetryBaseDelay > 0 {
		retryPolicy.BaseDelay = cfg.Sync.RetryBaseDelay
	}
	if cfg.Sync.RetryMaxDelay > 0 {
		retryPolicy.MaxDelay = cfg.Sync.RetryMaxDelay
	}
	retrier := ratelimit.NewRetrier(limiter, retryPolicy, log)

	// Application services
	orchestratorConfig := appsync.DefaultOrchestratorConfig()
	if cfg.Sync.PageSize > 0 {
		orchestratorConfig.PageSize = cfg.Sync.PageSize
	}
	if cfg.Sync.Workers > 0 {
		orchestratorConfig.Workers = cfg.Sync.Workers
	}
	if cfg.Sync.FailureThreshold > 0 {
		orchestratorConfig.FailureThreshold = cfg.Sync.FailureThreshold
	}
	if cfg.Sync.TieBreak == "B" {
		orchestratorConfig.Strategy.TieBreak = sync.SideB
	}

	tracker := appsync.NewProgressTracker(taskRepo, log)
	orchestrator := appsync.NewOrchestrator(adapters, mappingRepo, taskRepo, tracker, retrier, orchestratorConfig, log)
	inventoryService := appsync.NewInventoryService(adapters, mappingRepo, retrier, log)
	webhookService := appsync.NewWebhookService(adapters, idempotencyStore, orchestrator, inventoryService, cfg.Webhook.DedupTTL, log)

	// Periodic sync scheduler
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, inventoryService, taskRepo, scheduler.Config{
		Enabled:           cfg.Scheduler.Enabled,
		OrderSchedule:     cfg.Scheduler.OrderCronSchedule,
		InventorySchedule: cfg.Scheduler.InventoryCron,
		RecoveryOnStart:   cfg.Scheduler.RecoveryOnStart,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}, log)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.Secure())
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.HTTP.RateLimitEnabled {
		rps := float64(cfg.HTTP.RateLimitRequests)
		if cfg.HTTP.RateLimitWindow > 0 {
			rps = float64(cfg.HTTP.RateLimitRequests) / cfg.HTTP.RateLimitWindow.Seconds()
		}
		engine.Use(middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             cfg.HTTP.RateLimitRequests,
		}).Middleware())
	}

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(cfg.App.Name, cfg.App.Env, db, log)).
		Register(handler.NewSyncHandler(orchestrator, log)).
		Register(handler.NewInventoryHandler(inventoryService, log)).
		Register(handler.NewWebhookHandler(webhookService, log)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := syncScheduler.Stop(ctx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
