package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	syncapp "github.com/chansync/backend/internal/application/sync"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/infrastructure/cache"
	"github.com/chansync/backend/internal/infrastructure/channelhttp"
	"github.com/chansync/backend/internal/infrastructure/config"
	"github.com/chansync/backend/internal/infrastructure/logger"
	"github.com/chansync/backend/internal/infrastructure/persistence"
	"github.com/chansync/backend/internal/infrastructure/scheduler"
	"github.com/chansync/backend/internal/infrastructure/telemetry"
	"github.com/chansync/backend/internal/interfaces/http/handler"
	"github.com/chansync/backend/internal/interfaces/http/middleware"
	"github.com/chansync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ChanSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DefaultDBTracingConfig(), log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	batchRepo := persistence.NewGormBatchRequestRepository(db.DB)
	ledgerRepo := persistence.NewGormIntegrationActionRepository(db.DB)
	reportRepo := persistence.NewGormErrorReportRepository(db.DB)
	productStore := persistence.NewGormCatalogStore(db.DB)
	priceStore := persistence.NewGormPriceStore(db.DB)
	stockStore := persistence.NewGormStockStore(db.DB)
	imageStore := persistence.NewGormImageStore(db.DB)
	orderStore := persistence.NewGormOrderStore(db.DB)

	// Channel configuration cache: Redis when configured, in-process otherwise
	var confProvider channel.ConfProvider
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		confProvider = cache.NewRedisChannelConfCache(redisClient, channelRepo, cfg.Redis.ConfTTL,
			cache.WithConfCacheLogger(log))
		log.Info("Channel configuration cache backed by Redis",
			zap.String("addr", cfg.Redis.Addr()))
	} else {
		confProvider = cache.NewInMemoryChannelConfCache(channelRepo, cfg.Redis.ConfTTL)
		log.Info("Channel configuration cache is in-process")
	}

	// Initialize sync services
	registry := syncapp.NewDefaultRegistry(productStore, priceStore, stockStore, imageStore, orderStore, confProvider)
	lifecycle := syncapp.NewLifecycleController(batchRepo, log)
	engine := syncapp.NewEngine(registry, ledgerRepo, lifecycle, reportRepo, log)
	adapter := channelhttp.NewAdapter(cfg.Sync.ChannelTimeout, log)
	orchestrator := syncapp.NewOrchestrator(lifecycle, engine, registry, ledgerRepo, adapter,
		productStore, priceStore, stockStore, log)

	// Start the periodic sync loop
	syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Enabled:      true,
		Interval:     cfg.Sync.PollInterval,
		SubmitLimit:  cfg.Sync.SubmitLimit,
		CycleTimeout: 5 * time.Minute,
	}, channelRepo, batchRepo, orchestrator, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpEngine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := httpEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request id, recovery, tracing, request logging,
	// CORS, body limit, then authentication. Tracing runs before the
	// request logger so log lines carry the trace id.
	httpEngine.Use(middleware.RequestID())
	httpEngine.Use(logger.Recovery(log))
	httpEngine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	httpEngine.Use(logger.GinMiddleware(log))
	httpEngine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	httpEngine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	httpEngine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes require the static key when one is configured
	r := router.NewRouter(httpEngine,
		router.WithAPIVersion("v1"),
		router.WithGroupMiddleware(middleware.APIKeyAuth(cfg.Auth.APIKey)),
	)
	r.Register(handler.NewBatchHandler(lifecycle, engine, orchestrator, batchRepo, channelRepo))
	r.Register(handler.NewErrorReportHandler(reportRepo))
	r.Register(handler.NewChannelHandler(channelRepo))
	r.Register(handler.NewSystemHandler(db.Ping))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
