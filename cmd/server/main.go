package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/application/settlement"
	"github.com/storefront/backend/internal/application/tracking"
	"github.com/storefront/backend/internal/infrastructure/archive"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/supplier"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

//	@title			Storefront Backend API
//	@version		1.0
//	@description	Commission settlement and fulfillment retry backend for the storefront

//	@contact.name	API Support
//	@contact.url	https://github.com/storefront/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/

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

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// Initialize OpenTelemetry metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown meter provider", zap.Error(err))
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
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Register database tracing when enabled
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Register database metrics collection when telemetry is enabled
	if meterProvider.IsEnabled() {
		dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
		}
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			defer dbMetrics.Stop()
		}
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	queueRepo := persistence.NewGormFulfillmentQueueRepository(db.DB)

	// Supplier fulfillment client
	invoker, err := supplier.NewHTTPInvoker(&supplier.Config{
		BaseURL:        cfg.Supplier.BaseURL,
		APIKey:         cfg.Supplier.APIKey,
		TimeoutSeconds: cfg.Supplier.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize supplier client", zap.Error(err))
	}

	// Customer notification client, falls back to log-only delivery
	// when no service URL is configured
	var dispatcher tracking.Dispatcher
	httpDispatcher, err := notification.NewHTTPDispatcher(&notification.Config{
		BaseURL:        cfg.Notification.BaseURL,
		APIKey:         cfg.Notification.APIKey,
		TimeoutSeconds: cfg.Notification.TimeoutSeconds,
	}, log)
	switch {
	case err == nil:
		dispatcher = httpDispatcher
	case err == notification.ErrNotConfigured:
		log.Warn("Notification service not configured, using logging dispatcher")
		dispatcher = notification.NewLoggingDispatcher(log)
	default:
		log.Fatal("Failed to initialize notification client", zap.Error(err))
	}

	// Initialize application services
	retryService := appfulfillment.NewRetryService(
		queueRepo,
		invoker,
		cfg.Settlement.AttemptCeiling,
		cfg.Settlement.RetryBaseDelay,
		log,
	)
	sweepService := settlement.NewService(
		commissionRepo,
		retryService,
		cfg.Settlement.HoldPeriod,
		log,
	)
	trackingService := tracking.NewService(orderRepo, queueRepo, dispatcher, log)

	// Optional S3 archival of sweep summaries
	if cfg.Archive.Enabled {
		archiver, err := archive.NewS3Archiver(&cfg.Archive)
		if err != nil {
			log.Fatal("Failed to initialize sweep archiver", zap.Error(err))
		}
		sweepService.SetArchiver(archiver)
		log.Info("Sweep archival enabled",
			zap.String("bucket", cfg.Archive.Bucket),
			zap.String("prefix", cfg.Archive.KeyPrefix),
		)
	}

	// Settlement metrics
	if meterProvider.IsEnabled() {
		settlementMetrics, err := telemetry.NewSettlementMetrics(telemetry.SettlementMetricsConfig{
			Meter:  meterProvider.Meter("settlement"),
			Logger: log,
		})
		if err != nil {
			log.Warn("Failed to initialize settlement metrics", zap.Error(err))
		} else {
			sweepService.SetMetrics(settlementMetrics)
			trackingService.SetMetrics(settlementMetrics)
		}
	}

	// Idempotency store for tracking update deduplication.
	// Falls back to an in-memory store when Redis is unreachable.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	settlementHandler := handler.NewSettlementHandler(sweepService, retryService, log)
	trackingHandler := handler.NewTrackingHandler(trackingService, idempotencyStore, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Tracing and HTTP metrics when telemetry is enabled
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("http"), true))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Cron and webhook endpoints, called by the platform scheduler and
	// carrier gateways without API versioning
	engine.POST("/tracking-update", trackingHandler.HandleTrackingUpdate)
	engine.POST("/affiliate-approve-cron", settlementHandler.RunAffiliateApproval)
	engine.POST("/fulfillment-retry-cron", settlementHandler.RunFulfillmentRetries)

	// Versioned API surface
	systemHandler := handler.NewSystemHandler()
	api := engine.Group("/api/v1")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	api.GET("/system/info", systemHandler.GetSystemInfo)
	api.GET("/system/ping", systemHandler.Ping)

	// Background sweep scheduler, runs approval and retry passes without
	// depending on the external cron caller
	if cfg.Scheduler.Enabled {
		sweepScheduler := scheduler.NewSweepScheduler(sweepService, log, scheduler.SweepSchedulerConfig{
			Enabled:       true,
			SweepInterval: cfg.Scheduler.SweepInterval,
			SweepTimeout:  cfg.Scheduler.SweepTimeout,
			RunOnStart:    cfg.Scheduler.RunOnStart,
			InitialDelay:  cfg.Scheduler.InitialDelay,
		})
		if err := sweepScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.SweepTimeout)
			defer cancel()
			if err := sweepScheduler.Stop(stopCtx); err != nil {
				log.Warn("Sweep scheduler stop timed out", zap.Error(err))
			}
		}()
		log.Info("Sweep scheduler started",
			zap.Duration("interval", cfg.Scheduler.SweepInterval),
			zap.Bool("run_on_start", cfg.Scheduler.RunOnStart),
		)
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
