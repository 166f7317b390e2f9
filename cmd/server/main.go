package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contracting_system/api/routes"
	"contracting_system/internal/cache"
	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/jobs"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/observability"
	"contracting_system/internal/router"
	"contracting_system/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, err := config.NewPool(&config.DBConfig{
		DatabaseURL:       cfg.Database.URL,
		Logger:            logger,
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		MaxRetries:        cfg.Database.MaxRetries,
		RetryDelay:        cfg.Database.RetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis backs sessions and the job queue; an in-memory cache keeps
	// single-node deployments working without it.
	var appCache cache.Cache
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Logger:   logger,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		appCache = redisCache
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory cache")
		appCache = cache.NewMemoryCache(nil)
	}

	st := store.New(db)

	sessions := middlewares.NewSessionManager(middlewares.SessionManagerConfig{
		Cache:        appCache,
		Secret:       cfg.Auth.SessionSecret,
		TTL:          cfg.Auth.SessionTTL,
		CookieSecure: cfg.IsProduction(),
		Logger:       logger,
	})

	metrics := observability.NewMetrics(nil)

	mode := "dev"
	if cfg.IsProduction() {
		mode = "prod"
	}
	r := router.NewRouter(&router.RouterConfig{
		Version:     "v1",
		BasePath:    "/api",
		Port:        cfg.Server.Port,
		Mode:        mode,
		TLSCertFile: cfg.TLS.CertFile,
		TLSKeyFile:  cfg.TLS.KeyFile,
	}, logger,
		observability.RequestID(nil),
		middlewares.Logger(&middlewares.LoggerConfig{Logger: logger}),
		middlewares.Recovery(&middlewares.RecoveryConfig{Logger: logger}),
		middlewares.CORS(&middlewares.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}),
		metrics.Middleware(nil),
		middlewares.Pagination(&middlewares.PaginationConfig{
			DefaultPage:     cfg.Pagination.DefaultPage,
			DefaultPageSize: cfg.Pagination.DefaultPageSize,
			MaxPageSize:     cfg.Pagination.MaxPageSize,
		}),
	)

	r.Handle("GET /metrics", observability.MetricsHandler())
	r.Handle("GET /health", observability.HealthHandler(&observability.HealthConfig{
		Logger:       logger,
		DatabasePool: db,
		Cache:        appCache,
	}))
	r.Handle("GET /health/live", observability.LivenessHandler())
	r.Handle("GET /health/ready", observability.ReadinessHandler(db))

	h := handlers.NewHandler(st, appCache, logger, db, sessions, metrics)

	loginLimiter := middlewares.RateLimit(&middlewares.RateLimitConfig{
		Logger:     logger,
		Capacity:   5,
		RefillRate: 0.2,
	})
	routes.SetupRoutes(r, h, loginLimiter)

	// Background jobs need Redis. Without it the drift check and the
	// monthly payroll preparation simply do not run.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runner *jobs.Runner
	var scheduler *jobs.Scheduler
	if redisCache != nil {
		queue, err := jobs.NewRedisQueue(&jobs.RedisQueueConfig{
			Client: redisCache.Client(),
			Prefix: "contracting:jobs:",
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("Failed to create job queue: %v", err)
		}

		registry := jobs.NewRegistry()
		registry.Register(jobs.TypeStockReconcile, jobs.NewStockReconcileHandler(st, metrics, logger))
		registry.Register(jobs.TypePayrollPrepare, jobs.NewPayrollPrepareHandler(st, logger))

		runner = jobs.NewRunner(queue, registry, &jobs.RunnerConfig{
			NumWorkers: 2,
			Logger:     logger,
		})
		runner.Start(ctx)

		scheduler = jobs.NewScheduler(runner, logger)
		if cfg.Jobs.StockReconcileInterval > 0 {
			scheduler.Register("stock-reconcile", jobs.Every(cfg.Jobs.StockReconcileInterval), jobs.TypeStockReconcile, nil)
		}
		scheduler.Register("payroll-prepare", jobs.Monthly(1, 2, 0), jobs.TypePayrollPrepare, jobs.PayrollPreparePayload{})
		scheduler.Start(ctx)
	} else {
		logger.Warn("background jobs disabled, redis not configured")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	if runner != nil {
		runner.Stop()
	}
	if err := r.Shutdown(30 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	config.GracefulShutdown(db, 10*time.Second, logger)
	appCache.Close()

	logger.Info("shutdown complete")
}
