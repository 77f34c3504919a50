package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	collectionapp "github.com/coltrade/backend/internal/application/collection"
	"github.com/coltrade/backend/internal/application/compras"
	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/application/identity"
	"github.com/coltrade/backend/internal/application/merge"
	"github.com/coltrade/backend/internal/application/orders"
	reconciliationapp "github.com/coltrade/backend/internal/application/reconciliation"
	serialapp "github.com/coltrade/backend/internal/application/serial"
	"github.com/coltrade/backend/internal/infrastructure/auth"
	"github.com/coltrade/backend/internal/infrastructure/cache"
	"github.com/coltrade/backend/internal/infrastructure/config"
	"github.com/coltrade/backend/internal/infrastructure/jsonstore"
	"github.com/coltrade/backend/internal/infrastructure/logger"
	"github.com/coltrade/backend/internal/infrastructure/odoo"
	"github.com/coltrade/backend/internal/infrastructure/storage"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
	"github.com/coltrade/backend/internal/interfaces/http/handler"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
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

	log.Info("Starting dashboard backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("data_dir", cfg.Data.Dir),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	store, err := jsonstore.New(jsonstore.Config{Dir: cfg.Data.Dir, Logger: log})
	if err != nil {
		log.Fatal("Failed to open data directory", zap.Error(err))
	}

	// Redis backs the import cooldown and the token blocklist when enabled
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	cooldown, err := cache.NewCooldownFactory(cfg.Import,
		cache.WithRedisClient(redisClient),
		cache.WithLogger(log),
	).CreateGate()
	if err != nil {
		log.Fatal("Failed to create import cooldown", zap.Error(err))
	}

	var blocklist auth.TokenBlocklist = auth.NewInMemoryTokenBlocklist()
	if redisClient != nil {
		blocklist = auth.NewRedisTokenBlocklist(redisClient)
	}

	archive, err := storage.NewExportArchive(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize export archive", zap.Error(err))
	}
	exports := export.NewPublisher(archive, log)

	// Orders stay unavailable until Odoo credentials are configured
	var lineSource orders.LineSource
	odooClient, err := odoo.NewClient(cfg.Odoo, log)
	switch {
	case err == nil:
		lineSource = odooClient
		defer func() {
			_ = odooClient.Close()
		}()
	case errors.Is(err, odoo.ErrNotConfigured):
		log.Info("Odoo not configured, order listing disabled")
	default:
		log.Error("Failed to initialize Odoo client", zap.Error(err))
	}

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identity.NewAuthService(
		auth.NewUserDirectory(store, cfg.Data.LoginFile), jwtService, blocklist, log)
	collectionService := collectionapp.NewService(store, cooldown, exports,
		collectionapp.ServiceConfig{ImportCooldown: cfg.Import.Cooldown}, log)
	reportService := reconciliationapp.NewService(store, exports,
		reconciliationapp.ServiceConfig{IncludeUncatalogued: cfg.Forecast.IncludeUncatalogued}, log)
	comprasService := compras.NewService(store, exports, log)
	mergeService := merge.NewService(exports, log)
	serialService := serialapp.NewService(exports, log)
	ordersService := orders.NewService(lineSource, cfg.Odoo.Year, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Cookie)
	forecastHandler := handler.NewForecastHandler(reportService)
	comprasHandler := handler.NewComprasHandler(comprasService)
	toolsHandler := handler.NewToolsHandler(mergeService, serialService)
	ordersHandler := handler.NewOrdersHandler(ordersService)
	systemHandler := handler.NewSystemHandler(store, cooldown)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, recovery, access log, tracing, security
	// headers, CORS, body limit, rate limit.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(ctx, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Every group below needs a valid session cookie
	jwtConfig := middleware.DefaultJWTConfig(jwtService, blocklist)
	jwtConfig.Logger = log
	protected := router.NewDomainGroup("protected", "").
		Use(middleware.JWTAuthMiddleware(jwtConfig), middleware.TracingAttributeInjector())
	protected.Add(forecastHandler.Routes()...)

	api := router.NewDomainGroup("api", "/api").
		Add(authHandler.Routes(), comprasHandler.Routes(), ordersHandler.Routes()).
		Add(toolsHandler.Routes()...)
	for _, h := range handler.NewCollectionHandlers(collectionService) {
		api.Add(h.Routes())
	}
	protected.Add(api)

	router.NewRouter(engine).
		Register(systemHandler.Routes(), authHandler.PublicRoutes(), protected).
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
