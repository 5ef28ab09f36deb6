package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	currencyapp "github.com/ebms/backend/internal/application/currency"
	financeapp "github.com/ebms/backend/internal/application/finance"
	"github.com/ebms/backend/internal/domain/shared"
	"github.com/ebms/backend/internal/infrastructure/auth"
	"github.com/ebms/backend/internal/infrastructure/cache"
	"github.com/ebms/backend/internal/infrastructure/config"
	"github.com/ebms/backend/internal/infrastructure/logger"
	"github.com/ebms/backend/internal/infrastructure/persistence"
	"github.com/ebms/backend/internal/interfaces/http/handler"
	"github.com/ebms/backend/internal/interfaces/http/middleware"
	"github.com/ebms/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
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

	log.Info("Starting BMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Initialize cache and token blacklist. When Redis is enabled a single
	// client is shared between the rate cache and the blacklist.
	var rateCache shared.Cache
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		rateCache = cache.NewRedisCacheWithClient(redisClient, "cache:")
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
		log.Info("Redis connected successfully",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		rateCache = cache.NewMemoryCache()
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
		log.Info("Redis disabled, using in-memory cache")
	}

	// Initialize repositories
	currencyRepo := persistence.NewGormCurrencyRepository(db.DB)
	rateRepo := persistence.NewGormExchangeRateRepository(db.DB)
	conversionRepo := persistence.NewGormConversionRecordRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	bucketRepo := persistence.NewGormAgingBucketRepository(db.DB)

	// Auth service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize application services
	currencyService := currencyapp.NewCurrencyService(
		currencyRepo, rateRepo, conversionRepo, rateCache, log,
		currencyapp.WithRateCacheTTL(cfg.Cache.RateTTL),
	)
	invoiceService := financeapp.NewInvoiceService(invoiceRepo, log)
	agingService := financeapp.NewAgingReportService(invoiceRepo, bucketRepo, log)

	// Initialize HTTP handlers
	currencyHandler := handler.NewCurrencyHandler(currencyService)
	financeHandler := handler.NewFinanceHandler(invoiceService, agingService)
	systemHandler := handler.NewSystemHandler()

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
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication and tenant resolution to API routes
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = tokenBlacklist
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths, "/api/v1/system", "/api/v1/ping")
	tenantConfig.Logger = log
	r.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Currency domain (currencies, exchange rates, conversion)
	currencyRoutes := router.NewDomainGroup("currency", "/currency")
	currencyRoutes.POST("/currencies", currencyHandler.CreateCurrency)
	currencyRoutes.GET("/currencies", currencyHandler.ListCurrencies)
	currencyRoutes.GET("/currencies/base", currencyHandler.GetBaseCurrency)
	currencyRoutes.GET("/currencies/:code", currencyHandler.GetCurrency)
	currencyRoutes.POST("/currencies/:code/set-base", currencyHandler.SetBaseCurrency)
	currencyRoutes.POST("/currencies/:code/deactivate", currencyHandler.DeactivateCurrency)
	currencyRoutes.POST("/rates", currencyHandler.CreateExchangeRate)
	currencyRoutes.GET("/rates", currencyHandler.ListExchangeRates)
	currencyRoutes.GET("/rates/lookup", currencyHandler.LookupRate)
	currencyRoutes.POST("/convert", currencyHandler.ConvertAmount)
	currencyRoutes.GET("/conversions", currencyHandler.ListConversionRecords)
	currencyRoutes.GET("/format", currencyHandler.FormatAmount)

	// Finance domain (invoices, payments, aging reports)
	financeRoutes := router.NewDomainGroup("finance", "/finance")
	financeRoutes.POST("/invoices", financeHandler.CreateInvoice)
	financeRoutes.GET("/invoices", financeHandler.ListInvoices)
	financeRoutes.GET("/invoices/summary", financeHandler.GetSummary)
	financeRoutes.GET("/invoices/:id", financeHandler.GetInvoice)
	financeRoutes.POST("/invoices/:id/payments", financeHandler.ApplyPayment)
	financeRoutes.POST("/aging/buckets", financeHandler.ConfigureBuckets)
	financeRoutes.GET("/aging/buckets", financeHandler.ListBuckets)
	financeRoutes.GET("/aging/report", financeHandler.GetAgingReport)

	// System routes (public)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(currencyRoutes).
		Register(financeRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
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
