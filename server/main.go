package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticketcore/api/routes"
	"ticketcore/internal/app"
	"ticketcore/internal/notifications"
	"ticketcore/internal/orders"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/database"
	"ticketcore/internal/shared/database/memory"
	"ticketcore/pkg/cache"
	"ticketcore/pkg/lock"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	appLogger = logger.NewWithWriter(os.Stdout, cfg.LogLevel)
	logger.SetDefault(appLogger)

	appLogger.Info("Starting settlement service",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("commit", GitCommit),
	)

	// Initialize stores
	repos, redisClient, health, closeStores, err := openStores(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open stores", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStores()

	// Kafka settlement events
	infra := app.Infra{Publisher: newPublisher(cfg, appLogger)}
	defer infra.Publisher.Close()

	var rateLimiter *ratelimit.RateLimiter
	if redisClient != nil {
		infra.Cache = cache.NewService(redisClient, func(ctx context.Context, op string, err error) {
			appLogger.WarnContext(ctx, "Cache operation failed", "op", op, "error", err.Error())
		})
		infra.Locker = lock.NewRedisLock(redisClient)

		// Initialize Rate Limiter
		if cfg.RateLimit.Enabled {
			rateLimiter = ratelimit.NewRateLimiter(redisClient, rateLimitConfig(cfg.RateLimit))
			appLogger.Info("Rate limiter initialized",
				slog.Duration("window", cfg.RateLimit.WindowDuration),
				slog.Int("checkout_requests", cfg.RateLimit.CheckoutRequests),
			)
		}
	} else {
		appLogger.Info("Redis disabled: no availability cache, completion lock or rate limiting")
	}

	// Wire services and background jobs
	services := app.NewServices(cfg, repos, infra, appLogger)

	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()
	jobs := orders.NewJobProcessor(services.Orders, cfg.Orders.SweepInterval, appLogger)
	jobs.Start(jobCtx)
	defer jobs.Stop()

	router := setupRouter(cfg, services, health, rateLimiter, appLogger)

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_base", cfg.GetAPIBasePath()),
			slog.Bool("memory_store", cfg.UsesMemoryStore()),
			slog.Bool("redis", redisClient != nil),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

// openStores picks Postgres or the in-memory store and connects Redis when enabled
func openStores(cfg *config.Config, log *logger.Logger) (app.Repositories, *redis.Client, routes.HealthCheck, func(), error) {
	if cfg.UsesMemoryStore() {
		if cfg.IsProduction() {
			return app.Repositories{}, nil, nil, nil, fmt.Errorf("DB_DRIVER=memory serialises all transactions and is not allowed in release mode")
		}
		log.Warn("Using the in-memory store; state is lost on restart and transactions run one at a time")
		var rdb *redis.Client
		if cfg.Redis.Enabled {
			var err error
			if rdb, err = database.InitRedis(cfg, log); err != nil {
				return app.Repositories{}, nil, nil, nil, err
			}
		}
		closeFn := func() {
			if rdb != nil {
				_ = rdb.Close()
			}
		}
		return app.MemoryRepositories(memory.NewStore()), rdb, nil, closeFn, nil
	}

	db, err := database.InitDB(cfg, log)
	if err != nil {
		return app.Repositories{}, nil, nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connections", slog.Any("error", err))
		}
	}
	return app.PostgresRepositories(db.PostgreSQL), db.Redis, db.HealthCheck, closeFn, nil
}

func newPublisher(cfg *config.Config, log *logger.Logger) notifications.Publisher {
	if !cfg.Kafka.Enabled {
		return notifications.NopPublisher{}
	}
	publisher, err := notifications.NewKafkaPublisher(notifications.ProducerConfigFrom(cfg.Kafka), log)
	if err != nil {
		log.Error("Failed to initialize Kafka publisher, settlement events will not be published", slog.Any("error", err))
		return notifications.NopPublisher{}
	}
	log.Info("Kafka publisher initialized", slog.String("topic", cfg.Kafka.Topic))
	return publisher
}

// rateLimitConfig maps env config onto the limiter's per-class budgets
func rateLimitConfig(cfg config.RateLimitConfig) *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:            cfg.Enabled,
		WindowDuration:     cfg.WindowDuration,
		DefaultRequests:    cfg.DefaultRequests,
		PublicRequests:     cfg.PublicRequests,
		CheckoutRequests:   cfg.CheckoutRequests,
		OrganizerRequests:  cfg.OrganizerRequests,
		SettlementRequests: cfg.SettlementRequests,
		HealthRequests:     cfg.HealthRequests,
		WhitelistedIPs:     cfg.WhitelistedIPs,
	}
}

func setupRouter(cfg *config.Config, services *app.Services, health routes.HealthCheck, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	// Request logging and panic recovery
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Payment-Secret"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
	}

	// Setup routes
	routes.NewRouter(cfg, services, health).SetupRoutes(engine)
	return engine
}

// RequestLoggerMiddleware logs every request after the handler chain ran
func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.LogHTTPRequest(c, time.Since(start))
	}
}
