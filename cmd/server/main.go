package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ajharbinger/refibot/internal/api"
	"github.com/ajharbinger/refibot/internal/assistant"
	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/database"
	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/health"
	"github.com/ajharbinger/refibot/internal/identity"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/middleware"
	"github.com/ajharbinger/refibot/internal/quotes"
	"github.com/ajharbinger/refibot/internal/repository"
	"github.com/ajharbinger/refibot/internal/services"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/pkg/config"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	checks := map[string]api.CheckFunc{}

	// Database is needed for local accounts or documents
	var repos *repository.Repositories
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
		repos = repository.NewRepositories(db.DB)
		checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sessions
	var sessions session.Store
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		redisStore := session.NewRedisStore(rdb, cfg.SessionTTL)
		if err := redisStore.Ping(ctx); err != nil {
			appLogger.Fatal("Failed to connect to redis", err, "addr", cfg.RedisAddress)
		}
		checks["redis"] = redisStore.Ping
		sessions = redisStore
	} else {
		memoryStore := session.NewMemoryStore(cfg.SessionTTL)
		go sweepSessions(ctx, memoryStore, appLogger)
		sessions = memoryStore
		appLogger.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	// Account and document backends
	var provider identity.Provider
	if cfg.UsesHostedIdentity() {
		provider = identity.NewHostedProvider(cfg.IdentityEndpoint, cfg.IdentityAPIKey, cfg.UpstreamTimeout)
	} else {
		provider = identity.NewLocalProvider(repos)
	}

	var documents docstore.Store
	if cfg.UsesHostedDocuments() {
		documents = docstore.NewHostedStore(cfg.DocumentStoreURL, cfg.DocumentStoreAPIKey, cfg.UpstreamTimeout)
	} else {
		documents = docstore.NewPostgresStore(repos.Documents)
	}

	assistantClient := assistant.NewClient(assistant.Config{
		APIKey:   cfg.AssistantAPIKey,
		Name:     cfg.AssistantName,
		Endpoint: cfg.AssistantEndpoint,
		Model:    cfg.AssistantModel,
		Timeout:  cfg.UpstreamTimeout,
	})
	if !assistantClient.Configured() {
		appLogger.Warn("assistant credentials not set, chat will answer with the apology message")
	}

	quoteClient, err := quotes.NewClient(cfg.QuotesEndpoint, cfg.UpstreamTimeout)
	if err != nil {
		appLogger.Fatal("Failed to create quote client", err)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	svc := services.NewServices(services.Dependencies{
		Identity:  provider,
		Documents: documents,
		Sessions:  sessions,
		Assistant: assistantClient,
		Quotes:    quoteClient,
		JWT:       jwtService,
		Logger:    appLogger,
		Health:    health.NewRegistry(),
		Config:    cfg,
	})

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		appLogger.Fatal("Invalid trusted proxies", err)
	}

	r.Use(middleware.LoggingMiddleware(appLogger.With("component", "http")))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)))
	}
	r.Use(gin.Recovery())

	api.SetupRoutes(r, api.RouterDeps{
		Services: svc,
		JWT:      jwtService,
		Sessions: sessions,
		Config:   cfg,
		Logger:   appLogger,
		Checks:   checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", err)
		os.Exit(1)
	}
}

func sweepSessions(ctx context.Context, store *session.MemoryStore, log logger.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
