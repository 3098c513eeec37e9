package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llmgate/llmgate/internal/gateway/cache"
	"github.com/llmgate/llmgate/internal/gateway/handlers"
	"github.com/llmgate/llmgate/internal/gateway/providers"
	"github.com/llmgate/llmgate/internal/gateway/proxy"
	"github.com/llmgate/llmgate/internal/shared/config"
	"github.com/llmgate/llmgate/internal/shared/database"
	"github.com/llmgate/llmgate/internal/shared/logger"
	"github.com/llmgate/llmgate/internal/shared/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("").Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.Env)
	log.Infof("Starting LLM gateway on port %s (env: %s)", cfg.Port, cfg.Env)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("connected to PostgreSQL")

	// Initialize Redis-backed key cache (optional)
	var keyCache *cache.KeyCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		keyCache = cache.New(redisClient, time.Duration(cfg.KeyCacheTTLSeconds)*time.Second)
		log.Info("connected to Redis, virtual key cache enabled")
	} else {
		log.Info("REDIS_URL not set, virtual key cache disabled")
	}

	// Initialize proxy engine
	engine := proxy.New(proxy.Options{
		Credentials: db,
		Usage:       db,
		Resolver:    providers.NewPathResolver(cfg.DefaultProvider),
		Pricing: proxy.Pricing{
			Default: proxy.Rates{
				PromptPer1K:     cfg.PricePromptPer1K,
				CompletionPer1K: cfg.PriceCompletionPer1K,
			},
		},
		Timeout: time.Duration(cfg.UpstreamTimeout) * time.Second,
		Logger:  log,
	})

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(db, keyCache, log)
	middleware := handlers.NewMiddleware(db, keyCache, cfg.AdminAPIKey, log)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware)

	// Health check and metrics (no auth required)
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Proxy path: any method under /v1 goes upstream
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Handle("/*", engine)
	})

	// Admin surface
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminMiddleware)

		r.Post("/virtual-keys", adminHandler.CreateVirtualKey)
		r.Get("/virtual-keys", adminHandler.ListVirtualKeys)
		r.Delete("/virtual-keys/{id}", adminHandler.RevokeVirtualKey)
		r.Put("/provider-keys/{provider}", adminHandler.UpsertProviderKey)
		r.Get("/provider-keys", adminHandler.ListProviderKeys)
		r.Get("/usage-stats", adminHandler.UsageStats)
	})

	// HTTP server. Write timeout leaves headroom over the upstream timeout
	// so slow providers surface as 502s, not dropped connections.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: time.Duration(cfg.UpstreamTimeout+10) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down gracefully...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}

	log.Info("server stopped")
}
