package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/isndotbiz/spiritatlas/cmd/mainconfig"
	"github.com/isndotbiz/spiritatlas/internal/api/router"
	appconfig "github.com/isndotbiz/spiritatlas/internal/config"
	"github.com/isndotbiz/spiritatlas/internal/conversation"
	"github.com/isndotbiz/spiritatlas/internal/credentials"
	"github.com/isndotbiz/spiritatlas/internal/enrichment"
	"github.com/isndotbiz/spiritatlas/internal/http/handlers"
	obsmetrics "github.com/isndotbiz/spiritatlas/internal/observability/metrics"
	"github.com/isndotbiz/spiritatlas/internal/usage"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

func main() {
	// Load .env if present (no-op in production)
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting spiritatlas API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider_mode", cfg.ProviderMode,
	)

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	enrichmentMetrics := enrichment.NewMetrics(registry)
	usageMetrics := usage.NewMetrics(registry)
	httpMetrics := obsmetrics.NewHTTPMetrics(registry)

	// Redis (conversation store)
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	// Postgres (optional durable conversation store)
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			logger.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
	}

	// Conversation persistence: Postgres when configured, Redis otherwise.
	var store conversation.Store
	if db != nil {
		store = conversation.NewPostgresStore(db)
		logger.Info("conversation store", "backend", "postgres")
	} else {
		store = conversation.NewRedisStore(redisClient, cfg.ConversationTTL)
		logger.Info("conversation store", "backend", "redis", "ttl", cfg.ConversationTTL)
	}
	manager := conversation.NewManager(store, logger)

	// Provider credentials
	creds := credentials.NewMemoryStore().Seed(map[string]string{
		enrichment.ProviderClaude:     cfg.AnthropicAPIKey,
		enrichment.ProviderOpenAI:     cfg.OpenAIAPIKey,
		enrichment.ProviderGemini:     cfg.GeminiAPIKey,
		enrichment.ProviderGroq:       cfg.GroqAPIKey,
		enrichment.ProviderOpenRouter: cfg.OpenRouterAPIKey,
	})

	// Provider registry
	reg := enrichment.NewRegistry()
	reg.Register(enrichment.ProviderClaude, enrichment.NewClaudeProvider(creds, cfg.AnthropicBaseURL, logger))
	reg.Register(enrichment.ProviderOpenAI, enrichment.NewOpenAIProvider(creds, logger))
	reg.Register(enrichment.ProviderGemini, enrichment.NewGeminiProvider(creds, logger))
	reg.Register(enrichment.ProviderGroq, enrichment.NewGroqProvider(creds, logger))
	reg.Register(enrichment.ProviderOpenRouter, enrichment.NewOpenRouterProvider(creds, logger))
	reg.Register(enrichment.ProviderOllama, enrichment.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, logger))

	if cfg.BedrockEnabled || cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		brClient := bedrockruntime.NewFromConfig(awsCfg)
		reg.Register(enrichment.ProviderBedrock, enrichment.NewBedrockProvider(brClient, cfg.BedrockModelID, logger))
	}

	// Usage quotas
	tracker := usage.NewTracker(usage.WithMetrics(usageMetrics))
	tracker.SetLimits(enrichment.ProviderGemini, usage.Limits{PerMinute: cfg.GeminiRPM, PerDay: cfg.GeminiRPD})
	tracker.SetLimits(enrichment.ProviderGroq, usage.Limits{PerMinute: cfg.GroqRPM})

	aiRouter := enrichment.NewRouter(reg, tracker, enrichment.ParseMode(cfg.ProviderMode), logger)
	service := enrichment.NewService(aiRouter, manager, logger,
		enrichment.WithTimeout(cfg.RequestTimeout),
		enrichment.WithMetrics(enrichmentMetrics),
		enrichment.WithKeepRecentTurns(cfg.KeepRecentTurns),
	)

	routerCfg := &router.Config{
		Logger:              logger,
		EnrichmentHandler:   handlers.NewEnrichmentHandler(service, logger),
		ConversationHandler: handlers.NewConversationHandler(manager, service, logger),
		HealthHandler:       handlers.NewHealthHandler(db, redisClient),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HTTPMetrics:         httpMetrics,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
