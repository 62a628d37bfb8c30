package main

import (
	"context"
	"net/http"
	"os"

	"github.com/clearcart/pricing-engine/api/routes"
	"github.com/clearcart/pricing-engine/internal/quotes"
	"github.com/clearcart/pricing-engine/internal/rules"
	"github.com/clearcart/pricing-engine/pkg/config"
	"github.com/clearcart/pricing-engine/pkg/db"
	"github.com/clearcart/pricing-engine/pkg/db/models"
	"github.com/clearcart/pricing-engine/pkg/logger"
	"github.com/clearcart/pricing-engine/pkg/metrics"
	"github.com/clearcart/pricing-engine/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pricing-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pricing-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate && cfg.App.IsDev() {
		if err := dbClient.DB().AutoMigrate(&models.PricingRule{}); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	quoteMetrics := metrics.NewQuoteMetrics(registry)

	rulesService, err := rules.NewService(rules.ServiceParams{
		Repo:     rules.NewRepository(dbClient.DB()),
		Cache:    redisClient,
		CacheTTL: cfg.Rules.CacheTTL,
		Metrics:  quoteMetrics,
		Logg:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rules service", err)
		os.Exit(1)
	}

	quotesService, err := quotes.NewService(rulesService, quoteMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create quotes service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting pricing api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, rulesService, quotesService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "pricing api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
