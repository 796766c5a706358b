package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roofline-ai/roofline-backend/api/routes"
	"github.com/roofline-ai/roofline-backend/internal/chat"
	"github.com/roofline-ai/roofline-backend/internal/entitlements"
	"github.com/roofline-ai/roofline-backend/internal/subscriptions"
	"github.com/roofline-ai/roofline-backend/internal/usage"
	stripewebhook "github.com/roofline-ai/roofline-backend/internal/webhooks/stripe"
	"github.com/roofline-ai/roofline-backend/pkg/config"
	"github.com/roofline-ai/roofline-backend/pkg/db"
	"github.com/roofline-ai/roofline-backend/pkg/logger"
	"github.com/roofline-ai/roofline-backend/pkg/metrics"
	"github.com/roofline-ai/roofline-backend/pkg/migrate"
	"github.com/roofline-ai/roofline-backend/pkg/redis"
	pkgstripe "github.com/roofline-ai/roofline-backend/pkg/stripe"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookGuardTTL = 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
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
	usageMetrics := metrics.NewUsageMetrics(registry)

	subsRepo := subscriptions.NewRepository(dbClient.DB())
	usageRepo := usage.NewRepository(dbClient.DB())

	resolver := subscriptions.NewResolver(subscriptions.ResolverParams{
		Repo:   subsRepo,
		Cache:  redisClient,
		Config: cfg.Entitlements,
		Logger: logg,
	})

	engine, err := entitlements.NewService(entitlements.ServiceParams{
		Resolver:  resolver,
		UsageRepo: usageRepo,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlement engine", err)
		os.Exit(1)
	}

	tracker := usage.NewTracker(cfg.Tracker, usageRepo, logg, usageMetrics)

	chatService, err := chat.NewService(chat.ServiceParams{
		Entitlements: engine,
		Opener:       chat.NewRegistry(cfg.Providers),
		Tracker:      tracker,
		Metrics:      usageMetrics,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat gateway", err)
		os.Exit(1)
	}

	var (
		stripeClient   *pkgstripe.Client
		webhookService *stripewebhook.Service
		webhookGuard   *stripewebhook.IdempotencyGuard
	)
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		webhookService, err = stripewebhook.NewService(stripewebhook.ServiceParams{
			SubsRepo:          subsRepo,
			StripeClient:      subscriptions.NewStripeClient(stripeClient),
			StripeConfig:      cfg.Stripe,
			TransactionRunner: dbClient,
			Invalidator:       resolver,
			Logger:            logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		webhookGuard, err = stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe")
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, webhook ingestion disabled")
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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, registry,
			chatService, engine, resolver, tracker,
			stripeClient, webhookService, webhookGuard,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "server shutdown failed", err)
	}
	// drain pending usage increments before the database goes away
	if err := tracker.Close(shutdownCtx); err != nil {
		logg.Error(ctx, "usage tracker drain failed", err)
	}
	logg.Info(ctx, "api server stopped")
}
