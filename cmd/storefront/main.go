package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-catalog/api/controllers"
	"github.com/angelmondragon/storefront-catalog/api/middleware"
	"github.com/angelmondragon/storefront-catalog/api/routes"
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/views"
	"github.com/angelmondragon/storefront-catalog/pkg/config"
	"github.com/angelmondragon/storefront-catalog/pkg/env"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
	"github.com/angelmondragon/storefront-catalog/pkg/money"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
	"github.com/angelmondragon/storefront-catalog/pkg/pubsub"
	"github.com/angelmondragon/storefront-catalog/pkg/redis"
)

const (
	serviceName     = "storefront"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messages := i18n.For(cfg.Storefront.Locale)
	formatter, err := money.NewFormatter(cfg.Storefront.Locale, cfg.Storefront.Currency)
	if err != nil {
		logg.Error(ctx, "failed to build money formatter", err)
		os.Exit(1)
	}

	var closers []func() error
	pingers := map[string]controllers.Pinger{}

	var rateLimiter middleware.RateLimitStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		pingers["redis"] = redisClient
		rateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, add-to-cart rate limit disabled")
	}

	local := notify.NewMemoryBus()
	var bus notify.Bus = local
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		psBus, err := notify.NewPubSubBus(psClient.CartPublisher(), logg)
		if err != nil {
			logg.Error(ctx, "failed to build cart notification bus", err)
			os.Exit(1)
		}
		closers = append(closers, func() error {
			psBus.Stop()
			return psClient.Close()
		})
		pingers["pubsub"] = psClient
		bus = notify.Multi(local, psBus)
	}

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)
	upstream := storeapi.NewClient(cfg.Upstream.BaseURL, &http.Client{Timeout: cfg.Upstream.Timeout})

	registry := views.NewRegistry(views.RegistryParams{
		Builder: views.Builder{
			Upstream:      upstream,
			Bus:           bus,
			Messages:      messages,
			Money:         formatter,
			Logger:        logg,
			Metrics:       storefrontMetrics,
			ListingPath:   cfg.Storefront.ListingPath,
			FallbackImage: cfg.Storefront.FallbackImage,
			FeedbackDelay: cfg.Storefront.FeedbackDelay,
		},
		Logger:        logg,
		Metrics:       storefrontMetrics,
		IdleTTL:       cfg.Views.IdleTTL,
		SweepInterval: cfg.Views.SweepInterval,
	})
	go func() {
		if err := registry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "view sweeper stopped unexpectedly", err)
		}
	}()

	addr := ":" + env.First(cfg.App.Port, "PORT")
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.First("local", "DYNO", "K_REVISION"),
		"upstream": cfg.Upstream.BaseURL,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Registry:    registry,
			RateLimiter: rateLimiter,
			Pingers:     pingers,
			Gatherer:    prometheus.DefaultGatherer,
			Events:      local,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "storefront server shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := server.Shutdown(shutdownCtx)
	errs = multierr.Append(errs, registry.Shutdown())
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i]())
	}
	if errs != nil {
		for _, err := range multierr.Errors(errs) {
			logg.Error(shutdownCtx, "shutdown step failed", err)
		}
		exitCode = 1
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
