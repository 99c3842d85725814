package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcart-backend/config"
	"shopcart-backend/internal/infrastructure/cache"
	"shopcart-backend/internal/usecase"
	"shopcart-backend/pkg/logger"
	"shopcart-backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const serviceName = "shopcart-api"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Cancelled on shutdown: stops the rate limiter sweeper and open event streams.
	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Catalog
	productRepo, catalogSource, closeCatalog, err := openCatalog(appCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog")
	}
	defer closeCatalog()

	memCache := cache.NewMemoryCache(cfg.CacheProductTTL, cfg.CacheCleanupInterval)
	catalogUC := usecase.NewCatalogUsecase(productRepo, memCache, cfg.CacheProductTTL)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Cart
	cartStore := usecase.NewCartStore(logger.Named("cart"), metrics.NewCartMetrics(registry))

	handler, err := newRouter(appCtx, cfg, routerDeps{
		catalogUC:     catalogUC,
		cartStore:     cartStore,
		registry:      registry,
		catalogSource: catalogSource,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return appCtx },
	}
	srv.RegisterOnShutdown(stop)

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, catalogSource, cfg.Port)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	sig := waitForShutdown(sigs, func() {
		catalogUC.InvalidateCache()
		log.Info().Str("catalog", catalogSource).Msg("Catalog cache flushed")
	})

	log.Info().Stringer("signal", sig).Msg("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop(serviceName)
}
