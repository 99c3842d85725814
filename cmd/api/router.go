package main

import (
	"context"
	"fmt"
	"net/http"

	"shopcart-backend/config"
	"shopcart-backend/internal/delivery/http/middleware"
	v1 "shopcart-backend/internal/delivery/http/v1"
	"shopcart-backend/internal/usecase"
	"shopcart-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routerDeps struct {
	catalogUC     *usecase.CatalogUsecase
	cartStore     *usecase.CartStore
	registry      *prometheus.Registry
	catalogSource string
}

// newRouter builds the full handler chain. The rate limiter's sweeper runs
// until ctx is cancelled.
func newRouter(ctx context.Context, cfg *config.Config, deps routerDeps) (http.Handler, error) {
	ips, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	catalogHandler := v1.NewCatalogHandler(deps.catalogUC)
	cartHandler := v1.NewCartHandler(deps.cartStore, deps.catalogUC)
	cartEventsHandler := v1.NewCartEventsHandler(deps.cartStore, cfg.EventsHeartbeat)

	// --- API routes (rate limited, gzipped) ---
	api := http.NewServeMux()

	// Catalog (Public)
	api.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	api.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProductByID)

	// Cart
	api.HandleFunc("GET /api/v1/cart", cartHandler.GetCart)
	api.HandleFunc("GET /api/v1/cart/count", cartHandler.GetCount)
	api.HandleFunc("POST /api/v1/cart", cartHandler.AddToCart)
	api.HandleFunc("DELETE /api/v1/cart/{productId}", cartHandler.RemoveFromCart)
	api.HandleFunc("POST /api/v1/cart/{productId}/increase", cartHandler.IncreaseQuantity)
	api.HandleFunc("POST /api/v1/cart/{productId}/decrease", cartHandler.DecreaseQuantity)

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"catalog":     deps.catalogSource,
			"cartVersion": deps.cartStore.Version(),
		})
	}
	api.HandleFunc("GET /api/v1/health", healthHandler)
	api.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RPS:           cfg.RateLimitRPS,
		Burst:         cfg.RateLimitBurst,
		CleanupPeriod: cfg.RateLimitCleanup,
		ClientTTL:     cfg.RateLimitClientTTL,
	}, ips)
	apiHandler := gziphandler.GzipHandler(rateLimiter.Middleware()(api))

	// --- Root mux ---
	// The event stream is long-lived: gzip would buffer it and the limiter would count it forever.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cart/events", cartEventsHandler.Stream)
	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{Registry: deps.registry}))
	mux.Handle("/", apiHandler)

	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.NewRequestLogger(ips)(handler)
	return handler, nil
}
