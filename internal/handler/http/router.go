// Package http wires the chi router: middleware chain, health and metrics
// endpoints, and the versioned API surface.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tavolo/fulfillment/pkg/health"
	"github.com/tavolo/fulfillment/pkg/middleware"
)

// RouterConfig carries the handlers and cross-cutting settings for the router.
type RouterConfig struct {
	Orders    *OrderHandler
	Inventory *InventoryHandler
	Analytics *AnalyticsHandler
	Health    *health.Handler
	Logger    *slog.Logger

	ServiceName    string
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter builds the HTTP router with the full middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
	}

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", cfg.Orders.Create)
			r.Get("/", cfg.Orders.List)
			r.Get("/{id}", cfg.Orders.Get)
			r.Post("/{id}/status", cfg.Orders.AdvanceStatus)
			r.Post("/{id}/cancel", cfg.Orders.Cancel)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/low-stock", cfg.Inventory.ListLowStock)
			r.Get("/{id}", cfg.Inventory.Get)
			r.Post("/{id}/adjust", cfg.Inventory.Adjust)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/forecast/{productId}", cfg.Analytics.Forecast)
			r.Get("/reorder-point/{itemId}", cfg.Analytics.ReorderPoint)
			r.Get("/abc", cfg.Analytics.ABC)
		})
	})

	return r
}
