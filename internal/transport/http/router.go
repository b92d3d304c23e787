// Package http assembles the daemon's HTTP surface: the conversion job
// API, health endpoints, Prometheus metrics, and the progress WebSocket.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"whizzcli/internal/config"
	"whizzcli/internal/infrastructure"
	appmiddleware "whizzcli/internal/middleware"
	"whizzcli/internal/validation"
	"whizzcli/internal/websocket"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Providers *infrastructure.OTelProviders
	Hub       *websocket.Hub
	Service   *ConversionService
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(appmiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.StructuredLogger(logger))
	r.Use(appmiddleware.Recoverer(logger))

	if deps.Config.Security.RateLimit.Enabled {
		limiter := appmiddleware.NewRateLimiter(
			deps.Config.Security.RateLimit.RPS,
			deps.Config.Security.RateLimit.Burst,
			logger)
		r.Use(limiter.Handler)
	}

	validator := validation.NewRequestValidator(logger)
	conversions := NewConversionHandler(deps.Service, validator, logger)
	health := NewHealthHandler(logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/conversions", conversions.Routes())
		r.Get("/health", health.HealthCheck)
		r.Get("/health/live", health.LivenessCheck)
	})

	if deps.Providers != nil && deps.Providers.PrometheusHTTP != nil {
		r.Handle("/metrics", deps.Providers.PrometheusHTTP)
	}

	if deps.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(deps.Hub, deps.Config.WebSocket, logger, w, req)
		})
	}

	return r
}
