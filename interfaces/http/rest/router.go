package rest

import (
	"net/http"

	"causaldiscovery/infrastructure/config"
	"causaldiscovery/infrastructure/observability"
	"causaldiscovery/interfaces/http/rest/handlers"
	"causaldiscovery/interfaces/http/rest/middleware"
	"causaldiscovery/pkg/common"
	"causaldiscovery/pkg/errors"
	"causaldiscovery/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	discovery handlers.Discoverer
	collector *observability.Collector
	limiter   ratelimit.Limiter
	cfg       *config.Config
	logger    *zap.Logger
}

// NewRouter creates a new router instance. collector may be nil, which
// disables /metrics.
func NewRouter(
	discovery handlers.Discoverer,
	collector *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		discovery: discovery,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
	}
}

// WithRateLimiter throttles the /api/v1 routes per client address
func (rt *Router) WithRateLimiter(limiter ratelimit.Limiter) *Router {
	rt.limiter = limiter
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errHandler := errors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil && rt.cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(rt.collector))
	}

	if rt.cfg.Server.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil && rt.cfg.Metrics.Enabled {
		router.Handle(rt.cfg.Metrics.Path, promhttp.HandlerFor(rt.collector.GetRegistry(), promhttp.HandlerOpts{}))
	}

	discoveryHandler := handlers.NewDiscoveryHandler(rt.discovery, errHandler, rt.logger)
	router.Route("/api/v1", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(middleware.RateLimit(rt.limiter, errHandler, rt.logger))
		}
		r.Post("/causal_discovery", discoveryHandler.Discover)
		r.Get("/grounding", discoveryHandler.Ground)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports whether the live path source answers. The service
// still serves cached and precomputed paths when it does not.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.discovery.Ready(req.Context()) {
		common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready", "path_source": "up"})
		return
	}
	common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "path_source": "down"})
}
