// Package api provides the HTTP API for flightscope.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/api/handler"
	"github.com/flightscope/flightscope/internal/api/middleware"
	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/geo"
	"github.com/flightscope/flightscope/internal/provider/resilience"
)

// FlightService is everything the API needs from the search service.
// *flights.Service satisfies it.
type FlightService interface {
	handler.FlightService
	handler.AirportService
}

// RateLimits holds the per-IP request budgets.
type RateLimits struct {
	// Standard applies to every /v1 route. Zero disables it.
	Standard middleware.RateLimitConfig
	// Search applies to routes that call the flight search endpoint. Zero disables it.
	Search middleware.RateLimitConfig
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Service     FlightService
	Table       *geo.Table
	Registry    *resilience.Registry
	Locales     handler.LocaleLister
	RateLimits  RateLimits
	RequireTLS  bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "flightscope-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewNotFound(middleware.GetRequestID(r.Context()), "no route matches "+r.URL.Path)
		problem.Instance = r.URL.Path
		problem.Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewProblem(models.ProblemTypeNotFound, "Method not allowed", http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context())).
			WithDetail(r.Method + " is not supported on " + r.URL.Path).
			WithInstance(r.URL.Path)
		problem.Write(w)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Table, cfg.Registry)
	airportHandler := handler.NewAirportHandler(cfg.Service, cfg.Logger)
	flightHandler := handler.NewFlightHandler(cfg.Service, cfg.Table, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler(cfg.Locales, cfg.Logger)

	searchRateLimit := middleware.RateLimitByIP(cfg.RateLimits.Search)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(cfg.RateLimits.Standard))
			r.Use(middleware.RequireJSON)

			r.Get("/metadata/sort-options", metadataHandler.SortOptions)
			r.Get("/metadata/locales", metadataHandler.Locales)

			r.Get("/airports:search", airportHandler.Search)
			r.Get("/airports:nearby", airportHandler.Nearby)

			// Upstream flight calls are the expensive ones and get their own budget.
			r.With(searchRateLimit).Post("/flights:search", flightHandler.Search)
			r.With(searchRateLimit).Post("/itineraries:details", flightHandler.Details)

			r.Post("/itineraries:view", flightHandler.View)
			r.Post("/itineraries:geometry", flightHandler.Geometry)
		})
	})

	return r
}
