package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/wanderoute/trip-route-api/internal/api/route"
)

// Config contains dependencies needed for the router setup
type Config struct {
	RouteHandler   *route.Handler
	AllowedOrigins []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/routes", func(r chi.Router) {
			r.Post("/optimize", cfg.RouteHandler.OptimizeDay)
			r.Get("/distance", cfg.RouteHandler.Distance)
		})
		r.Route("/itineraries", func(r chi.Router) {
			r.Post("/optimize", cfg.RouteHandler.OptimizeItinerary)
			r.Post("/{itineraryID}/optimize", cfg.RouteHandler.OptimizeSavedItinerary)
		})
	})

	return r
}
