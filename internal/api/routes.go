package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saviobatista/eco-flight/pkg/logger"
)

// Router is the API router
type Router struct {
	handler        *Handler
	middleware     *Middleware
	allowedOrigins []string
}

// NewRouter creates a new API router
func NewRouter(estimator Estimator, allowedOrigins []string, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	return &Router{
		handler:        NewHandler(estimator, log),
		middleware:     NewMiddleware(log),
		allowedOrigins: allowedOrigins,
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.allowedOrigins))

	router.Get("/", r.handler.Root)

	router.Route("/api/v1", func(router chi.Router) {
		router.Post("/search", r.handler.Search)
		router.Get("/distance", r.handler.Distance)

		router.Get("/aircraft/{code}/factor", r.handler.Factor)
		router.Get("/aircraft/{code}/detailed", r.handler.Detailed)

		router.Get("/health", r.handler.GetHealth)
		router.Get("/stats", r.handler.GetStats)
	})

	return router
}
