package routes

import (
	"net/http"

	"github.com/glowtrip/procedure-recommender/internal/api/handlers"
	"github.com/glowtrip/procedure-recommender/internal/api/middleware"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler
	procedureHandler      *handlers.ProcedureHandler
	categoryHandler       *handlers.CategoryHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	recommendationHandler *handlers.RecommendationHandler,
	procedureHandler *handlers.ProcedureHandler,
	categoryHandler *handlers.CategoryHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		recommendationHandler: recommendationHandler,
		procedureHandler:      procedureHandler,
		categoryHandler:       categoryHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Recommendation endpoint
	r.mux.HandleFunc("GET /api/recommendations", r.recommendationHandler.GetRecommendations)

	// Catalog endpoints
	r.mux.HandleFunc("GET /api/procedures", r.procedureHandler.ListProcedures)
	r.mux.HandleFunc("GET /api/procedures/search", r.procedureHandler.SearchProcedures)
	r.mux.HandleFunc("GET /api/procedures/{id}", r.procedureHandler.GetProcedure)

	// Taxonomy endpoints
	r.mux.HandleFunc("GET /api/categories/lookup", r.categoryHandler.LookupCategory)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
