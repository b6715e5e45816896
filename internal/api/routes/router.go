package routes

import (
	"net/http"

	"github.com/virtuefdn/medbridge/backend/internal/api/handlers"
	"github.com/virtuefdn/medbridge/backend/internal/api/middleware"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	queryHandler *handlers.QueryHandler

	catalogHandler *handlers.CatalogHandler

	planningHandler *handlers.PlanningHandler

	statusHandler *handlers.StatusHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	queryHandler *handlers.QueryHandler,

	catalogHandler *handlers.CatalogHandler,

	planningHandler *handlers.PlanningHandler,

	statusHandler *handlers.StatusHandler,

	cacheMiddleware *middleware.CacheMiddleware,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		queryHandler: queryHandler,

		catalogHandler: catalogHandler,

		planningHandler: planningHandler,

		statusHandler: statusHandler,

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

	// Query endpoint

	r.mux.HandleFunc("POST /api/query", r.queryHandler.HandleQuery)

	// Catalog endpoints

	r.mux.HandleFunc("GET /api/facilities", r.catalogHandler.ListFacilities)

	r.mux.HandleFunc("GET /api/stats", r.catalogHandler.GetStats)

	r.mux.HandleFunc("GET /api/specialties", r.catalogHandler.ListSpecialties)

	// Planning endpoints

	r.mux.HandleFunc("GET /api/planning/scenarios", r.planningHandler.ListScenarios)

	r.mux.HandleFunc("POST /api/planning/execute", r.planningHandler.ExecutePlan)

	r.mux.HandleFunc("POST /api/routing-map", r.planningHandler.RoutingMap)

	// MLOps endpoints

	if r.statusHandler != nil {
		r.mux.HandleFunc("GET /api/mlops/status", r.statusHandler.GetStatus)
		r.mux.HandleFunc("GET /api/mlops/pipeline", r.statusHandler.GetPipeline)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
