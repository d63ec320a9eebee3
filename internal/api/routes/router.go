package routes

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annuaire-sante/backend/internal/api/handlers"
	"github.com/annuaire-sante/backend/internal/api/middleware"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
)

// Handlers groups the route handlers
type Handlers struct {
	Search        *handlers.SearchHandler
	Structure     *handlers.StructureHandler
	Association   *handlers.AssociationHandler
	Catalog       *handlers.CatalogHandler
	Evaluation    *handlers.EvaluationHandler
	SearchHistory *handlers.SearchHistoryHandler
	Health        *handlers.HealthHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	handlers       Handlers
	auth           *middleware.Authenticator
	searchLimiter  *middleware.RateLimiter
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. metrics may be nil when OpenTelemetry is disabled.
func NewRouter(
	h Handlers,
	auth *middleware.Authenticator,
	searchLimiter *middleware.RateLimiter,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		handlers:       h,
		auth:           auth,
		searchLimiter:  searchLimiter,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	h := r.handlers
	authed := middleware.RequireCaller

	r.mux.HandleFunc("GET /health", h.Health.Health)
	r.mux.Handle("GET /metrics", promhttp.Handler())

	// Search
	r.mux.HandleFunc("GET /api/structures-sante/search", r.limitSearch(h.Search.SearchStructures))
	r.mux.HandleFunc("GET /api/structures-sante/suggest", r.limitSearch(h.Search.SuggestStructures))

	// Structures
	r.mux.HandleFunc("GET /api/structures-sante", h.Structure.ListStructures)
	r.mux.HandleFunc("GET /api/structures-sante/{id}", h.Structure.GetStructure)
	r.mux.HandleFunc("POST /api/structures-sante", authed(h.Structure.CreateStructure))
	r.mux.HandleFunc("PUT /api/structures-sante/{id}", authed(h.Structure.UpdateStructure))
	r.mux.HandleFunc("DELETE /api/structures-sante/{id}", authed(h.Structure.DeleteStructure))
	r.mux.HandleFunc("GET /api/admin/structures-sante", authed(h.Structure.ListAllStructures))

	// Associations
	r.mux.HandleFunc("POST /api/structures-sante/{id}/services", authed(h.Association.AttachService))
	r.mux.HandleFunc("PUT /api/structures-sante/{id}/services/{serviceId}", authed(h.Association.UpdateService))
	r.mux.HandleFunc("DELETE /api/structures-sante/{id}/services/{serviceId}", authed(h.Association.DetachService))
	r.mux.HandleFunc("POST /api/structures-sante/{id}/assurances", authed(h.Association.AttachInsurance))
	r.mux.HandleFunc("PUT /api/structures-sante/{id}/assurances/{assuranceId}", authed(h.Association.UpdateInsurance))
	r.mux.HandleFunc("DELETE /api/structures-sante/{id}/assurances/{assuranceId}", authed(h.Association.DetachInsurance))
	r.mux.HandleFunc("POST /api/structures-sante/{id}/stocks", authed(h.Association.AttachStock))
	r.mux.HandleFunc("PUT /api/structures-sante/{id}/stocks/{productId}", authed(h.Association.UpdateStock))
	r.mux.HandleFunc("DELETE /api/structures-sante/{id}/stocks/{productId}", authed(h.Association.DetachStock))

	// Evaluations
	r.mux.HandleFunc("GET /api/structures-sante/{id}/evaluations", h.Evaluation.ListEvaluations)
	r.mux.HandleFunc("POST /api/structures-sante/{id}/evaluations", authed(h.Evaluation.SubmitEvaluation))

	// Catalog
	r.mux.HandleFunc("GET /api/services", h.Catalog.ListServices)
	r.mux.HandleFunc("POST /api/services", authed(h.Catalog.CreateService))
	r.mux.HandleFunc("GET /api/assurances", h.Catalog.ListInsurances)
	r.mux.HandleFunc("POST /api/assurances", authed(h.Catalog.CreateInsurance))
	r.mux.HandleFunc("GET /api/produits", h.Catalog.ListProducts)
	r.mux.HandleFunc("POST /api/produits", authed(h.Catalog.CreateProduct))

	// Search history
	r.mux.HandleFunc("GET /api/search-history", authed(h.SearchHistory.ListRecent))

	// Apply middleware in reverse order (last middleware wraps first).
	// Logging and observability sit directly on the mux so they see the
	// request the mux records the matched pattern on.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = r.auth.Authenticate(handler)
	handler = chimw.Recoverer(handler)
	handler = chimw.RealIP(handler)
	handler = chimw.RequestID(handler)

	// CORS wraps everything so preflight requests never reach auth
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) limitSearch(next http.HandlerFunc) http.HandlerFunc {
	if r.searchLimiter == nil {
		return next
	}
	return r.searchLimiter.Limit(next)
}
