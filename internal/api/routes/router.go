package routes

import (
	"net/http"

	"github.com/zatekoja/clinicleads/internal/api/handlers"
	"github.com/zatekoja/clinicleads/internal/api/middleware"
	"github.com/zatekoja/clinicleads/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	landingPageHandler  *handlers.LandingPageHandler
	statusStreamHandler *handlers.StatusStreamHandler
	healthHandler       *handlers.HealthHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	landingPageHandler *handlers.LandingPageHandler,
	statusStreamHandler *handlers.StatusStreamHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		landingPageHandler:  landingPageHandler,
		statusStreamHandler: statusStreamHandler,
		healthHandler:       healthHandler,
		allowedOrigins:      allowedOrigins,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Doctor endpoints
	r.mux.HandleFunc("GET /api/doctors/{doctorId}", r.landingPageHandler.GetDoctor)

	// Landing page endpoints
	r.mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}", r.landingPageHandler.GetLandingPage)
	r.mux.HandleFunc("DELETE /api/landing-pages/{doctorId}/{quizType}", r.landingPageHandler.DeleteLandingPage)
	r.mux.HandleFunc("POST /api/landing-pages/{doctorId}/{quizType}/retry", r.landingPageHandler.RetryLandingPage)
	r.mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}", r.landingPageHandler.GetSection)
	r.mux.HandleFunc("PUT /api/landing-pages/{doctorId}/{quizType}/sections/{sectionKey}", r.landingPageHandler.SaveSection)
	r.mux.HandleFunc("PUT /api/landing-pages/{doctorId}/{quizType}/colors", r.landingPageHandler.SaveColors)
	r.mux.HandleFunc("POST /api/landing-pages/{doctorId}/{quizType}/compact", r.landingPageHandler.CompactLandingPage)

	// Status stream
	if r.statusStreamHandler != nil {
		r.mux.HandleFunc("GET /api/landing-pages/{doctorId}/{quizType}/events", r.statusStreamHandler.StreamStatus)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)
	handler = middleware.CacheControl(handler)
	// CORS wraps everything so headers are set on every response
	handler = middleware.CORS(r.allowedOrigins)(handler)
	return handler
}
