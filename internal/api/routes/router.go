package routes

import (
	"net/http"

	"github.com/optimed-health/backend/internal/api/handlers"
	"github.com/optimed-health/backend/internal/api/middleware"
	"github.com/optimed-health/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler *handlers.HospitalHandler
	queueHandler    *handlers.QueueHandler
	triageHandler   *handlers.TriageHandler
	sseHandler      *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	hospitalHandler *handlers.HospitalHandler,
	queueHandler *handlers.QueueHandler,
	triageHandler *handlers.TriageHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		hospitalHandler: hospitalHandler,
		queueHandler:    queueHandler,
		triageHandler:   triageHandler,
		sseHandler:      sseHandler,
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

	// Hospital endpoints
	r.mux.HandleFunc("GET /api/hospitals", r.hospitalHandler.ListHospitals)
	r.mux.HandleFunc("GET /api/hospitals/search", r.hospitalHandler.SearchHospitals)
	r.mux.HandleFunc("GET /api/hospitals/suggest", r.hospitalHandler.SuggestHospitals)
	r.mux.HandleFunc("GET /api/hospitals/{id}", r.hospitalHandler.GetHospital)
	r.mux.HandleFunc("PATCH /api/hospitals/{id}/wait", r.hospitalHandler.UpdateWaitTime)

	// Queue lifecycle endpoints
	r.mux.HandleFunc("POST /api/queue", r.queueHandler.JoinQueue)
	r.mux.HandleFunc("GET /api/queue", r.queueHandler.ListActive)
	r.mux.HandleFunc("GET /api/queue/{id}", r.queueHandler.GetEntry)
	r.mux.HandleFunc("POST /api/queue/{id}/check-in", r.queueHandler.CheckIn)
	r.mux.HandleFunc("POST /api/queue/{id}/cancel", r.queueHandler.Cancel)
	r.mux.HandleFunc("PATCH /api/queue/{id}/status", r.queueHandler.UpdateStatus)

	// Triage assistant endpoint
	r.mux.HandleFunc("POST /api/triage/chat", r.triageHandler.Chat)

	// Server-Sent Events endpoints; absent when the event bus is unavailable
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/queue", r.sseHandler.StreamUserQueue)
		r.mux.HandleFunc("GET /api/stream/hospitals/{id}", r.sseHandler.StreamHospitalUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.CORSMiddleware(handler)

	return handler
}
