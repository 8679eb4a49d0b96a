package handler

import (
	"net/http"
	"strings"

	"github.com/mfbarbosa/acervo/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	captureHandler  *CaptureHandler
	processoHandler *ProcessoHandler
	healthHandler   *HealthHandler
	corsConfig      middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	captureHandler *CaptureHandler,
	processoHandler *ProcessoHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		captureHandler:  captureHandler,
		processoHandler: processoHandler,
		healthHandler:   healthHandler,
		corsConfig:      corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/processos", rt.handleProcessos)
	mux.HandleFunc("/api/v1/processos/", rt.handleProcessosWithID)
	mux.HandleFunc("/api/v1/acervo/capturar", rt.handleAcervoCapturar)
	mux.HandleFunc("/api/v1/jobs/", rt.handleJobs)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleProcessos routes the processo collection endpoints
func (rt *Router) handleProcessos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.processoHandler.List(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProcessosWithID routes the per-processo endpoints
func (rt *Router) handleProcessosWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/processos/")

	if path == "recapturar-instancias" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.captureHandler.RecapturarInstancias(w, r)
		return
	}

	if strings.HasSuffix(path, "/capturar-timeline") {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.captureHandler.CapturarTimeline(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.processoHandler.Get(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAcervoCapturar routes the acervo listing capture endpoint
func (rt *Router) handleAcervoCapturar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.captureHandler.CapturarAcervo(w, r)
}

// handleJobs routes the async job status endpoint
func (rt *Router) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.captureHandler.GetJob(w, r)
}
