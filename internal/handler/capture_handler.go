package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/service"
)

// CaptureHandler exposes the capture operations.
type CaptureHandler struct {
	capture      *service.CaptureService
	orchestrator *service.Orchestrator
	acervo       *service.AcervoService
	async        *service.AsyncCapture
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(
	capture *service.CaptureService,
	orchestrator *service.Orchestrator,
	acervo *service.AcervoService,
	async *service.AsyncCapture,
) *CaptureHandler {
	return &CaptureHandler{
		capture:      capture,
		orchestrator: orchestrator,
		acervo:       acervo,
		async:        async,
	}
}

// AsyncResponse represents an async capture submission response
type AsyncResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CapturarTimeline handles POST /api/v1/processos/{id}/capturar-timeline
func (h *CaptureHandler) CapturarTimeline(w http.ResponseWriter, r *http.Request) {
	cred, ok := credencialFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "X-PJE-Token and X-Advogado-ID headers are required")
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}
	processoID, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil || processoID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid processo id")
		return
	}

	opcoes, err := decodeOpcoes(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if r.URL.Query().Get("async") == "true" {
		jobID := h.async.SubmitJob(cred, processoID, opcoes)
		writeJSON(w, http.StatusAccepted, AsyncResponse{
			JobID:   jobID,
			Status:  "queued",
			Message: "Timeline capture queued successfully",
		})
		return
	}

	resultado, err := h.capture.CapturarTimeline(r.Context(), cred, processoID, opcoes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultado)
}

// RecapturarInstancias handles POST /api/v1/processos/recapturar-instancias.
// Partial failure is a normal outcome across 24 upstreams, so the report is
// always a 200 with mixed per-instance statuses.
func (h *CaptureHandler) RecapturarInstancias(w http.ResponseWriter, r *http.Request) {
	cred, ok := credencialFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "X-PJE-Token and X-Advogado-ID headers are required")
		return
	}

	numero := r.URL.Query().Get("numero")
	if numero == "" {
		writeError(w, http.StatusBadRequest, "numero query parameter is required")
		return
	}

	opcoes, err := decodeOpcoes(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	relatorio, err := h.orchestrator.RecapturarTodasInstancias(r.Context(), cred, numero, opcoes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, relatorio)
}

// CapturarAcervo handles POST /api/v1/acervo/capturar
func (h *CaptureHandler) CapturarAcervo(w http.ResponseWriter, r *http.Request) {
	cred, ok := credencialFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "X-PJE-Token and X-Advogado-ID headers are required")
		return
	}

	tribunal := parseQueryInt(r, "tribunal", 0)
	grau := model.Grau(parseQueryInt(r, "grau", 0))
	if tribunal < 1 || tribunal > 24 || !grau.Valid() {
		writeError(w, http.StatusBadRequest, "tribunal (1-24) and grau (1, 2 or 3) query parameters are required")
		return
	}

	resultado, err := h.acervo.CapturarAcervo(r.Context(), cred, tribunal, grau)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultado)
}

// GetJob handles GET /api/v1/jobs/{id}
func (h *CaptureHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job id is required")
		return
	}

	status, exists := h.async.GetJobStatus(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
