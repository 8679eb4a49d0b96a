package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mfbarbosa/acervo/internal/database"
)

// ProcessoHandler exposes read access to the relational process records.
type ProcessoHandler struct {
	processos *database.ProcessoRepository
}

// NewProcessoHandler creates a new processo handler
func NewProcessoHandler(processos *database.ProcessoRepository) *ProcessoHandler {
	return &ProcessoHandler{processos: processos}
}

// List handles GET /api/v1/processos. With ?numero= it returns every judicial
// instance of that case; otherwise it pages through the calling attorney's
// records.
func (h *ProcessoHandler) List(w http.ResponseWriter, r *http.Request) {
	if numero := r.URL.Query().Get("numero"); numero != "" {
		processos, err := h.processos.FindByNumero(r.Context(), numero)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, processos)
		return
	}

	cred, ok := credencialFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "X-PJE-Token and X-Advogado-ID headers are required")
		return
	}

	limit := parseQueryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	processos, err := h.processos.ListByAdvogado(r.Context(), cred.AdvogadoID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processos)
}

// Get handles GET /api/v1/processos/{id}
func (h *ProcessoHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/processos/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid processo id")
		return
	}

	processo, err := h.processos.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processo)
}
