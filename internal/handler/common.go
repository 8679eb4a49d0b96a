package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mfbarbosa/acervo/internal/database"
	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeServiceError maps the capture error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrProcessoNotFound),
		errors.Is(err, database.ErrTimelineNotFound),
		errors.Is(err, service.ErrNenhumaInstancia):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCapturaEmAndamento):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// credencialFrom extracts the authenticated upstream credential from the
// request. Authentication itself is an external collaborator; this boundary
// only requires that the opaque token and principal arrived.
func credencialFrom(r *http.Request) (model.Credencial, bool) {
	token := r.Header.Get("X-PJE-Token")
	advogadoID, err := strconv.ParseInt(r.Header.Get("X-Advogado-ID"), 10, 64)
	if token == "" || err != nil || advogadoID <= 0 {
		return model.Credencial{}, false
	}
	return model.Credencial{AdvogadoID: advogadoID, Token: token}, true
}

// parseQueryInt parses an integer query parameter with a default value
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// decodeOpcoes reads the optional capture options body. An empty body means
// default options with document download enabled.
func decodeOpcoes(r *http.Request) (model.OpcoesCaptura, error) {
	opcoes := model.OpcoesCaptura{BaixarDocumentos: true}
	if r.Body == nil || r.ContentLength == 0 {
		return opcoes, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&opcoes); err != nil {
		return opcoes, err
	}
	return opcoes, nil
}
