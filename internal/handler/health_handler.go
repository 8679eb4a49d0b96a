package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/mfbarbosa/acervo/internal/database"
)

// HealthHandler handles service health and readiness checks
type HealthHandler struct {
	mongo     *database.MongoDB
	postgres  *sql.DB
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongo *database.MongoDB, postgres *sql.DB, version string) *HealthHandler {
	return &HealthHandler{
		mongo:     mongo,
		postgres:  postgres,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	MongoDB       string `json:"mongodb"`
	PostgreSQL    string `json:"postgresql"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready      bool   `json:"ready"`
	MongoDB    string `json:"mongodb"`
	PostgreSQL string `json:"postgresql"`
}

func (h *HealthHandler) storeStatus(r *http.Request) (mongoStatus, pgStatus string, ok bool) {
	mongoStatus, pgStatus, ok = "connected", "connected", true
	if err := h.mongo.Client.Ping(r.Context(), nil); err != nil {
		mongoStatus = "disconnected"
		ok = false
	}
	if err := h.postgres.PingContext(r.Context()); err != nil {
		pgStatus = "disconnected"
		ok = false
	}
	return mongoStatus, pgStatus, ok
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	mongoStatus, pgStatus, _ := h.storeStatus(r)

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		MongoDB:       mongoStatus,
		PostgreSQL:    pgStatus,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}

// Ready returns the service readiness status
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	mongoStatus, pgStatus, ready := h.storeStatus(r)

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Ready:      ready,
		MongoDB:    mongoStatus,
		PostgreSQL: pgStatus,
	})
}
