package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sparkfbla/chapter/internal/api/response"
)

// DBPinger checks that the profile store is reachable.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request. A database outage reports
// "degraded" with status 200 so the process is not restarted for it.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connected := false
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("health check: database unreachable", "error", err)
		} else {
			connected = true
		}
	}

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	response.JSON(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	})
}
