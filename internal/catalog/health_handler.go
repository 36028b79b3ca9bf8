// health_handler.go -- Health check handler for GET /health.
package catalog

import (
	"net/http"
)

// CheckHealth handles GET /health -- pings the database and the session backend.
// Returns 200 if both are healthy, 503 if either is down.
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	sessStatus := "ok"

	if err := h.DB.CheckHealth(r.Context()); err != nil {
		logError(r, "database health check failed", "error", err)
		dbStatus = "error"
	}
	if h.SessHC != nil {
		if err := h.SessHC.CheckHealth(r.Context()); err != nil {
			logError(r, "session backend health check failed", "error", err)
			sessStatus = "error"
		}
	}

	status := http.StatusOK
	if dbStatus == "error" || sessStatus == "error" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, struct {
		Database string `json:"database"`
		Sessions string `json:"sessions"`
	}{dbStatus, sessStatus})
}
