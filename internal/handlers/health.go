package handlers

import "net/http"

// HandleHealth handles GET /health. The database ping is skipped when the
// store is not configured so the endpoint still reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
