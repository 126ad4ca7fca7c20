package api

import (
	"net/http"

	"github.com/openlens/openlens/internal/api/respond"
	"github.com/openlens/openlens/internal/health"
)

// HealthHandler reports the cached service health status.
type HealthHandler struct {
	checker health.HealthChecker
}

func NewHealthHandler(checker health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil && !h.checker.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
