package api

import (
	"net/http"

	"github.com/straviz/straviz-server/internal/api/respond"
	"github.com/straviz/straviz-server/internal/health"
)

// HealthHandler reports cached service health.
type HealthHandler struct {
	checker *health.ServiceHealthChecker
}

// NewHealthHandler returns a HealthHandler.
func NewHealthHandler(checker *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// CheckHealth handles GET /api/health. Always returns 200; the body carries
// the health verdict so probes can distinguish degraded from down. A missing
// checker reports unhealthy rather than masking a wiring mistake.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.checker != nil && h.checker.IsHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}
