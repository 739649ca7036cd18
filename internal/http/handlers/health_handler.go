// Health endpoint.
//
// GET /healthz aggregates the dependency probes and answers 200 when every
// required service is reachable, 503 otherwise. The body always carries the
// per-service states and the feature-flag snapshot so operators can see at a
// glance which subsystem degraded and whether a flag explains it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health runs all dependency probes and reports the aggregate.
func (h *Handlers) Health(c *gin.Context) {
	report := h.healthSvc.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	ok(c, status, report)
}
