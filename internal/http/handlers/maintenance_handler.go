// Maintenance HTTP handlers.
//
// These endpoints are invoked by the external cron scheduler and are mounted
// behind the shared-secret middleware:
//
//   - POST /internal/maintenance/expire     (flip due reports to expired)
//   - POST /internal/maintenance/purge      (hard-delete long-expired reports)
//   - POST /internal/maintenance/reconcile  (fail stale generating reports)
//
// Every sweep is idempotent, so an overlapping or repeated cron invocation is
// harmless. Responses carry the affected row count and the correlation id.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unipath-labs/go-abroad-backend/internal/http/middleware"
)

// MaintenanceResponse reports the outcome of one sweep.
type MaintenanceResponse struct {
	Count     int64  `json:"count"`
	RequestID string `json:"request_id"`
}

// ExpireReports runs the first retention sweep.
func (h *Handlers) ExpireReports(c *gin.Context) {
	h.runSweep(c, h.maintSvc.ExpireDue)
}

// PurgeReports runs the second retention sweep.
func (h *Handlers) PurgeReports(c *gin.Context) {
	h.runSweep(c, h.maintSvc.PurgeExpired)
}

// ReconcileReports fails reports stuck in the generating state.
func (h *Handlers) ReconcileReports(c *gin.Context) {
	h.runSweep(c, h.maintSvc.ReconcileStaleGenerating)
}

func (h *Handlers) runSweep(c *gin.Context, sweep func(context.Context) (int64, error)) {
	n, err := sweep(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MaintenanceResponse{
		Count:     n,
		RequestID: middleware.RequestIDFrom(c),
	})
}
