// Report HTTP handlers.
//
// This file exposes the REST endpoints for report resources:
//   - POST   /reports                (create, pending)
//   - GET    /reports                (list, paginated, weak ETag support)
//   - GET    /reports/{id}          (fetch one; pure read)
//   - DELETE /reports/{id}          (soft delete: flips to expired)
//   - POST   /reports/{id}/checkout (create a payment intent)
//   - POST   /reports/{id}/retry    (re-run generation for a failed report)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/http/middleware"
	"github.com/unipath-labs/go-abroad-backend/internal/repo"
	"github.com/unipath-labs/go-abroad-backend/internal/services"
	"github.com/unipath-labs/go-abroad-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ReportService defines the report lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ReportService interface {
	Create(ctx context.Context, userID, subject, country string) (*domain.Report, error)
	Get(ctx context.Context, userID, id string) (*domain.Report, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Report, int64, error)
	Delete(ctx context.Context, userID, id string) error
	Retry(ctx context.Context, reportID string) error
}

// PaymentService defines the payment operations consumed by HTTP handlers.
type PaymentService interface {
	CreateCheckout(ctx context.Context, userID, reportID string) (*domain.Payment, string, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Payment, int64, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}

// UserService defines the account operations consumed by HTTP handlers.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// MaintenanceService defines the cron-invoked retention and reconciliation
// sweeps.
type MaintenanceService interface {
	ExpireDue(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
	ReconcileStaleGenerating(ctx context.Context) (int64, error)
}

// HealthChecker aggregates dependency probes.
type HealthChecker interface {
	Check(ctx context.Context) services.HealthReport
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for reports, payments, users, webhooks,
// maintenance and health. It depends on abstract service interfaces to keep
// transport concerns separate from business logic; DB is consulted only for
// the cheap ETag pre-check on list responses.
type Handlers struct {
	reportSvc ReportService
	paySvc    PaymentService
	userSvc   UserService
	maintSvc  MaintenanceService
	healthSvc HealthChecker
	db        *gorm.DB
}

// New constructs a Handlers instance bound to the given services.
func New(reportSvc ReportService, paySvc PaymentService, userSvc UserService, maintSvc MaintenanceService, healthSvc HealthChecker, db *gorm.DB) *Handlers {
	return &Handlers{
		reportSvc: reportSvc,
		paySvc:    paySvc,
		userSvc:   userSvc,
		maintSvc:  maintSvc,
		healthSvc: healthSvc,
		db:        db,
	}
}

// userID extracts the authenticated internal user id attached by the auth
// middleware. Routes registered behind that middleware can rely on it being
// non-empty; a missing id means a wiring error, answered as 401.
func userID(c *gin.Context) string {
	return middleware.UserIDFrom(c)
}

//
// DTOs
//

// CreateReportRequest is the JSON payload for creating a report.
type CreateReportRequest struct {
	// Subject is the field of study, e.g. "computer science".
	Subject string `json:"subject" binding:"required"`
	// Country optionally names the destination; empty selects the supported
	// default.
	Country string `json:"country"`
}

// CheckoutResponse wraps the persisted payment row and the client secret the
// frontend needs to complete the provider checkout flow.
type CheckoutResponse struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListReportsResponse wraps a page of reports and pagination information.
type ListReportsResponse struct {
	Reports    []domain.Report `json:"reports"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 10
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

func requireUUIDParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateReport validates the subject/country pair and persists a pending
// report. Returns 201 with the report resource; generation does not start
// until payment is confirmed.
func (h *Handlers) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: subject required")
		return
	}

	r, err := h.reportSvc.Create(c.Request.Context(), userID(c), req.Subject, req.Country)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedCountry):
			fail(c, http.StatusUnprocessableEntity, ErrCodeCountryUnsupported, err.Error())
		case errors.Is(err, services.ErrEmptySubject), errors.Is(err, services.ErrSubjectTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, r)
}

// ListReports returns a page of the user's visible reports, newest first.
// Supports a weak ETag derived from the row count and the latest update
// timestamp; a matching If-None-Match yields 304.
func (h *Handlers) ListReports(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.ReportsStats(ctx, h.db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"reports:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.reportSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListReportsResponse{
		Reports: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetReport returns one report owned by the user. Expired, foreign-owned and
// nonexistent reports all answer 404.
func (h *Handlers) GetReport(c *gin.Context) {
	id, okParam := requireUUIDParam(c, "id")
	if !okParam {
		return
	}

	r, err := h.reportSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteReport soft-deletes a report by flipping it to expired. 204 on
// success; the report disappears from reads but its row survives until the
// purge sweep.
func (h *Handlers) DeleteReport(c *gin.Context) {
	id, okParam := requireUUIDParam(c, "id")
	if !okParam {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// CreateCheckout creates a provider payment intent for a pending report and
// returns the client secret. The report must exist, belong to the caller and
// still be awaiting payment.
func (h *Handlers) CreateCheckout(c *gin.Context) {
	id, okParam := requireUUIDParam(c, "id")
	if !okParam {
		return
	}
	uid := userID(c)

	r, err := h.reportSvc.Get(c.Request.Context(), uid, id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if r.Status != domain.ReportStatusPending {
		fail(c, http.StatusConflict, ErrCodeConflict, "report is not awaiting payment")
		return
	}

	p, clientSecret, err := h.paySvc.CreateCheckout(c.Request.Context(), uid, id)
	if err != nil {
		if errors.Is(err, services.ErrPaymentProvider) {
			fail(c, http.StatusBadGateway, ErrCodeCheckoutFailed, "payment provider unavailable")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCheckoutFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, CheckoutResponse{Payment: p, ClientSecret: clientSecret})
}

// RetryReport re-runs generation for a failed report owned by the caller.
// Payment was already confirmed on the original attempt, so no new checkout
// is required. Any non-failed status answers 409.
func (h *Handlers) RetryReport(c *gin.Context) {
	id, okParam := requireUUIDParam(c, "id")
	if !okParam {
		return
	}

	r, err := h.reportSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if r.Status != domain.ReportStatusFailed {
		fail(c, http.StatusConflict, ErrCodeConflict, "only failed reports can be retried")
		return
	}

	if err := h.reportSvc.Retry(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			// Lost the race with a concurrent retry or the expiry sweep.
			fail(c, http.StatusConflict, ErrCodeConflict, "report is no longer retryable")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeRetryFailed, err.Error())
		return
	}

	r, err = h.reportSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, r)
}
