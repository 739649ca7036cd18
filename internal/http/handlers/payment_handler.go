// Payment and user HTTP handlers.
//
//   - GET    /payments   (list the caller's payment audit records)
//   - GET    /users/me   (fetch the caller's account)
//   - DELETE /users/me   (hard-delete the account; cascades to reports and
//     payments)
//
// There is no DELETE for payments: the audit trail is immutable and only a
// full account erasure removes it.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

// ListPaymentsResponse wraps a page of payments and pagination information.
type ListPaymentsResponse struct {
	Payments   []domain.Payment `json:"payments"`
	Pagination Pagination       `json:"pagination"`
}

// ListPayments returns a page of the caller's payments, newest first.
func (h *Handlers) ListPayments(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.paySvc.ListPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPaymentsResponse{
		Payments: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetMe returns the caller's account record.
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteMe hard-deletes the caller's account. The database cascades the
// removal to every owned report and payment; there is no recovery path.
func (h *Handlers) DeleteMe(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), userID(c)); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
