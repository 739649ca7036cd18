// Payment webhook handler.
//
// POST /webhooks/payments receives provider webhook deliveries. The raw body
// is passed untouched to the payment service, which verifies the signature
// before anything is parsed or trusted. The route is unauthenticated; the
// signature is the authentication.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unipath-labs/go-abroad-backend/internal/http/middleware"
	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

// maxWebhookBody bounds the accepted webhook payload size.
const maxWebhookBody = 1 << 20 // 1 MiB, well above any provider event

// PaymentWebhook ingests one provider webhook delivery. Answers:
//   - 200 once the event is verified and processed (including duplicates,
//     which are dropped idempotently)
//   - 400 when the signature or payload fails verification
//   - 500 when processing fails, so the provider redelivers
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if err := h.paySvc.HandleWebhook(c.Request.Context(), payload, sig); err != nil {
		if errors.Is(err, services.ErrWebhookVerification) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("webhook rejected")
			fail(c, http.StatusBadRequest, ErrCodeWebhookInvalid, "signature verification failed")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "webhook processing failed")
		return
	}

	ok(c, http.StatusOK, gin.H{"received": true})
}
