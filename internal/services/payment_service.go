// Package services – PaymentService
//
// This file implements PaymentService, which creates payable intents for
// reports, verifies inbound webhook authenticity through the provider
// adapter, deduplicates at-least-once deliveries, and updates payment and
// report state together. It is the trigger point feeding the report
// lifecycle's pending → generating transition: only an event whose payment
// status is confirmed paid may start generation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/repo"
)

// Metadata keys carried on every payment intent so webhook events can be
// correlated back to the report they pay for.
const (
	MetadataUserID   = "user_id"
	MetadataReportID = "report_id"
)

// Normalized provider payment states carried on PaymentEvent. Only
// PaymentStatusPaid may ever trigger generation.
const (
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// PaymentIntent is the provider-created payable object handed back to the
// client.
type PaymentIntent struct {
	IntentID     string
	SessionID    string
	ClientSecret string
}

// PaymentEvent is a provider webhook event normalized by the provider
// adapter after signature verification.
type PaymentEvent struct {
	ID            string
	Type          string
	IntentID      string
	SessionID     string
	PaymentStatus string
	ErrorMessage  string
	Metadata      map[string]string
}

// PaymentProvider abstracts the external payment service. Implementations
// live in internal/payments; tests substitute mocks.
type PaymentProvider interface {
	// CreateIntent creates a payable intent carrying the given metadata.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	// VerifyWebhook checks the payload signature against the shared secret
	// and returns the normalized event. Nothing unverified is ever trusted.
	VerifyWebhook(payload []byte, signatureHeader string) (*PaymentEvent, error)
}

// PaymentService implements the use-cases around payments: checkout
// creation, webhook ingestion, and status updates.
type PaymentService struct {
	DB       *gorm.DB
	Provider PaymentProvider
	Reports  *ReportService

	// PriceCents and Currency describe the flat per-report price.
	PriceCents int64
	Currency   string
}

// CreateCheckout creates a provider intent for the report and persists the
// pending Payment row keyed by the provider's intent id, returning the row
// and the client-usable secret.
//
// Provider failures surface as ErrPaymentProvider and leave no Payment row
// behind. If persistence fails after the provider call succeeded there is a
// reconciliation gap: the error is logged with the intent id for manual
// follow-up and returned to the caller.
func (s *PaymentService) CreateCheckout(ctx context.Context, userID, reportID string) (*domain.Payment, string, error) {
	intent, err := s.Provider.CreateIntent(ctx, s.PriceCents, s.Currency, map[string]string{
		MetadataUserID:   userID,
		MetadataReportID: reportID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}

	p, err := repo.CreatePayment(ctx, s.DB, userID, intent.IntentID, intent.SessionID, s.PriceCents, s.Currency)
	if err != nil {
		log.Error().Err(err).
			Str("intent_id", intent.IntentID).
			Str("report_id", reportID).
			Msg("payment intent created but row not persisted; manual reconciliation required")
		return nil, "", err
	}
	return p, intent.ClientSecret, nil
}

// ListPage returns a page of the user's payments, newest first, with the
// total count. Page size defaults to 10.
func (s *PaymentService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	total, err := repo.CountPayments(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Payment{}, 0, nil
	}

	items, err := repo.ListPaymentsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// HandleWebhook verifies, deduplicates and processes one raw webhook
// delivery. Replayed deliveries (same provider event id) are dropped after
// verification with no state change.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := s.Provider.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookVerification, err)
	}

	if _, err := repo.RecordWebhookEvent(ctx, s.DB, ev.ID, ev.Type); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Msg("duplicate webhook delivery dropped")
			return nil
		}
		return err
	}

	if err := s.HandleEvent(ctx, ev); err != nil {
		// Release the dedup record, otherwise the provider's redelivery of
		// this failed event would be dropped as a duplicate and the payment
		// lost for good.
		if delErr := repo.DeleteWebhookEvent(ctx, s.DB, ev.ID); delErr != nil {
			log.Error().Err(delErr).Str("event_id", ev.ID).Msg("failed to release webhook dedup record")
		}
		return err
	}
	return nil
}

// HandleEvent applies one verified event. Events that cannot be correlated
// (no report id in metadata, or an intent this system never created) are
// logged and dropped with no partial state change.
func (s *PaymentService) HandleEvent(ctx context.Context, ev *PaymentEvent) error {
	reportID := ev.Metadata[MetadataReportID]
	if reportID == "" {
		log.Warn().Str("event_id", ev.ID).Str("type", ev.Type).Msg("webhook event dropped: no report id in metadata")
		return nil
	}

	var newStatus domain.PaymentStatus
	switch ev.PaymentStatus {
	case PaymentStatusPaid:
		newStatus = domain.PaymentStatusSucceeded
	case PaymentStatusRefunded:
		newStatus = domain.PaymentStatusRefunded
	default:
		newStatus = domain.PaymentStatusFailed
	}

	if _, err := s.UpdatePaymentStatus(ctx, ev.IntentID, newStatus, ev.ErrorMessage); err != nil {
		return err
	}

	// The payment gate: only a confirmed paid event may trigger generation.
	if newStatus != domain.PaymentStatusSucceeded {
		log.Info().
			Str("event_id", ev.ID).
			Str("report_id", reportID).
			Str("payment_status", ev.PaymentStatus).
			Msg("payment not confirmed; generation not triggered")
		return nil
	}
	return s.Reports.HandlePaymentSucceeded(ctx, reportID)
}

// UpdatePaymentStatus looks up the Payment by provider intent id and applies
// the status change. An absent row is a no-op returning (nil, nil): the
// event concerns an intent this system never created, e.g. test traffic.
// An invalid transition is logged as an integrity defect and skipped.
// Transitioning to refunded stamps the refund timestamp.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus, errorMessage string) (*domain.Payment, error) {
	p, err := repo.GetPaymentByIntentID(ctx, s.DB, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info().Str("intent_id", intentID).Msg("webhook event for unknown intent ignored")
			return nil, nil
		}
		return nil, err
	}

	if p.Status == status {
		return p, nil
	}
	if !p.Status.CanTransitionTo(status) {
		log.Error().
			Str("intent_id", intentID).
			Str("from", string(p.Status)).
			Str("to", string(status)).
			Msg("invalid payment status transition attempted")
		return p, nil
	}

	updates := map[string]any{"status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	if status == domain.PaymentStatusRefunded {
		now := time.Now().UTC()
		updates["refunded_at"] = &now
	}
	return repo.UpdatePayment(ctx, s.DB, p.ID, updates)
}
