// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the WebhookEvent
// model used to deduplicate at-least-once payment event deliveries.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

// ErrDuplicate indicates that a webhook event with the same provider event id
// has already been recorded.
var ErrDuplicate = errors.New("duplicate")

// RecordWebhookEvent inserts a processed-event record and returns
// ErrDuplicate on a unique violation, which is how a replayed delivery is
// detected before any state change is attempted.
func RecordWebhookEvent(ctx context.Context, db *gorm.DB, eventID, eventType string) (*domain.WebhookEvent, error) {
	rec := &domain.WebhookEvent{
		ID:      uuid.NewString(),
		EventID: eventID,
		Type:    eventType,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") ||
			strings.Contains(low, "duplicate key value") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// DeleteWebhookEvent removes a recorded event by provider event id. It is the
// compensating step when processing fails after the dedup record was written:
// releasing the record lets the provider's redelivery be processed instead of
// dropped as a duplicate.
func DeleteWebhookEvent(ctx context.Context, db *gorm.DB, eventID string) error {
	return db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&domain.WebhookEvent{}).Error
}
