// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Payment
// model.
//
// Payments are a permanent audit trail: SoftDeletePayment and RestorePayment
// are no-ops, and HardDeletePayment always refuses with ErrPaymentImmutable
// regardless of input. Rows change only through webhook-driven status updates.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

// ErrPaymentImmutable is returned by any attempt to delete a payment row.
var ErrPaymentImmutable = errors.New("payment records cannot be deleted")

// paymentMutableFields is the allow-list of attributes a partial update may
// touch. Unknown keys are silently ignored.
var paymentMutableFields = map[string]struct{}{
	"status":              {},
	"error_message":       {},
	"checkout_session_id": {},
	"refunded_at":         {},
}

// CreatePayment inserts a pending Payment row keyed by the provider's
// intent id.
func CreatePayment(ctx context.Context, db *gorm.DB, userID, intentID, sessionID string, amountCents int64, currency string) (*domain.Payment, error) {
	p := &domain.Payment{
		ID:                uuid.NewString(),
		UserID:            userID,
		IntentID:          intentID,
		CheckoutSessionID: sessionID,
		AmountCents:       amountCents,
		Currency:          currency,
		Status:            domain.PaymentStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPayment fetches a payment by internal id, or ErrNotFound.
func GetPayment(ctx context.Context, db *gorm.DB, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPaymentByIntentID fetches a payment by provider intent id, or
// ErrNotFound.
func GetPaymentByIntentID(ctx context.Context, db *gorm.DB, intentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).Where("intent_id = ?", intentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPayments returns the total number of payments owned by userID.
func CountPayments(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListPaymentsPage returns a paginated slice of the user's payments ordered
// by creation time descending (most recent first).
func ListPaymentsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Payment, error) {
	var out []domain.Payment
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdatePayment applies the allow-listed keys from the partial-update map to
// the payment identified by id and returns the refreshed row. Unknown keys
// are ignored; a missing payment yields ErrNotFound.
func UpdatePayment(ctx context.Context, db *gorm.DB, id string, data map[string]any) (*domain.Payment, error) {
	if _, err := GetPayment(ctx, db, id); err != nil {
		return nil, err
	}
	updates := filterAllowed(data, paymentMutableFields)
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetPayment(ctx, db, id)
}

// SoftDeletePayment is a no-op: the audit trail has no soft-delete state.
func SoftDeletePayment(ctx context.Context, db *gorm.DB, id string) error {
	return ErrNotFound
}

// HardDeletePayment always refuses. The audit trail must never be erasable
// through the repository, regardless of the id passed.
func HardDeletePayment(ctx context.Context, db *gorm.DB, id string) error {
	return ErrPaymentImmutable
}

// RestorePayment is a no-op mirroring SoftDeletePayment.
func RestorePayment(ctx context.Context, db *gorm.DB, id string) error {
	return ErrNotFound
}
