// Package services defines the business logic for reports, payments, and
// health. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer. Note that nonexistent, foreign-owned and
// expired reports all surface as ErrReportNotFound on purpose: the three
// cases must be indistinguishable to a client.
package services

import "errors"

// Report-related errors.
var (
	// ErrReportNotFound indicates that the requested report does not exist,
	// is expired, or is not accessible to the current user. The three cases
	// are deliberately collapsed.
	ErrReportNotFound = errors.New("report not found")

	// ErrEmptySubject is returned when a report creation request carries an
	// empty subject.
	ErrEmptySubject = errors.New("subject is empty")

	// ErrSubjectTooLong is returned when the subject exceeds the maximum
	// configured rune length.
	ErrSubjectTooLong = errors.New("subject too long")

	// ErrUnsupportedCountry is returned when the requested country is not
	// the single supported deployment country. Checked before any payment
	// or AI work is scheduled.
	ErrUnsupportedCountry = errors.New("country not supported")

	// ErrContentInvalid indicates generated content failed shape validation
	// (missing mandatory section, or too few citations). It never reaches a
	// client directly; it becomes a failed report with a diagnostic reason.
	ErrContentInvalid = errors.New("generated content failed validation")
)

// Payment-related errors.
var (
	// ErrPaymentNotFound indicates that no payment row matches the given
	// provider intent id.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentProvider wraps failures from the external payment provider.
	ErrPaymentProvider = errors.New("payment provider error")

	// ErrWebhookVerification indicates that an inbound webhook payload or
	// signature failed cryptographic verification.
	ErrWebhookVerification = errors.New("webhook verification failed")
)

// User-related errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
