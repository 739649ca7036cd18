// Package domain defines the persistence models for users, payments, and
// reports. These types are mapped with GORM and form the core data layer of
// the study-abroad report application.
package domain

import "time"

// ReportStatus is the lifecycle state of a report. Expiry is a first-class
// lifecycle state with its own visibility rules, not a generic deleted flag.
type ReportStatus string

// Report lifecycle states. Valid forward transitions:
// pending → generating → {completed | failed} → expired → (hard-deleted).
// failed may additionally be retried back to generating.
const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusFailed     ReportStatus = "failed"
	ReportStatusExpired    ReportStatus = "expired"
)

// CanTransitionTo reports whether moving from s to next follows a forward
// arrow of the lifecycle state machine. Anything else is a programming-logic
// error on the caller's side.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportStatusPending:
		return next == ReportStatusGenerating || next == ReportStatusExpired
	case ReportStatusGenerating:
		return next == ReportStatusCompleted || next == ReportStatusFailed || next == ReportStatusExpired
	case ReportStatusCompleted:
		return next == ReportStatusExpired
	case ReportStatusFailed:
		return next == ReportStatusGenerating || next == ReportStatusExpired
	default:
		return false
	}
}

// PaymentStatus is the state of a payment audit record.
type PaymentStatus string

// Payment states. pending → succeeded | failed; succeeded → refunded.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// CanTransitionTo reports whether moving from s to next is a valid payment
// status change.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusFailed
	case PaymentStatusSucceeded:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// User is the internal identity record, one per external identity-provider id.
// Users are created on first authenticated request and are hard-deleted only;
// the delete cascades to owned reports and payments (GDPR requirement).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - ExternalID: identity-provider subject; unique.
//   - Email: contact address as reported by the identity provider.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_users_external_id"`
	Email      string    `json:"email"       gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Payment is an immutable audit record of a monetary transaction. Rows are
// created when checkout is initiated, updated only by webhook-driven status
// changes, and never destroyed; soft and hard delete are both refused by the
// repository layer. The only exception is the FK cascade from a user
// hard-delete, which is the GDPR erasure path.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed, cascade-deleted with the user.
//   - IntentID: provider payment-intent id; unique correlation key.
//   - CheckoutSessionID: provider checkout-session id, when present.
//   - AmountCents / Currency: charged amount in minor units.
//   - Status: pending | succeeded | failed | refunded.
//   - ErrorMessage: provider diagnostic on failure.
//   - RefundedAt: stamped when the status transitions to refunded.
type Payment struct {
	ID                string        `json:"id"                  gorm:"type:char(36);primaryKey"`
	UserID            string        `json:"user_id"             gorm:"type:char(36);not null;index:idx_user_payments"`
	IntentID          string        `json:"intent_id"           gorm:"type:varchar(128);not null;uniqueIndex:ux_payments_intent_id"`
	CheckoutSessionID string        `json:"checkout_session_id" gorm:"type:varchar(128)"`
	AmountCents       int64         `json:"amount_cents"        gorm:"not null"`
	Currency          string        `json:"currency"            gorm:"type:varchar(3);not null"`
	Status            PaymentStatus `json:"status"              gorm:"type:varchar(16);not null;check:status IN ('pending','succeeded','failed','refunded')"`
	ErrorMessage      string        `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	RefundedAt        *time.Time    `json:"refunded_at,omitempty"`

	// User is the owning identity. Payments are cascade-deleted only when
	// the user exercises their right to erasure.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }

// Report is the core entity: a paid, AI-generated study-abroad report.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed, cascade-deleted with the user.
//   - Subject: field of study the report covers.
//   - Country: destination country; constrained to the single supported value.
//   - Status: lifecycle state (see ReportStatus).
//   - Content: structured sections with citations; set once on completion and
//     never mutated by a read.
//   - CitationCount: sum of citations across sections, recomputed whenever
//     content changes.
//   - FailureReason: diagnostic message when generation fails.
//   - CreatedAt / ExpiresAt / UpdatedAt: lifecycle timestamps. ExpiresAt is
//     fixed at creation (created + retention TTL).
type Report struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string         `json:"user_id"        gorm:"type:char(36);not null;index:idx_user_reports,priority:1"`
	Subject       string         `json:"subject"        gorm:"type:varchar(255);not null"`
	Country       string         `json:"country"        gorm:"type:varchar(64);not null"`
	Status        ReportStatus   `json:"status"         gorm:"type:varchar(16);not null;index;check:status IN ('pending','generating','completed','failed','expired')"`
	Content       *ReportContent `json:"content,omitempty" gorm:"type:text"`
	CitationCount int            `json:"citation_count" gorm:"not null;default:0"`
	FailureReason string         `json:"failure_reason,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"     gorm:"index:idx_user_reports,priority:2"`
	ExpiresAt     time.Time      `json:"expires_at"     gorm:"not null;index"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// User is the owning identity. Reports are cascade-deleted with the user.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Report.
func (Report) TableName() string { return "reports" }
