// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Report
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The lifecycle rules (payment gating,
// content validation) live in services.ReportService.
//
// Delete semantics:
//   - Soft delete is the status flip to "expired"; the row stays behind.
//   - Hard delete removes the row permanently, unconditionally of status.
//   - Restore succeeds only from the "expired" status; anything else is
//     ErrNotFound.
//
// Error semantics:
//   - When a report is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// preExpiryStatuses are the states an expiry sweep may transition from.
var preExpiryStatuses = []domain.ReportStatus{
	domain.ReportStatusPending,
	domain.ReportStatusGenerating,
	domain.ReportStatusCompleted,
	domain.ReportStatusFailed,
}

// reportMutableFields is the allow-list of attributes a partial update may
// touch. Unknown keys in the update map are silently ignored.
var reportMutableFields = map[string]struct{}{
	"subject":        {},
	"status":         {},
	"content":        {},
	"citation_count": {},
	"failure_reason": {},
	"expires_at":     {},
}

// CreateReport inserts a new pending Report row owned by userID. ExpiresAt is
// fixed at creation time and never moves during the normal lifecycle.
func CreateReport(ctx context.Context, db *gorm.DB, userID, subject, country string, ttl time.Duration) (*domain.Report, error) {
	now := time.Now().UTC()
	r := &domain.Report{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		Country:   country,
		Status:    domain.ReportStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetReport fetches a single report by ID and owner. Expired rows are
// excluded unless includeExpired is set: through the read API an expired
// report must be indistinguishable from a nonexistent one even though the row
// still physically exists until the purge sweep removes it.
func GetReport(ctx context.Context, db *gorm.DB, id, userID string, includeExpired bool) (*domain.Report, error) {
	q := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID)
	if !includeExpired {
		q = q.Where("status <> ?", domain.ReportStatusExpired)
	}
	var r domain.Report
	if err := q.First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReportByID fetches a report by primary key regardless of owner or
// status. It is for internal correlation (webhook handling, maintenance),
// never for the user-facing read path.
func GetReportByID(ctx context.Context, db *gorm.DB, id string) (*domain.Report, error) {
	var r domain.Report
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountReports returns the number of non-expired reports owned by userID.
func CountReports(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("user_id = ? AND status <> ?", userID, domain.ReportStatusExpired).
		Count(&total).Error
	return total, err
}

// ListReportsPage returns a paginated slice of the user's non-expired
// reports ordered by creation time descending. The most-recent-first order
// backs the "recent reports" view and must be exact.
func ListReportsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Report, error) {
	var out []domain.Report
	err := db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, domain.ReportStatusExpired).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateReport applies the allow-listed keys from the partial-update map to
// the report identified by id and returns the refreshed row. Unknown keys
// are ignored; a missing report yields ErrNotFound.
func UpdateReport(ctx context.Context, db *gorm.DB, id string, data map[string]any) (*domain.Report, error) {
	if _, err := GetReportByID(ctx, db, id); err != nil {
		return nil, err
	}
	updates := filterAllowed(data, reportMutableFields)
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&domain.Report{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetReportByID(ctx, db, id)
}

// MarkGenerating flips a report from pending to generating. The status guard
// is part of the statement, so a replayed payment event matches zero rows and
// returns ErrNotFound instead of re-triggering work.
func MarkGenerating(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusPending).
		Updates(map[string]any{"status": domain.ReportStatusGenerating, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RetryFailed flips a report from failed back to generating. Used by the
// external retry trigger; any other source status matches nothing.
func RetryFailed(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusFailed).
		Updates(map[string]any{"status": domain.ReportStatusGenerating, "failure_reason": "", "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteReport persists content, the recomputed citation count, and the
// completed status in one statement, guarded on the generating source state
// so content is written exactly once.
func CompleteReport(ctx context.Context, db *gorm.DB, id string, content *domain.ReportContent) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusGenerating).
		Updates(map[string]any{
			"status":         domain.ReportStatusCompleted,
			"content":        content,
			"citation_count": content.TotalCitations(),
			"failure_reason": "",
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FailReport records the failure reason and flips a generating report to
// failed. No partial content is ever persisted on this path.
func FailReport(ctx context.Context, db *gorm.DB, id, reason string) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusGenerating).
		Updates(map[string]any{
			"status":         domain.ReportStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteReport transitions a report to the expired status, removing it
// from the read API without removing the row.
func SoftDeleteReport(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status <> ?", id, domain.ReportStatusExpired).
		Updates(map[string]any{"status": domain.ReportStatusExpired, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDeleteReport permanently removes the row, unconditionally of status.
// There is no recovery path once this has run.
func HardDeleteReport(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreReport brings an expired report back into visibility. Only the
// expired status qualifies; the report returns to completed when it carries
// content and to failed otherwise, with its expiry pushed out to newExpiry.
func RestoreReport(ctx context.Context, db *gorm.DB, id string, newExpiry time.Time) (*domain.Report, error) {
	r, err := GetReportByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReportStatusExpired {
		return nil, ErrNotFound
	}
	target := domain.ReportStatusFailed
	if r.Content != nil {
		target = domain.ReportStatusCompleted
	}
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportStatusExpired).
		Updates(map[string]any{"status": target, "expires_at": newExpiry.UTC(), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetReportByID(ctx, db, id)
}

// ExpireDueReports flips every report whose expiry timestamp has passed and
// whose status is still pre-expiry to expired, returning the number of rows
// affected. The sweep is idempotent: a second consecutive run with nothing
// newly qualifying affects zero rows.
func ExpireDueReports(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("expires_at <= ? AND status IN ?", now.UTC(), preExpiryStatuses).
		Updates(map[string]any{"status": domain.ReportStatusExpired, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// PurgeExpiredReports permanently removes reports that have been expired for
// the retention window, i.e. whose expiry timestamp is at or before cutoff.
// Acting on expires_at rather than the sweep time keeps the purge correct
// regardless of its ordering relative to the expiry sweep.
func PurgeExpiredReports(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.ReportStatusExpired, cutoff.UTC()).
		Delete(&domain.Report{})
	return res.RowsAffected, res.Error
}

// FailStaleGenerating flips reports stuck in generating since before
// threshold to failed with the given reason, returning rows affected.
func FailStaleGenerating(ctx context.Context, db *gorm.DB, threshold time.Time, reason string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Report{}).
		Where("status = ? AND updated_at <= ?", domain.ReportStatusGenerating, threshold.UTC()).
		Updates(map[string]any{
			"status":         domain.ReportStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
