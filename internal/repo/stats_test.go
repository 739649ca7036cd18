package repo

import (
	"context"
	"testing"
	"time"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

func TestReportsStats_EmptyAndVisibleOnly(t *testing.T) {
	db := newReportRepoDB(t)
	seedUser(t, db, "u1")

	count, maxTS, err := ReportsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ReportsStats empty: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("empty stats = (%d, %v), want (0, nil)", count, maxTS)
	}

	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)
	rows := []domain.Report{
		{ID: "s1", UserID: "u1", Subject: "A", Country: "UK", Status: domain.ReportStatusCompleted, CreatedAt: t1, ExpiresAt: t1.Add(time.Hour), UpdatedAt: t1},
		{ID: "s2", UserID: "u1", Subject: "B", Country: "UK", Status: domain.ReportStatusPending, CreatedAt: t2, ExpiresAt: t2.Add(time.Hour), UpdatedAt: t2},
		{ID: "s3", UserID: "u1", Subject: "C", Country: "UK", Status: domain.ReportStatusExpired, CreatedAt: t2, ExpiresAt: t2.Add(time.Hour), UpdatedAt: t2.Add(time.Hour)},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// Pin UpdatedAt values GORM touched on insert.
	for _, r := range rows {
		if err := db.Model(&domain.Report{}).Where("id = ?", r.ID).UpdateColumn("updated_at", r.UpdatedAt).Error; err != nil {
			t.Fatalf("pin updated_at: %v", err)
		}
	}

	count, maxTS, err = ReportsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ReportsStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (expired excluded)", count)
	}
	if maxTS == nil || !maxTS.Equal(t2) {
		t.Fatalf("maxUpdatedAt = %v, want %v", maxTS, t2)
	}
}
