package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

func newPaymentRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("payment_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.Payment{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreatePayment_PendingAndLookupByIntent(t *testing.T) {
	db := newPaymentRepoDB(t)
	seedUser(t, db, "u1")

	p, err := CreatePayment(context.Background(), db, "u1", "pi_123", "cs_456", 2999, "gbp")
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if p.Status != domain.PaymentStatusPending || p.AmountCents != 2999 || p.Currency != "gbp" {
		t.Fatalf("unexpected payment: %+v", p)
	}

	got, err := GetPaymentByIntentID(context.Background(), db, "pi_123")
	if err != nil {
		t.Fatalf("GetPaymentByIntentID: %v", err)
	}
	if got.ID != p.ID || got.CheckoutSessionID != "cs_456" {
		t.Fatalf("lookup mismatch: %+v", got)
	}

	if _, err := GetPaymentByIntentID(context.Background(), db, "pi_other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown intent: want ErrNotFound, got %v", err)
	}
}

func TestCreatePayment_DuplicateIntentRejected(t *testing.T) {
	db := newPaymentRepoDB(t)
	seedUser(t, db, "u1")

	if _, err := CreatePayment(context.Background(), db, "u1", "pi_dup", "", 100, "gbp"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreatePayment(context.Background(), db, "u1", "pi_dup", "", 100, "gbp"); err == nil {
		t.Fatalf("expected unique-constraint error on duplicate intent id")
	}
}

func TestUpdatePayment_AllowListOnly(t *testing.T) {
	db := newPaymentRepoDB(t)
	seedUser(t, db, "u1")

	p, _ := CreatePayment(context.Background(), db, "u1", "pi_upd", "", 500, "gbp")

	now := time.Now().UTC()
	got, err := UpdatePayment(context.Background(), db, p.ID, map[string]any{
		"status":       domain.PaymentStatusSucceeded,
		"refunded_at":  &now,
		"amount_cents": int64(1), // not in allow-list; must be ignored
		"user_id":      "u2",     // not in allow-list; must be ignored
	})
	if err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if got.Status != domain.PaymentStatusSucceeded {
		t.Fatalf("status = %s, want succeeded", got.Status)
	}
	if got.AmountCents != 500 || got.UserID != "u1" {
		t.Fatalf("immutable fields mutated: %+v", got)
	}
}

func TestPaymentDeletes_AuditTrailIsImmutable(t *testing.T) {
	db := newPaymentRepoDB(t)
	seedUser(t, db, "u1")

	p, _ := CreatePayment(context.Background(), db, "u1", "pi_keep", "", 100, "gbp")

	if err := SoftDeletePayment(context.Background(), db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SoftDeletePayment: want ErrNotFound, got %v", err)
	}
	if err := HardDeletePayment(context.Background(), db, p.ID); !errors.Is(err, ErrPaymentImmutable) {
		t.Fatalf("HardDeletePayment: want ErrPaymentImmutable, got %v", err)
	}
	if err := RestorePayment(context.Background(), db, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RestorePayment: want ErrNotFound, got %v", err)
	}

	// The row must be untouched by all three.
	if _, err := GetPayment(context.Background(), db, p.ID); err != nil {
		t.Fatalf("payment should survive delete attempts: %v", err)
	}
}

func TestListPaymentsPage_NewestFirst(t *testing.T) {
	db := newPaymentRepoDB(t)
	seedUser(t, db, "u1")

	t1 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	rows := []domain.Payment{
		{ID: "p1", UserID: "u1", IntentID: "pi_1", AmountCents: 100, Currency: "gbp", Status: domain.PaymentStatusSucceeded, CreatedAt: t1},
		{ID: "p2", UserID: "u1", IntentID: "pi_2", AmountCents: 100, Currency: "gbp", Status: domain.PaymentStatusPending, CreatedAt: t1.Add(time.Hour)},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountPayments(context.Background(), db, "u1")
	if err != nil || total != 2 {
		t.Fatalf("CountPayments = %d, %v; want 2", total, err)
	}
	list, err := ListPaymentsPage(context.Background(), db, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListPaymentsPage: %v", err)
	}
	if len(list) != 2 || list[0].ID != "p2" || list[1].ID != "p1" {
		t.Fatalf("unexpected order: %+v", list)
	}
}
