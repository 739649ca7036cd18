package services

import (
	"context"
	"errors"
	"testing"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

func TestUserGet(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "u1")
	svc := &UserService{DB: db}

	u, err := svc.Get(context.Background(), "u1")
	if err != nil || u.ID != "u1" {
		t.Fatalf("Get = %+v, %v", u, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: want ErrUserNotFound, got %v", err)
	}
}

func TestUserDelete_CascadesAndIsFinal(t *testing.T) {
	db := newServiceDB(t)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	seedServiceUser(t, db, "u1")

	reports := newTestReportService(db, &fakeGenerator{content: serviceContent()})
	r, _ := reports.Create(context.Background(), "u1", "Physics", "")

	svc := &UserService{DB: db}
	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int64
	db.Model(&domain.Report{}).Where("id = ?", r.ID).Count(&count)
	if count != 0 {
		t.Fatalf("report survived user deletion")
	}
	if err := svc.Delete(context.Background(), "u1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: want ErrUserNotFound, got %v", err)
	}
}
