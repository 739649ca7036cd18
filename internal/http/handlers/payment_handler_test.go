package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

func TestListPayments(t *testing.T) {
	r := newTestRouter(testDeps{
		pay: &stubPayments{
			payments: []domain.Payment{{ID: uuid.NewString(), Status: domain.PaymentStatusSucceeded}},
			total:    1,
		},
	})

	w := doJSON(r, http.MethodGet, "/payments", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListPaymentsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Payments) != 1 || resp.Pagination.Total != 1 || resp.Pagination.HasNext {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGetMe(t *testing.T) {
	u := &domain.User{ID: "u1", ExternalID: "auth0|u1", Email: "u1@example.com"}
	r := newTestRouter(testDeps{users: &stubUsers{user: u}})

	w := doJSON(r, http.MethodGet, "/users/me", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.ID != "u1" {
		t.Fatalf("body = %s, err = %v", w.Body.String(), err)
	}

	r = newTestRouter(testDeps{users: &stubUsers{err: services.ErrUserNotFound}})
	if w := doJSON(r, http.MethodGet, "/users/me", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", w.Code)
	}
}

func TestDeleteMe(t *testing.T) {
	r := newTestRouter(testDeps{users: &stubUsers{}})
	if w := doJSON(r, http.MethodDelete, "/users/me", nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	r = newTestRouter(testDeps{users: &stubUsers{deleteErr: services.ErrUserNotFound}})
	if w := doJSON(r, http.MethodDelete, "/users/me", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing: status = %d", w.Code)
	}
}
