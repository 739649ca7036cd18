package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/unipath-labs/go-abroad-backend/internal/services"
)

func TestHealth_OK(t *testing.T) {
	r := newTestRouter(testDeps{health: &stubHealth{report: services.HealthReport{
		Healthy:  true,
		Services: map[string]string{"database": services.ProbeUp},
	}}})

	w := doJSON(r, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rep services.HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil || !rep.Healthy {
		t.Fatalf("body = %s, err = %v", w.Body.String(), err)
	}
}

func TestHealth_Degraded(t *testing.T) {
	r := newTestRouter(testDeps{health: &stubHealth{report: services.HealthReport{
		Healthy:  false,
		Services: map[string]string{"database": services.ProbeDown},
	}}})

	w := doJSON(r, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var rep services.HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil || rep.Healthy {
		t.Fatalf("body must carry the degraded report: %s", w.Body.String())
	}
}
