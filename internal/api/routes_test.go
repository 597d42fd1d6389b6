package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rallyhq/huddle/internal/grooming"
	"github.com/rallyhq/huddle/internal/jira"
)

// withURLParam injects a chi route parameter for direct handler calls.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newTestRouter(h *Handler) http.Handler {
	return NewRouter(h, RouterConfig{
		SessionSecret: testSecret,
		ManagerEmails: []string{"lead@rally-go.com"},
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := newTestRouter(newTestHandler(&mockStore{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without a session", w.Code)
	}
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	router := newTestRouter(newTestHandler(&mockStore{}))

	paths := []string{
		"/api/v1/kudos",
		"/api/v1/bounties",
		"/api/v1/calendar/events",
		"/api/v1/feedback",
		"/api/v1/jira/sprint",
		"/api/v1/builds/github",
		"/api/v1/users",
		"/api/v1/grooming",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401 without a session", path, w.Code)
		}
	}
}

func TestRouter_GroomingRequiresManager(t *testing.T) {
	h := newTestHandler(&mockStore{})
	h.grooming = &mockGrooming{report: &grooming.Report{
		Tickets: []jira.TicketSummary{},
		Pages:   []grooming.UnlabeledPage{},
	}}
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grooming", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "dev@rally-go.com"))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for non-manager", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/grooming", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "lead@rally-go.com"))
	w = httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for manager: %s", w.Code, w.Body.String())
	}
}

func TestRouter_SessionGrantsSocialRoutes(t *testing.T) {
	router := newTestRouter(newTestHandler(&mockStore{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kudos", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "dev@rally-go.com"))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with a valid session", w.Code)
	}
}
