package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL(srv.URL, "bot@rally-go.com", "token")
}

func TestBulkAvatars_BareArrayResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/user/bulk" {
			t.Errorf("path = %q, want /rest/api/3/user/bulk", r.URL.Path)
		}
		w.Write([]byte(`[
			{"accountId": "a1", "avatarUrls": {"48x48": "https://img/a1-48"}},
			{"accountId": "a2", "avatarUrls": {"32x32": "https://img/a2-32"}}
		]`))
	})

	got, err := client.BulkAvatars(context.Background(), []string{"a1", "a2"})
	if err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}

	if got["a1"] != "https://img/a1-48" {
		t.Errorf("a1 avatar = %q, want 48x48 URL", got["a1"])
	}
	if got["a2"] != "https://img/a2-32" {
		t.Errorf("a2 avatar = %q, want 32x32 fallback", got["a2"])
	}
}

func TestBulkAvatars_ValuesEnvelopeResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values": [{"accountId": "a1", "avatarUrls": {"48x48": "https://img/a1"}}]}`))
	})

	got, err := client.BulkAvatars(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}
	if got["a1"] != "https://img/a1" {
		t.Errorf("a1 avatar = %q, want %q", got["a1"], "https://img/a1")
	}
}

func TestBulkAvatars_UnrecognizedShapeYieldsEmptyMap(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	})

	got, err := client.BulkAvatars(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("avatars = %v, want empty map", got)
	}
}

func TestBulkAvatars_AccountWithoutPhotoAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"accountId": "a1", "avatarUrls": {}}]`))
	})

	got, err := client.BulkAvatars(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}
	if _, ok := got["a1"]; ok {
		t.Error("account without photo should be absent from the map")
	}
}

func TestBulkAvatars_EmptyInputSkipsNetwork(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	got, err := client.BulkAvatars(context.Background(), nil)
	if err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}
	if called {
		t.Error("no request should be made for an empty id list")
	}
	if len(got) != 0 {
		t.Errorf("avatars = %v, want empty map", got)
	}
}

func TestBulkAvatars_RepeatsAccountIDParam(t *testing.T) {
	var query []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()["accountId"]
		w.Write([]byte(`[]`))
	})

	if _, err := client.BulkAvatars(context.Background(), []string{"a1", "a2", "a3"}); err != nil {
		t.Fatalf("BulkAvatars: %v", err)
	}
	if len(query) != 3 {
		t.Errorf("accountId params = %v, want 3 repeated values", query)
	}
}

func TestFindAccountID_ReturnsFirstMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "dev@rally-go.com" {
			t.Errorf("query = %q, want email", got)
		}
		w.Write([]byte(`[{"accountId": "abc123"}, {"accountId": "other"}]`))
	})

	got, err := client.FindAccountID(context.Background(), "dev@rally-go.com")
	if err != nil {
		t.Fatalf("FindAccountID: %v", err)
	}
	if got != "abc123" {
		t.Errorf("accountID = %q, want %q", got, "abc123")
	}
}

func TestFindAccountID_UnknownUserReturnsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	got, err := client.FindAccountID(context.Background(), "ghost@rally-go.com")
	if err != nil {
		t.Fatalf("FindAccountID: %v", err)
	}
	if got != "" {
		t.Errorf("accountID = %q, want empty", got)
	}
}

func TestClient_NonOKStatusReturnsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessages": ["bad token"]}`))
	})

	_, err := client.Fields(context.Background())
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", statusErr.Status)
	}
	if statusErr.Body == "" {
		t.Error("body should be retained for diagnosis")
	}
}
