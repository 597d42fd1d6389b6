package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestGraph starts a fake login + graph server pair sharing one mux.
func newTestGraph(t *testing.T, graph http.HandlerFunc) *GraphClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		w.Write([]byte(`{"access_token": "app-token"}`))
	})
	mux.HandleFunc("/", graph)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewGraphClientWithBaseURLs(srv.URL, srv.URL, "client", "secret", "tenant-1")
}

func TestMembers_ProjectsGraphUsers(t *testing.T) {
	client := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer app-token" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(`{"value": [
			{"id": "u1", "displayName": "Alice Dev", "mail": "alice@rally-go.com", "jobTitle": "Senior Engineer"},
			{"id": "u2", "displayName": "Bob Design", "mail": "", "userPrincipalName": "bob@rally-go.com"}
		]}`))
	})

	got, err := client.Members(context.Background())
	if err != nil {
		t.Fatalf("Members: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("members = %d, want 2", len(got))
	}
	if got[0].Email != "alice@rally-go.com" || got[0].JobTitle != "Senior Engineer" {
		t.Errorf("member = %+v", got[0])
	}
	if got[1].Email != "bob@rally-go.com" {
		t.Errorf("email = %q, want userPrincipalName fallback", got[1].Email)
	}
}

func TestMembers_ForbiddenFallsBackToMockRoster(t *testing.T) {
	client := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": "Authorization_RequestDenied"}}`))
	})

	got, err := client.Members(context.Background())
	if err != nil {
		t.Fatalf("Members should degrade, got error %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("members = %d, want the mock roster", len(got))
	}
	if !strings.HasPrefix(got[0].ID, "mock-") {
		t.Errorf("member id = %q, want mock entries", got[0].ID)
	}
}

func TestMembers_OtherErrorsFail(t *testing.T) {
	client := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Members(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestAvatar_ReturnsPhotoBytes(t *testing.T) {
	client := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/photo/$value") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	})

	got, err := client.Avatar(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}

	if got.ContentType != "image/png" || string(got.Data) != "png-bytes" {
		t.Errorf("photo = %+v", got)
	}
}

func TestAvatar_MissingPhotoReturnsErrNoPhoto(t *testing.T) {
	client := newTestGraph(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Avatar(context.Background(), "u1")
	if !errors.Is(err, ErrNoPhoto) {
		t.Errorf("err = %v, want ErrNoPhoto", err)
	}
}
