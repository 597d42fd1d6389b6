package builds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractBuilds_BuildsEnvelope(t *testing.T) {
	got := extractBuilds([]byte(`{"builds": [{"id": "b1"}, {"id": "b2"}]}`))

	if len(got) != 2 || got[0].ID != "b1" {
		t.Errorf("extractBuilds = %+v", got)
	}
}

func TestExtractBuilds_BareArray(t *testing.T) {
	got := extractBuilds([]byte(`[{"_id": "b1"}]`))

	if len(got) != 1 || got[0].buildID() != "b1" {
		t.Errorf("extractBuilds = %+v", got)
	}
}

func TestExtractBuilds_ApplicationsEnvelope(t *testing.T) {
	got := extractBuilds([]byte(`{"applications": [
		{"builds": [{"id": "b1"}]},
		{"builds": [{"id": "b2"}]}
	]}`))

	if len(got) != 2 || got[1].ID != "b2" {
		t.Errorf("extractBuilds = %+v", got)
	}
}

func TestExtractBuilds_UnknownShapeIsEmpty(t *testing.T) {
	if got := extractBuilds([]byte(`{"surprise": 1}`)); len(got) != 0 {
		t.Errorf("extractBuilds = %+v, want empty", got)
	}
}

func TestNormalizeStatus_FoldsProviderStatuses(t *testing.T) {
	cases := map[string]string{
		"finished":  "success",
		"failed":    "failed",
		"canceled":  "canceled",
		"building":  "running",
		"running":   "running",
		"queued":    "queued",
		"preparing": "queued",
		"weird":     "unknown",
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Errorf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMobileArtifact_PrefersInstallable(t *testing.T) {
	artifacts := []BuildArtifact{
		{Name: "mapping.txt", Type: "txt"},
		{Name: "app-release.apk", Type: "apk"},
		{Name: "symbols.dSYM.zip"},
	}

	got := mobileArtifact(artifacts)
	if got == nil || got.Name != "app-release.apk" {
		t.Errorf("mobileArtifact = %+v, want the apk", got)
	}
}

func TestMobileArtifact_MatchesByNameSuffix(t *testing.T) {
	artifacts := []BuildArtifact{{Name: "Runner.ipa"}}

	if got := mobileArtifact(artifacts); got == nil || got.Name != "Runner.ipa" {
		t.Errorf("mobileArtifact = %+v", got)
	}
	if got := mobileArtifact(nil); got != nil {
		t.Errorf("mobileArtifact(nil) = %+v, want nil", got)
	}
}

func TestNormalizeBuild_SnakeCaseTimestampsAndDuration(t *testing.T) {
	got := normalizeBuild(rawBuild{
		UnderID:         "b1",
		Status:          "finished",
		StartedAtSnake:  "2026-04-01T10:00:00Z",
		FinishedAtSnake: "2026-04-01T10:05:30Z",
	})

	if got.ID != "b1" {
		t.Errorf("id = %q", got.ID)
	}
	if got.NormalizedStatus != "success" {
		t.Errorf("normalizedStatus = %q", got.NormalizedStatus)
	}
	if got.Duration == nil || *got.Duration != 330 {
		t.Errorf("duration = %v, want 330s", got.Duration)
	}
	if got.AppName != "Rally App" {
		t.Errorf("appName = %q, want fallback", got.AppName)
	}
	if got.Author != "System" {
		t.Errorf("author = %q, want fallback", got.Author)
	}
}

func TestNormalizeBuild_ArtefactsSpelling(t *testing.T) {
	got := normalizeBuild(rawBuild{
		ID:        "b1",
		Artefacts: []BuildArtifact{{Name: "app.apk", Type: "apk"}},
	})

	if len(got.Artifacts) != 1 {
		t.Fatalf("artifacts = %+v", got.Artifacts)
	}
	if got.MainArtifact == nil || got.MainArtifact.Name != "app.apk" {
		t.Errorf("mainArtifact = %+v", got.MainArtifact)
	}
}

func TestNormalizeBuild_CommitProjection(t *testing.T) {
	raw := rawBuild{ID: "b1"}
	raw.Commit = &struct {
		Hash            string `json:"hash"`
		CommitMessage   string `json:"commitMessage"`
		AuthorName      string `json:"authorName"`
		AuthorAvatarURL string `json:"authorAvatarUrl"`
	}{
		Hash:          "0123456789abcdef",
		CommitMessage: "Add deep links\n\nLong body here",
		AuthorName:    "Alice Dev",
	}

	got := normalizeBuild(raw)

	if got.CommitHash != "0123456" {
		t.Errorf("commitHash = %q", got.CommitHash)
	}
	if got.CommitMessage != "Add deep links" {
		t.Errorf("commitMessage = %q, want first line", got.CommitMessage)
	}
	if got.Author != "Alice Dev" {
		t.Errorf("author = %q", got.Author)
	}
}

func TestRecentBuilds_EnrichesFromDetailEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-auth-token"); got != "cm-token" {
			t.Errorf("auth header = %q", got)
		}
		if strings.HasPrefix(r.URL.Path, "/builds/") {
			w.Write([]byte(`{"build": {"id": "b1", "status": "finished", "artefacts": [{"name": "app.apk", "type": "apk"}]}}`))
			return
		}
		w.Write([]byte(`{"builds": [{"id": "b1", "status": "building"}]}`))
	}))
	defer srv.Close()

	client := NewCodemagicClientWithBaseURL(srv.URL, "cm-token")
	got, err := client.RecentBuilds(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("RecentBuilds: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("builds = %d, want 1", len(got))
	}
	if got[0].Status != "finished" {
		t.Errorf("status = %q, detail record should win", got[0].Status)
	}
	if got[0].MainArtifact == nil || got[0].MainArtifact.Name != "app.apk" {
		t.Errorf("mainArtifact = %+v", got[0].MainArtifact)
	}
}

func TestRecentBuilds_DetailFailureFallsBackToSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/builds/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"builds": [{"id": "b1", "status": "building", "branch": "main"}]}`))
	}))
	defer srv.Close()

	client := NewCodemagicClientWithBaseURL(srv.URL, "cm-token")
	got, err := client.RecentBuilds(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("RecentBuilds: %v", err)
	}

	if len(got) != 1 || got[0].Branch != "main" || got[0].NormalizedStatus != "running" {
		t.Errorf("builds = %+v, want the summary record", got)
	}
}

func TestRecentBuilds_ListFailureFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewCodemagicClientWithBaseURL(srv.URL, "bad-token")
	if _, err := client.RecentBuilds(context.Background(), 1, 10); err == nil {
		t.Fatal("expected error for 401 list response")
	}
}

func TestPublicURL_PostsToArtifactHost(t *testing.T) {
	var gotPath, gotToken, gotContentType string
	var gotBody struct {
		ExpiresAt int64 `json:"expiresAt"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("x-auth-token")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(`{"url": "https://api.codemagic.io/artifacts/signed/app.apk"}`))
	}))
	defer srv.Close()

	client := NewCodemagicClient("cm-token")
	link, err := client.PublicURL(context.Background(), srv.URL+"/artifacts/app.apk")
	if err != nil {
		t.Fatalf("PublicURL: %v", err)
	}

	if link != "https://api.codemagic.io/artifacts/signed/app.apk" {
		t.Errorf("link = %q", link)
	}
	if gotPath != "/artifacts/app.apk/public-url" {
		t.Errorf("path = %q, want /artifacts/app.apk/public-url", gotPath)
	}
	if gotToken != "cm-token" || gotContentType != "application/json" {
		t.Errorf("headers = %q / %q", gotToken, gotContentType)
	}
	now := time.Now().Unix()
	if gotBody.ExpiresAt < now || gotBody.ExpiresAt > now+int64(artifactLinkTTL.Seconds())+5 {
		t.Errorf("expiresAt = %d, want roughly one hour out", gotBody.ExpiresAt)
	}
}

func TestPublicURL_NonOKFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewCodemagicClient("cm-token")
	if _, err := client.PublicURL(context.Background(), srv.URL+"/artifacts/app.apk"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
