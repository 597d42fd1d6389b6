package builds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const codemagicAPI = "https://api.codemagic.io"

// BuildArtifact is a produced build artifact (APK, IPA, dSYM, ...).
type BuildArtifact struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// BuildInfo is the normalized projection of one Codemagic build.
type BuildInfo struct {
	ID               string          `json:"id"`
	AppID            string          `json:"appId,omitempty"`
	AppName          string          `json:"appName"`
	Status           string          `json:"status"`
	NormalizedStatus string          `json:"normalizedStatus"`
	Branch           string          `json:"branch"`
	Version          string          `json:"version,omitempty"`
	Workflow         string          `json:"workflow"`
	CommitHash       string          `json:"commitHash,omitempty"`
	CommitMessage    string          `json:"commitMessage,omitempty"`
	Author           string          `json:"author"`
	AuthorAvatar     string          `json:"authorAvatar,omitempty"`
	StartedBy        string          `json:"startedBy,omitempty"`
	InstanceType     string          `json:"instanceType,omitempty"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	StartedAt        string          `json:"startedAt,omitempty"`
	FinishedAt       string          `json:"finishedAt,omitempty"`
	Duration         *int            `json:"duration,omitempty"`
	MainArtifact     *BuildArtifact  `json:"mainArtifact,omitempty"`
	Artifacts        []BuildArtifact `json:"artifacts,omitempty"`
}

// rawBuild decodes the union of the payload variants Codemagic has been
// observed to return; both "artefacts" and "artifacts" spellings occur.
type rawBuild struct {
	ID        string `json:"id"`
	UnderID   string `json:"_id"`
	AppID     string `json:"appId"`
	Status    string `json:"status"`
	Branch    string `json:"branch"`
	Tag       string `json:"tag"`
	Version   string `json:"version"`
	CreatedAt string `json:"createdAt"`

	StartedAt       string `json:"startedAt"`
	StartedAtSnake  string `json:"started_at"`
	FinishedAt      string `json:"finishedAt"`
	FinishedAtSnake string `json:"finished_at"`
	Duration        *int   `json:"duration"`

	WorkflowID     string `json:"workflowId"`
	FileWorkflowID string `json:"fileWorkflowId"`
	WorkflowName   string `json:"workflowName"`
	StartedBy      string `json:"startedBy"`
	InstanceType   string `json:"instanceType"`

	Config *struct {
		Name string `json:"name"`
	} `json:"config"`
	App *struct {
		Name string `json:"name"`
	} `json:"app"`
	AppName string `json:"appName"`

	Commit *struct {
		Hash            string `json:"hash"`
		CommitMessage   string `json:"commitMessage"`
		AuthorName      string `json:"authorName"`
		AuthorAvatarURL string `json:"authorAvatarUrl"`
	} `json:"commit"`

	Artifacts []BuildArtifact `json:"artifacts"`
	Artefacts []BuildArtifact `json:"artefacts"`
}

// CodemagicClient lists builds and enriches them with per-build details.
type CodemagicClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewCodemagicClient creates a client authenticated by API token.
func NewCodemagicClient(token string) *CodemagicClient {
	return &CodemagicClient{
		token:   token,
		baseURL: codemagicAPI,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewCodemagicClientWithBaseURL is the test constructor.
func NewCodemagicClientWithBaseURL(baseURL, token string) *CodemagicClient {
	c := NewCodemagicClient(token)
	c.baseURL = baseURL
	return c
}

// Configured reports whether a token is present.
func (c *CodemagicClient) Configured() bool { return c.token != "" }

// RecentBuilds lists a page of builds and enriches each with its detail
// record (which carries artifacts). A detail fetch failure falls back to
// the summary record rather than dropping the build.
func (c *CodemagicClient) RecentBuilds(ctx context.Context, page, limit int) ([]BuildInfo, error) {
	body, err := c.get(ctx, fmt.Sprintf("/builds?limit=%d&page=%d", limit, page))
	if err != nil {
		return nil, err
	}

	raws := extractBuilds(body)
	builds := make([]BuildInfo, 0, len(raws))
	for _, raw := range raws {
		builds = append(builds, normalizeBuild(c.enrich(ctx, raw)))
	}
	return builds, nil
}

// enrich swaps the summary record for the detail record when available.
func (c *CodemagicClient) enrich(ctx context.Context, summary rawBuild) rawBuild {
	id := summary.buildID()
	if id == "" {
		return summary
	}
	body, err := c.get(ctx, "/builds/"+id)
	if err != nil {
		slog.Error("codemagic build detail fetch failed", "build", id, "error", err)
		return summary
	}

	// Details arrive either bare or wrapped in {"build": {...}}.
	var wrapped struct {
		Build *rawBuild `json:"build"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Build != nil {
		return *wrapped.Build
	}
	var detail rawBuild
	if err := json.Unmarshal(body, &detail); err == nil && detail.buildID() != "" {
		return detail
	}
	return summary
}

// artifactLinkTTL is how long generated public download links stay valid.
const artifactLinkTTL = time.Hour

// PublicURL exchanges an artifact URL for an expiring public download
// link. Codemagic exposes this as POST <artifact url>/public-url, so the
// request goes to the artifact's own host rather than the API base.
func (c *CodemagicClient) PublicURL(ctx context.Context, artifactURL string) (string, error) {
	payload, err := json.Marshal(map[string]int64{
		"expiresAt": time.Now().Add(artifactLinkTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, artifactURL+"/public-url", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-auth-token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("codemagic public url request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("codemagic public url response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("codemagic public url returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode public url: %w", err)
	}
	return out.URL, nil
}

func (c *CodemagicClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-auth-token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("codemagic request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("codemagic response %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codemagic %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// extractBuilds pulls the build list out of whichever envelope the API
// used: {"builds": [...]}, a bare array, or {"applications": [{builds}]}.
// An unrecognized shape yields an empty list, never an error.
func extractBuilds(body []byte) []rawBuild {
	var envelope struct {
		Builds       []rawBuild `json:"builds"`
		Applications []struct {
			Builds []rawBuild `json:"builds"`
		} `json:"applications"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Builds != nil {
			return envelope.Builds
		}
		if envelope.Applications != nil {
			var out []rawBuild
			for _, app := range envelope.Applications {
				out = append(out, app.Builds...)
			}
			return out
		}
	}

	var direct []rawBuild
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct
	}

	slog.Error("unexpected codemagic builds response shape", "body", string(body))
	return nil
}

func (b rawBuild) buildID() string {
	if b.ID != "" {
		return b.ID
	}
	return b.UnderID
}

// normalizeBuild maps a raw build onto the dashboard shape.
func normalizeBuild(b rawBuild) BuildInfo {
	started := coalesce(b.StartedAt, b.StartedAtSnake)
	finished := coalesce(b.FinishedAt, b.FinishedAtSnake)

	out := BuildInfo{
		ID:               b.buildID(),
		AppID:            b.AppID,
		AppName:          coalesce(configName(b), b.WorkflowName, appName(b), b.AppName, "Rally App"),
		Status:           b.Status,
		NormalizedStatus: normalizeStatus(b.Status),
		Branch:           b.Branch,
		Version:          coalesce(b.Tag, b.Version),
		Workflow:         coalesce(b.FileWorkflowID, b.WorkflowID, "default"),
		StartedBy:        b.StartedBy,
		InstanceType:     strings.ReplaceAll(b.InstanceType, "_", " "),
		CreatedAt:        b.CreatedAt,
		StartedAt:        started,
		FinishedAt:       finished,
		Duration:         b.Duration,
		Author:           "System",
	}
	if out.Duration == nil {
		out.Duration = durationSeconds(started, finished)
	}
	if b.Commit != nil {
		out.CommitHash = shortSHA(b.Commit.Hash)
		out.CommitMessage = firstLine(b.Commit.CommitMessage)
		if b.Commit.AuthorName != "" {
			out.Author = b.Commit.AuthorName
		}
		out.AuthorAvatar = b.Commit.AuthorAvatarURL
	}

	artifacts := b.Artifacts
	if artifacts == nil {
		artifacts = b.Artefacts
	}
	out.Artifacts = artifacts
	out.MainArtifact = mobileArtifact(artifacts)
	return out
}

// mobileArtifact picks the APK/IPA out of an artifact list, if any.
func mobileArtifact(artifacts []BuildArtifact) *BuildArtifact {
	for i, a := range artifacts {
		if a.Type == "apk" || a.Type == "ipa" ||
			strings.HasSuffix(a.Name, ".apk") || strings.HasSuffix(a.Name, ".ipa") {
			return &artifacts[i]
		}
	}
	return nil
}

// normalizeStatus folds provider statuses into the fixed dashboard set.
// Codemagic reports success as "finished".
func normalizeStatus(status string) string {
	switch status {
	case "finished":
		return "success"
	case "failed":
		return "failed"
	case "canceled":
		return "canceled"
	case "building", "running":
		return "running"
	case "queued", "preparing":
		return "queued"
	default:
		return "unknown"
	}
}

// durationSeconds computes build duration from timestamps, nil when
// either end is missing or unparseable.
func durationSeconds(startedAt, finishedAt string) *int {
	if startedAt == "" || finishedAt == "" {
		return nil
	}
	start, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil
	}
	end, err := time.Parse(time.RFC3339, finishedAt)
	if err != nil || end.Before(start) {
		return nil
	}
	secs := int(end.Sub(start).Round(time.Second).Seconds())
	return &secs
}

func configName(b rawBuild) string {
	if b.Config == nil {
		return ""
	}
	return b.Config.Name
}

func appName(b rawBuild) string {
	if b.App == nil {
		return ""
	}
	return b.App.Name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
