package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rallyhq/huddle/internal/builds"
	"github.com/rallyhq/huddle/internal/directory"
	"github.com/rallyhq/huddle/internal/grooming"
	"github.com/rallyhq/huddle/internal/inbox"
	"github.com/rallyhq/huddle/internal/jira"
	"github.com/rallyhq/huddle/internal/store"
)

// GroomingService builds the manager grooming report.
type GroomingService interface {
	Report(ctx context.Context) (*grooming.Report, error)
}

// InboxService builds the needs-reply feed.
type InboxService interface {
	Items(ctx context.Context, email string) ([]inbox.Item, error)
}

// JiraFeeds is the slice of the Jira client the feed handlers use.
type JiraFeeds interface {
	SprintProgress(ctx context.Context, boardID string) (*jira.SprintProgress, error)
	Releases(ctx context.Context, projectKey string) ([]jira.Release, error)
	Search(ctx context.Context, req jira.SearchRequest) ([]jira.Issue, error)
	BrowseURL(key string) string
}

// GitHubBuilds polls workflow runs across the configured repositories.
type GitHubBuilds interface {
	Configured() bool
	RecentRuns(ctx context.Context) []builds.RepoBuilds
}

// CodemagicBuilds lists CI builds with artifact details.
type CodemagicBuilds interface {
	Configured() bool
	RecentBuilds(ctx context.Context, page, limit int) ([]builds.BuildInfo, error)
	PublicURL(ctx context.Context, artifactURL string) (string, error)
}

// Directory lists team members and serves their photos.
type Directory interface {
	Members(ctx context.Context) ([]directory.Member, error)
	Avatar(ctx context.Context, userID string) (*directory.Photo, error)
}

// Handler implements the API handlers. Collaborators for unconfigured
// providers are nil; their handlers answer 500 with a descriptive
// message before any network call.
type Handler struct {
	store      store.Store
	grooming   GroomingService
	inbox      InboxService
	jira       JiraFeeds
	github     GitHubBuilds
	codemagic  CodemagicBuilds
	directory  Directory
	projectKey string
	boards     map[string]string
	version    string
}

// HandlerConfig wires a Handler; nil fields mark unconfigured providers.
type HandlerConfig struct {
	Store      store.Store
	Grooming   GroomingService
	Inbox      InboxService
	Jira       JiraFeeds
	GitHub     GitHubBuilds
	Codemagic  CodemagicBuilds
	Directory  Directory
	ProjectKey string
	// Boards maps board aliases ("delivery", "operation") to board ids.
	Boards  map[string]string
	Version string
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		store:      cfg.Store,
		grooming:   cfg.Grooming,
		inbox:      cfg.Inbox,
		jira:       cfg.Jira,
		github:     cfg.GitHub,
		codemagic:  cfg.Codemagic,
		directory:  cfg.Directory,
		projectKey: cfg.ProjectKey,
		boards:     cfg.Boards,
		version:    cfg.Version,
	}
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   string `json:"store"`
}

// Health returns the health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Version: h.version, Store: "ok"}
	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = "unreachable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
