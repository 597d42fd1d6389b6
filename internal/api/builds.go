package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// GetGitHubBuilds returns recent workflow runs per configured repository.
// Per-repo failures are flagged inline so one broken repo never blanks
// the whole board.
func (h *Handler) GetGitHubBuilds(w http.ResponseWriter, r *http.Request) {
	if h.github == nil || !h.github.Configured() {
		WriteProblem(w, r, http.StatusInternalServerError, "GitHub credentials are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repos": h.github.RecentRuns(r.Context())})
}

// GetCodemagicBuilds returns recent mobile CI builds with artifact links.
func (h *Handler) GetCodemagicBuilds(w http.ResponseWriter, r *http.Request) {
	if h.codemagic == nil || !h.codemagic.Configured() {
		WriteProblem(w, r, http.StatusInternalServerError, "Codemagic credentials are not configured")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if limit > 50 {
		limit = 50
	}

	list, err := h.codemagic.RecentBuilds(r.Context(), page, limit)
	if err != nil {
		slog.Error("codemagic build fetch failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch builds")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"builds": list})
}

// publicURLRequest is the artifact link payload.
type publicURLRequest struct {
	ArtifactURL string `json:"artifactUrl"`
}

// CreateArtifactPublicURL exchanges a build artifact URL for an expiring
// public download link.
func (h *Handler) CreateArtifactPublicURL(w http.ResponseWriter, r *http.Request) {
	if h.codemagic == nil || !h.codemagic.Configured() {
		WriteProblem(w, r, http.StatusInternalServerError, "Codemagic credentials are not configured")
		return
	}

	var req publicURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ArtifactURL) == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Missing artifactUrl")
		return
	}

	link, err := h.codemagic.PublicURL(r.Context(), req.ArtifactURL)
	if err != nil {
		slog.Error("artifact public url failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to generate public URL")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
