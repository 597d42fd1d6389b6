package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rallyhq/huddle/internal/directory"
)

// ListUsers returns the team roster from the identity directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Directory credentials are not configured")
		return
	}

	members, err := h.directory.Members(r.Context())
	if err != nil {
		slog.Error("directory list failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": members})
}

// GetUserAvatar proxies a member's profile photo. 404 when the member has
// no photo set.
func (h *Handler) GetUserAvatar(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Directory credentials are not configured")
		return
	}

	userID := chi.URLParam(r, "id")
	photo, err := h.directory.Avatar(r.Context(), userID)
	if err != nil {
		if errors.Is(err, directory.ErrNoPhoto) {
			WriteProblem(w, r, http.StatusNotFound, "No profile photo")
			return
		}
		slog.Error("photo fetch failed", "userId", userID, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch photo")
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(photo.Data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}
