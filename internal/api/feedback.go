package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rallyhq/huddle/internal/store"
	"github.com/rallyhq/huddle/internal/validation"
)

const (
	defaultFeedbackPageSize = 10
	maxFeedbackPageSize     = 50
	maxCommentLength        = 2000
)

// ListFeedback returns a page of feedback entries with totals.
// Filters: username, categories (comma-separated).
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := store.FeedbackQuery{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", defaultFeedbackPageSize),
		Username: r.URL.Query().Get("username"),
	}
	if raw := r.URL.Query().Get("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				q.Categories = append(q.Categories, cat)
			}
		}
	}
	if q.PageSize > maxFeedbackPageSize {
		q.PageSize = maxFeedbackPageSize
	}
	for _, cat := range q.Categories {
		if !store.ValidFeedbackCategory(cat) {
			WriteProblem(w, r, http.StatusBadRequest, "Invalid category: "+cat)
			return
		}
	}

	list, err := h.store.ListFeedback(r.Context(), q)
	if err != nil {
		slog.Error("feedback list failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// createFeedbackRequest is the feedback creation payload.
type createFeedbackRequest struct {
	Comment    string   `json:"comment"`
	ImageURL   string   `json:"image_url"`
	Categories []string `json:"categories"`
}

// CreateFeedback records a feedback entry attributed to the signed-in user.
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("comment", req.Comment))
	c.Add(validation.ValidateMaxLength("comment", req.Comment, maxCommentLength))
	c.Add(validation.ValidateUTF8("comment", req.Comment))
	for _, cat := range req.Categories {
		c.Add(validation.ValidateOneOf("categories", cat, store.FeedbackCategories))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid feedback", c.Errors())
		return
	}

	identity := MustIdentityFromContext(r.Context())
	f := store.Feedback{
		Username:   identity.Name,
		Comment:    strings.TrimSpace(req.Comment),
		AvatarURL:  identity.Image,
		ImageURL:   req.ImageURL,
		Categories: req.Categories,
	}

	id, err := h.store.CreateFeedback(r.Context(), f)
	if err != nil {
		slog.Error("feedback create failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// resolveFeedbackRequest is the resolution toggle payload.
type resolveFeedbackRequest struct {
	Resolved bool `json:"resolved"`
}

// ResolveFeedback marks a feedback entry resolved or unresolved.
func (h *Handler) ResolveFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req resolveFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.store.SetFeedbackResolved(r.Context(), id, req.Resolved); err != nil {
		slog.Error("feedback resolve failed", "id", id, "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "resolved": req.Resolved})
}
