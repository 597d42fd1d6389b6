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
	defaultKudosLimit = 20
	maxKudosLimit     = 50
	maxMessageLength  = 500
)

// ListKudos returns a page of the appreciation feed, newest first.
// Cursor pagination: pass nextCursor from the previous page as before.
func (h *Handler) ListKudos(w http.ResponseWriter, r *http.Request) {
	q := store.KudosQuery{
		Limit:    queryInt(r, "limit", defaultKudosLimit),
		Before:   r.URL.Query().Get("before"),
		ToUserID: r.URL.Query().Get("toUserId"),
	}
	if q.Limit > maxKudosLimit {
		q.Limit = maxKudosLimit
	}

	page, err := h.store.ListKudos(r.Context(), q)
	if err != nil {
		slog.Error("kudos list failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// createKudosRequest is the kudos creation payload.
type createKudosRequest struct {
	ToUserID    string `json:"toUserId"`
	ToUserName  string `json:"toUserName"`
	ToUserImage string `json:"toUserImage"`
	Message     string `json:"message"`
}

// CreateKudos posts a new kudos from the signed-in user.
func (h *Handler) CreateKudos(w http.ResponseWriter, r *http.Request) {
	var req createKudosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("toUserId", req.ToUserID))
	c.Add(validation.ValidateRequired("toUserName", req.ToUserName))
	c.Add(validation.ValidateRequired("message", req.Message))
	c.Add(validation.ValidateMaxLength("message", req.Message, maxMessageLength))
	c.Add(validation.ValidateUTF8("message", req.Message))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid kudos", c.Errors())
		return
	}

	identity := MustIdentityFromContext(r.Context())
	k := store.Kudos{
		FromUserID:    identity.Email,
		FromUserName:  identity.Name,
		FromUserImage: identity.Image,
		ToUserID:      req.ToUserID,
		ToUserName:    req.ToUserName,
		ToUserImage:   req.ToUserImage,
		Message:       strings.TrimSpace(req.Message),
	}

	id, err := h.store.CreateKudos(r.Context(), k)
	if err != nil {
		slog.Error("kudos create failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListBounties returns the bounty board, optionally filtered by status.
func (h *Handler) ListBounties(w http.ResponseWriter, r *http.Request) {
	q := store.BountyQuery{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50),
	}
	if q.Status != "" && !store.ValidBountyStatus(q.Status) {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid status filter: "+q.Status)
		return
	}

	bounties, err := h.store.ListBounties(r.Context(), q)
	if err != nil {
		slog.Error("bounty list failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bounties": bounties})
}

// createBountyRequest is the bounty creation payload.
type createBountyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	JiraKey     string `json:"jiraKey"`
}

// CreateBounty posts a new open bounty owned by the signed-in user.
func (h *Handler) CreateBounty(w http.ResponseWriter, r *http.Request) {
	var req createBountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("title", req.Title))
	c.Add(validation.ValidateRequired("reward", req.Reward))
	c.Add(validation.ValidateMaxLength("title", req.Title, 200))
	c.Add(validation.ValidateMaxLength("description", req.Description, 2000))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid bounty", c.Errors())
		return
	}

	identity := MustIdentityFromContext(r.Context())
	b := store.Bounty{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Reward:      req.Reward,
		JiraKey:     req.JiraKey,
		CreatedBy: store.UserStamp{
			UserID: identity.Email,
			Name:   identity.Name,
			Image:  identity.Image,
		},
	}

	id, err := h.store.CreateBounty(r.Context(), b)
	if err != nil {
		slog.Error("bounty create failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// updateBountyRequest is the bounty status transition payload.
type updateBountyRequest struct {
	Status string `json:"status"`
}

// UpdateBounty transitions a bounty through its lifecycle. Claiming
// records the signed-in user as claimant; reopening clears it.
func (h *Handler) UpdateBounty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateBountyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !store.ValidBountyStatus(req.Status) {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid status: "+req.Status)
		return
	}

	var claimant *store.UserStamp
	if req.Status == "claimed" {
		identity := MustIdentityFromContext(r.Context())
		claimant = &store.UserStamp{
			UserID: identity.Email,
			Name:   identity.Name,
			Image:  identity.Image,
		}
	}

	if err := h.store.UpdateBountyStatus(r.Context(), id, req.Status, claimant); err != nil {
		slog.Error("bounty update failed", "id", id, "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}
