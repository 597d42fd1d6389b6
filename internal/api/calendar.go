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

// ListEvents returns calendar events overlapping the requested range.
// startDate and endDate are RFC 3339 or plain dates; userId narrows to
// one owner.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := store.EventQuery{
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
		UserID:    r.URL.Query().Get("userId"),
	}

	events, err := h.store.ListEvents(r.Context(), q)
	if err != nil {
		slog.Error("event list failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// eventRequest is the event create/update payload.
type eventRequest struct {
	Title        string              `json:"title"`
	Type         string              `json:"type"`
	StartDate    string              `json:"startDate"`
	EndDate      string              `json:"endDate"`
	AllDay       bool                `json:"allDay"`
	Participants []store.Participant `json:"participants"`
	Description  string              `json:"description"`
}

func (req eventRequest) validate() *validation.Collector {
	var c validation.Collector
	c.Add(validation.ValidateRequired("title", req.Title))
	c.Add(validation.ValidateRequired("startDate", req.StartDate))
	c.Add(validation.ValidateRequired("endDate", req.EndDate))
	c.Add(validation.ValidateOneOf("type", req.Type, store.EventTypes))
	c.Add(validation.ValidateMaxLength("title", req.Title, 200))
	if req.StartDate != "" && req.EndDate != "" && req.EndDate < req.StartDate {
		c.Add(&validation.ValidationError{Field: "endDate", Message: "must not precede startDate"})
	}
	return &c
}

func (req eventRequest) toEvent(createdBy string) store.CalendarEvent {
	return store.CalendarEvent{
		Title:        strings.TrimSpace(req.Title),
		Type:         req.Type,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AllDay:       req.AllDay,
		Participants: req.Participants,
		Description:  req.Description,
		CreatedBy:    createdBy,
	}
}

// CreateEvent adds a calendar event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if c := req.validate(); c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid event", c.Errors())
		return
	}

	identity := MustIdentityFromContext(r.Context())
	id, err := h.store.CreateEvent(r.Context(), req.toEvent(identity.Email))
	if err != nil {
		slog.Error("event create failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateEvent replaces an existing calendar event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if c := req.validate(); c.HasErrors() {
		WriteProblemWithErrors(w, r, "Invalid event", c.Errors())
		return
	}

	identity := MustIdentityFromContext(r.Context())
	if err := h.store.UpdateEvent(r.Context(), id, req.toEvent(identity.Email)); err != nil {
		slog.Error("event update failed", "id", id, "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// DeleteEvent removes a calendar event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		slog.Error("event delete failed", "id", id, "error", err)
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
