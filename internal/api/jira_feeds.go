package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rallyhq/huddle/internal/jira"
)

const jiraUnconfiguredMsg = "Jira credentials are not configured"

// GetSprintProgress returns the active sprint summary for the requested
// board. board=delivery|operation, defaulting to delivery.
func (h *Handler) GetSprintProgress(w http.ResponseWriter, r *http.Request) {
	if h.jira == nil {
		WriteProblem(w, r, http.StatusInternalServerError, jiraUnconfiguredMsg)
		return
	}

	alias := r.URL.Query().Get("board")
	if alias == "" {
		alias = "delivery"
	}
	boardID, ok := h.boards[alias]
	if !ok {
		WriteProblem(w, r, http.StatusBadRequest, "Unknown board: "+alias)
		return
	}

	progress, err := h.jira.SprintProgress(r.Context(), boardID)
	if err != nil {
		slog.Error("sprint progress failed", "board", alias, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch sprint data")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// dueTicket is the due-soon feed projection.
type dueTicket struct {
	ID       string      `json:"id"`
	Key      string      `json:"key"`
	Summary  string      `json:"summary"`
	Status   string      `json:"status"`
	Priority string      `json:"priority"`
	DueDate  string      `json:"dueDate"`
	Assignee jira.Person `json:"assignee"`
	URL      string      `json:"url"`
}

// GetDueSoon returns open tickets due within the next week, soonest first.
func (h *Handler) GetDueSoon(w http.ResponseWriter, r *http.Request) {
	if h.jira == nil {
		WriteProblem(w, r, http.StatusInternalServerError, jiraUnconfiguredMsg)
		return
	}

	issues, err := h.jira.Search(r.Context(), jira.SearchRequest{
		JQL:        jira.DueSoonQuery(h.projectKey),
		MaxResults: 10,
		Fields:     []string{"summary", "status", "priority", "duedate", "assignee"},
	})
	if err != nil {
		slog.Error("due-soon search failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch due tickets")
		return
	}

	tickets := make([]dueTicket, 0, len(issues))
	for _, issue := range issues {
		t := dueTicket{
			ID:      issue.ID,
			Key:     issue.Key,
			Summary: issue.Fields.Summary,
			DueDate: issue.Fields.DueDate,
			URL:     h.jira.BrowseURL(issue.Key),
			Assignee: jira.Person{
				DisplayName: "Unassigned",
			},
		}
		if issue.Fields.Status != nil {
			t.Status = issue.Fields.Status.Name
		}
		if issue.Fields.Priority != nil {
			t.Priority = issue.Fields.Priority.Name
		}
		if a := issue.Fields.Assignee; a != nil {
			if a.DisplayName != "" {
				t.Assignee.DisplayName = a.DisplayName
			}
			t.Assignee.AvatarURL = a.Avatar()
		}
		tickets = append(tickets, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

// GetReleases returns project versions, newest first.
func (h *Handler) GetReleases(w http.ResponseWriter, r *http.Request) {
	if h.jira == nil {
		WriteProblem(w, r, http.StatusInternalServerError, jiraUnconfiguredMsg)
		return
	}

	releases, err := h.jira.Releases(r.Context(), h.projectKey)
	if err != nil {
		slog.Error("releases fetch failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch releases")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"releases": releases})
}

// SearchIssues answers the issue search box. The query is matched against
// issue keys when it looks like one, summaries otherwise.
func (h *Handler) SearchIssues(w http.ResponseWriter, r *http.Request) {
	if h.jira == nil {
		WriteProblem(w, r, http.StatusInternalServerError, jiraUnconfiguredMsg)
		return
	}

	// Queries shorter than two characters match too much to be useful.
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"results": []jira.TicketSummary{}})
		return
	}

	issues, err := h.jira.Search(r.Context(), jira.SearchRequest{
		JQL:        jira.AutocompleteQuery(query),
		MaxResults: 10,
		Fields:     []string{"summary", "status", "issuetype", "assignee", "updated"},
	})
	if err != nil {
		slog.Error("issue search failed", "query", query, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to search issues")
		return
	}

	results := make([]jira.TicketSummary, 0, len(issues))
	for _, issue := range issues {
		results = append(results, jira.TicketSummaryFrom(issue, h.jira.BrowseURL(issue.Key)))
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GetNeedsReply returns tickets and pages where the latest comment came
// from someone other than the signed-in user.
func (h *Handler) GetNeedsReply(w http.ResponseWriter, r *http.Request) {
	if h.inbox == nil {
		WriteProblem(w, r, http.StatusInternalServerError, jiraUnconfiguredMsg)
		return
	}

	identity := MustIdentityFromContext(r.Context())
	items, err := h.inbox.Items(r.Context(), identity.Email)
	if err != nil {
		slog.Error("needs-reply feed failed", "email", identity.Email, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch items needing reply")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
