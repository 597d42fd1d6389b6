package api

import (
	"log/slog"
	"net/http"
)

// GetGroomingReport returns incomplete tickets and unlabeled pages for
// the grooming session. Managers only; the route group enforces that.
func (h *Handler) GetGroomingReport(w http.ResponseWriter, r *http.Request) {
	if h.grooming == nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Jira credentials are not configured")
		return
	}

	report, err := h.grooming.Report(r.Context())
	if err != nil {
		slog.Error("grooming report failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to fetch grooming data")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
