package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"time"
)

// SprintProgress is the dashboard projection of a board's active sprint.
type SprintProgress struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	DaysLeft  int    `json:"daysLeft"`
	Progress  int    `json:"progress"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Status    string `json:"status"`
}

type sprint struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Goal    string `json:"goal"`
	EndDate string `json:"endDate"`
}

type sprintListResponse struct {
	Values []sprint `json:"values"`
}

// SprintProgress reports the active sprint for a board with issue
// completion counts. A board with no active sprint yields a zero-value
// payload rather than an error. A failure fetching the sprint's issues
// degrades to the sprint header with zero counts; the sprint name is
// still worth rendering.
func (c *Client) SprintProgress(ctx context.Context, boardID string) (*SprintProgress, error) {
	q := url.Values{}
	q.Set("state", "active")
	body, err := c.get(ctx, "/rest/agile/1.0/board/"+boardID+"/sprint", q)
	if err != nil {
		return nil, err
	}
	var sprints sprintListResponse
	if err := json.Unmarshal(body, &sprints); err != nil {
		return nil, fmt.Errorf("decode sprint list: %w", err)
	}
	if len(sprints.Values) == 0 {
		return &SprintProgress{Name: "No Active Sprint", Status: "No Active Sprint"}, nil
	}
	active := sprints.Values[0]

	iq := url.Values{}
	iq.Set("maxResults", "100")
	iq.Set("fields", "status,resolution")
	issuesBody, err := c.get(ctx, fmt.Sprintf("/rest/agile/1.0/sprint/%d/issue", active.ID), iq)
	if err != nil {
		return &SprintProgress{
			Name:   active.Name,
			Goal:   active.Goal,
			Status: "Active (issues fetch failed)",
		}, nil
	}

	var issues searchResponse
	if err := json.Unmarshal(issuesBody, &issues); err != nil {
		return nil, fmt.Errorf("decode sprint issues: %w", err)
	}

	total := len(issues.Issues)
	completed := 0
	for _, issue := range issues.Issues {
		if s := issue.Fields.Status; s != nil && s.StatusCategory != nil && s.StatusCategory.Key == "done" {
			completed++
		}
	}
	progress := 0
	if total > 0 {
		progress = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return &SprintProgress{
		Name:      active.Name,
		Goal:      active.Goal,
		DaysLeft:  daysUntil(active.EndDate, time.Now()),
		Progress:  progress,
		Total:     total,
		Completed: completed,
		Status:    "Active",
	}, nil
}

// daysUntil returns the whole days remaining until the RFC 3339 end date,
// rounded up, never negative. An unparseable date counts as zero.
func daysUntil(endDate string, now time.Time) int {
	end, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return 0
	}
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
