package jira

import (
	"context"
	"encoding/json"
	"fmt"
)

// SearchRequest is the body of POST /rest/api/3/search/jql.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
	Expand     []string `json:"expand,omitempty"`
}

// Search runs a JQL search and returns the raw issues.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Issue, error) {
	body, err := c.postJSON(ctx, "/rest/api/3/search/jql", req)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return resp.Issues, nil
}
