package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Labels the grooming workflow searches the field catalog for. They are
// matched as case-insensitive substrings against display names, so a
// tracker whose field is named "Story point estimate" still resolves.
const (
	storyPointsLabel        = "Story Points"
	acceptanceCriteriaLabel = "Acceptance Criteria"
	developerLabel          = "Developer"
)

// Fields fetches the full field catalog for the site. The catalog is
// fetched fresh per call; if the tracker renames or removes a field
// between requests the completeness query silently adjusts.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	body, err := c.get(ctx, "/rest/api/3/field", nil)
	if err != nil {
		return nil, err
	}
	var fields []Field
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode field catalog: %w", err)
	}
	return fields, nil
}

// ResolveFieldID returns the id of the first catalog entry whose name
// contains namePart, case-insensitively, in provider-returned order.
// Returns "" when no entry matches. When multiple fields contain the
// substring ("Story Points" vs "Epic Story Points") the first match wins;
// that ambiguity is deterministic and intentional.
func ResolveFieldID(catalog []Field, namePart string) string {
	needle := strings.ToLower(namePart)
	for _, f := range catalog {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			return f.ID
		}
	}
	return ""
}

// ResolveFields scans the catalog for the three grooming custom fields.
func ResolveFields(catalog []Field) ResolvedFields {
	return ResolvedFields{
		StoryPoints:        ResolveFieldID(catalog, storyPointsLabel),
		AcceptanceCriteria: ResolveFieldID(catalog, acceptanceCriteriaLabel),
		Developer:          ResolveFieldID(catalog, developerLabel),
	}
}
