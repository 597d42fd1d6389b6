package jira

import (
	"fmt"
	"regexp"
	"strings"
)

// BuildCompletenessQuery constructs the JQL selecting ungroomed tickets:
// anything in the project missing at least ONE required planning attribute
// and not yet in the Done status category, most recently updated first.
// The predicate is a disjunction on purpose; the feature surfaces anything
// incomplete, not tickets missing everything. Clauses for custom fields
// that did not resolve are omitted so a field absent from the tracker is
// never treated as missing on every ticket.
func BuildCompletenessQuery(projectKey string, fields ResolvedFields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "project = %s AND (description is EMPTY OR labels is EMPTY OR duedate is EMPTY", projectKey)
	for _, id := range []string{fields.StoryPoints, fields.AcceptanceCriteria, fields.Developer} {
		if id != "" {
			fmt.Fprintf(&b, " OR %s is EMPTY", id)
		}
	}
	b.WriteString(") AND statusCategory != Done ORDER BY updated DESC")
	return b.String()
}

// DueSoonQuery selects the current user's open tickets due within the
// next seven days, soonest first.
func DueSoonQuery(projectKey string) string {
	return fmt.Sprintf("project = %s AND assignee = currentUser() AND duedate >= now() AND duedate <= 7d AND statusCategory != Done ORDER BY duedate ASC", projectKey)
}

// NeedsReplyQuery selects tickets the given account is involved in,
// either as assignee or mentioned in a comment.
func NeedsReplyQuery(projectKey, accountID string) string {
	return fmt.Sprintf(`project = %s AND (assignee = %q OR comment ~ %q) ORDER BY updated DESC`, projectKey, accountID, accountID)
}

// issueKeyPattern matches a full or partial issue key like "RAL-123" or "RAL-".
var issueKeyPattern = regexp.MustCompile(`(?i)^[A-Z]+-\d*$`)

// AutocompleteQuery builds the JQL for the issue search box. A query that
// looks like an issue key searches keys; anything else searches summaries.
func AutocompleteQuery(query string) string {
	if issueKeyPattern.MatchString(query) {
		return fmt.Sprintf(`key = %q OR key ~ %q ORDER BY updated DESC`, query, query)
	}
	return fmt.Sprintf(`summary ~ %q OR key ~ %q ORDER BY updated DESC`, query+"*", query+"*")
}
