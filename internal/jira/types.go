package jira

// Field is one row of the tracker's field catalog, covering both system
// and custom fields.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolvedFields holds the provider-internal identifiers for the custom
// fields the completeness query cares about. An empty ID means the field
// does not exist in the tracker and its clause is omitted from the query.
type ResolvedFields struct {
	StoryPoints        string
	AcceptanceCriteria string
	Developer          string
}

// Person is the display projection of a Jira user reference.
type Person struct {
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
}

// TicketSummary is the display projection of a raw issue record.
type TicketSummary struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Type     string `json:"type"`
	Assignee Person `json:"assignee"`
	URL      string `json:"url"`
	Updated  string `json:"updated"`
}

// Issue is a raw search hit. Only fields the dashboard projects from are
// decoded; everything else on the wire is ignored.
type Issue struct {
	ID             string      `json:"id"`
	Key            string      `json:"key"`
	Fields         IssueFields `json:"fields"`
	RenderedFields *Rendered   `json:"renderedFields,omitempty"`
}

// IssueFields holds the decoded fields of a search hit.
type IssueFields struct {
	Summary   string       `json:"summary"`
	Status    *Named       `json:"status"`
	IssueType *Named       `json:"issuetype"`
	Priority  *Named       `json:"priority"`
	Assignee  *UserRef     `json:"assignee"`
	DueDate   string       `json:"duedate"`
	Updated   string       `json:"updated"`
	Comment   *CommentPage `json:"comment"`
}

// Named is a name-bearing Jira resource (status, issue type, priority).
type Named struct {
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// StatusCategory classifies a status as new/indeterminate/done.
type StatusCategory struct {
	Key string `json:"key"`
}

// UserRef is a Jira user as embedded in issue fields and the bulk user API.
type UserRef struct {
	AccountID   string            `json:"accountId"`
	DisplayName string            `json:"displayName"`
	AvatarURLs  map[string]string `json:"avatarUrls"`
}

// Avatar returns the preferred avatar URL, largest first, or nil.
func (u *UserRef) Avatar() *string {
	if u == nil {
		return nil
	}
	for _, size := range []string{"48x48", "32x32"} {
		if v, ok := u.AvatarURLs[size]; ok && v != "" {
			url := v
			return &url
		}
	}
	return nil
}

// CommentPage is the embedded comment container on an issue.
type CommentPage struct {
	Comments []Comment `json:"comments"`
}

// Comment is one issue comment. Body is only present on rendered copies.
type Comment struct {
	ID      string   `json:"id"`
	Author  *UserRef `json:"author"`
	Body    string   `json:"body"`
	Created string   `json:"created"`
}

// Rendered carries the HTML-rendered variants of issue fields.
type Rendered struct {
	Comment *CommentPage `json:"comment"`
}

// searchResponse is the envelope of POST /rest/api/3/search/jql.
type searchResponse struct {
	Issues []Issue `json:"issues"`
}

// TicketSummaryFrom projects an issue into its dashboard shape.
func TicketSummaryFrom(issue Issue, browseURL string) TicketSummary {
	t := TicketSummary{
		ID:      issue.ID,
		Key:     issue.Key,
		Summary: issue.Fields.Summary,
		Type:    "Unknown",
		URL:     browseURL,
		Updated: issue.Fields.Updated,
		Assignee: Person{
			DisplayName: "Unassigned",
		},
	}
	if issue.Fields.Status != nil {
		t.Status = issue.Fields.Status.Name
	}
	if issue.Fields.IssueType != nil && issue.Fields.IssueType.Name != "" {
		t.Type = issue.Fields.IssueType.Name
	}
	if a := issue.Fields.Assignee; a != nil {
		if a.DisplayName != "" {
			t.Assignee.DisplayName = a.DisplayName
		}
		t.Assignee.AvatarURL = a.Avatar()
	}
	return t
}
