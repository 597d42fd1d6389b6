package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// CommentedPage is a page expanded with its footer comments, as returned
// by PagesInvolving.
type CommentedPage struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	History  *History  `json:"history"`
	Children *Children `json:"children"`
	Links    Links     `json:"_links"`
}

// Children holds the expanded child-content containers.
type Children struct {
	Comment *CommentList `json:"comment"`
}

// CommentList is the paged footer-comment container of a page.
type CommentList struct {
	Results []Comment `json:"results"`
}

// Comment is one footer comment with its author and rendered body.
type Comment struct {
	ID      string          `json:"id"`
	History *CommentHistory `json:"history"`
	Body    *CommentBody    `json:"body"`
}

// CommentHistory carries the comment author and creation time.
type CommentHistory struct {
	CreatedDate string `json:"createdDate"`
	CreatedBy   *User  `json:"createdBy"`
}

// CommentBody holds the rendered view of a comment.
type CommentBody struct {
	View *RenderedBody `json:"view"`
}

// RenderedBody is HTML markup rendered for display.
type RenderedBody struct {
	Value string `json:"value"`
}

type commentedSearchResponse struct {
	Results []CommentedPage `json:"results"`
}

// LastComment returns the chronologically newest footer comment of the
// page, or nil when the page has none. The expansion does not guarantee
// creation order, so comments are sorted by created date first.
func (p CommentedPage) LastComment() *Comment {
	if p.Children == nil || p.Children.Comment == nil || len(p.Children.Comment.Results) == 0 {
		return nil
	}
	comments := append([]Comment(nil), p.Children.Comment.Results...)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].createdTime().Before(comments[j].createdTime())
	})
	return &comments[len(comments)-1]
}

// createdTime parses the comment's creation date; zero when missing or
// unparseable, which sorts oldest.
func (c Comment) createdTime() time.Time {
	if c.History == nil {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, c.History.CreatedDate)
	return t
}

// AuthorName returns the comment author's display name, or "".
func (c Comment) AuthorName() string {
	if c.History == nil || c.History.CreatedBy == nil {
		return ""
	}
	return c.History.CreatedBy.DisplayName
}

// BodyHTML returns the rendered comment body, or "".
func (c Comment) BodyHTML() string {
	if c.Body == nil || c.Body.View == nil {
		return ""
	}
	return c.Body.View.Value
}

// PagesInvolving returns pages the account created or contributed to,
// most recently modified first, with footer comments expanded so reply
// detection needs no per-page follow-up calls.
func (c *Client) PagesInvolving(ctx context.Context, accountID string, limit int) ([]CommentedPage, error) {
	q := url.Values{}
	cql := fmt.Sprintf(`type = "page" AND (creator = %q OR contributor = %q) order by lastModified desc`, accountID, accountID)
	q.Set("cql", cql)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("expand", "history.createdBy,children.comment.history,children.comment.body.view")

	body, err := c.get(ctx, "/rest/api/content/search", q)
	if err != nil {
		return nil, err
	}
	var resp commentedSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode commented page search: %w", err)
	}
	return resp.Results, nil
}
