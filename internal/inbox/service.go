// Package inbox builds the needs-reply feed: tickets and wiki pages
// where the latest comment was written by someone else, so the signed-in
// user owes an answer.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rallyhq/huddle/internal/confluence"
	"github.com/rallyhq/huddle/internal/jira"
)

const (
	maxTickets = 25
	maxPages   = 25
	maxItems   = 25
)

// Tracker is the slice of the Jira client the inbox needs.
type Tracker interface {
	FindAccountID(ctx context.Context, email string) (string, error)
	Search(ctx context.Context, req jira.SearchRequest) ([]jira.Issue, error)
	BrowseURL(key string) string
}

// Wiki is the slice of the Confluence client the inbox needs.
type Wiki interface {
	PagesInvolving(ctx context.Context, accountID string, limit int) ([]confluence.CommentedPage, error)
	PageURL(webui string) string
}

// LastComment is the comment that made an item actionable.
type LastComment struct {
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// Item is one entry of the needs-reply feed.
type Item struct {
	ID          string      `json:"id"`
	Key         string      `json:"key,omitempty"`
	Title       string      `json:"title"`
	Status      string      `json:"status,omitempty"`
	Source      string      `json:"source"`
	URL         string      `json:"url"`
	Updated     string      `json:"updated"`
	LastComment LastComment `json:"lastComment"`
}

// Service merges tracker and wiki items into one feed.
type Service struct {
	tracker    Tracker
	wiki       Wiki
	projectKey string
}

// NewService creates an inbox service. wiki may be nil; the feed then
// carries tracker items only.
func NewService(tracker Tracker, wiki Wiki, projectKey string) *Service {
	return &Service{tracker: tracker, wiki: wiki, projectKey: projectKey}
}

// Items returns the needs-reply feed for the given user, newest first.
// A tracker failure fails the feed; a wiki failure only drops the wiki
// half, matching how much each source contributes.
func (s *Service) Items(ctx context.Context, email string) ([]Item, error) {
	accountID, err := s.tracker.FindAccountID(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve account for %s: %w", email, err)
	}
	if accountID == "" {
		slog.Warn("no tracker account for user", "email", email)
		return []Item{}, nil
	}

	items, err := s.ticketItems(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.wiki != nil {
		pageItems, err := s.pageItems(ctx, accountID)
		if err != nil {
			slog.Warn("wiki needs-reply lookup failed", "error", err)
		} else {
			items = append(items, pageItems...)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return parseWhen(items[i].Updated).After(parseWhen(items[j].Updated))
	})
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

func (s *Service) ticketItems(ctx context.Context, accountID string) ([]Item, error) {
	issues, err := s.tracker.Search(ctx, jira.SearchRequest{
		JQL:        jira.NeedsReplyQuery(s.projectKey, accountID),
		MaxResults: maxTickets,
		Fields:     []string{"summary", "status", "comment", "updated"},
		Expand:     []string{"renderedFields"},
	})
	if err != nil {
		return nil, fmt.Errorf("search tickets: %w", err)
	}

	items := []Item{}
	for _, issue := range issues {
		last := lastIssueComment(issue)
		if last == nil || last.Author == nil || last.Author.AccountID == accountID {
			continue
		}
		body := last.Body
		if rendered := renderedCommentBody(issue, last.ID); rendered != "" {
			body = rendered
		}
		items = append(items, Item{
			ID:      issue.ID,
			Key:     issue.Key,
			Title:   issue.Fields.Summary,
			Status:  statusName(issue),
			Source:  "jira",
			URL:     s.tracker.BrowseURL(issue.Key) + "?focusedCommentId=" + last.ID,
			Updated: issue.Fields.Updated,
			LastComment: LastComment{
				Author:  last.Author.DisplayName,
				Body:    StripHTML(body),
				Created: last.Created,
			},
		})
	}
	return items, nil
}

func (s *Service) pageItems(ctx context.Context, accountID string) ([]Item, error) {
	pages, err := s.wiki.PagesInvolving(ctx, accountID, maxPages)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, page := range pages {
		last := page.LastComment()
		if last == nil || last.History == nil || last.History.CreatedBy == nil {
			continue
		}
		author := last.History.CreatedBy
		if author.AccountID == accountID || systemAuthor(author.DisplayName) {
			continue
		}
		items = append(items, Item{
			ID:      page.ID,
			Title:   page.Title,
			Source:  "confluence",
			URL:     s.wiki.PageURL(page.Links.WebUI) + "?focusedCommentId=" + last.ID + "#comment-" + last.ID,
			Updated: last.History.CreatedDate,
			LastComment: LastComment{
				Author:  author.DisplayName,
				Body:    StripHTML(last.BodyHTML()),
				Created: last.History.CreatedDate,
			},
		})
	}
	return items, nil
}

// systemAuthor reports whether the comment was left by an integration
// rather than a teammate.
func systemAuthor(name string) bool {
	return strings.Contains(name, "Oauth") || strings.Contains(name, "System")
}

func lastIssueComment(issue jira.Issue) *jira.Comment {
	c := issue.Fields.Comment
	if c == nil || len(c.Comments) == 0 {
		return nil
	}
	return &c.Comments[len(c.Comments)-1]
}

// renderedCommentBody finds the HTML-rendered body of the comment with
// the given id, or "" when the rendered expansion is missing.
func renderedCommentBody(issue jira.Issue, commentID string) string {
	if issue.RenderedFields == nil || issue.RenderedFields.Comment == nil {
		return ""
	}
	for _, c := range issue.RenderedFields.Comment.Comments {
		if c.ID == commentID {
			return c.Body
		}
	}
	return ""
}

func statusName(issue jira.Issue) string {
	if issue.Fields.Status == nil {
		return ""
	}
	return issue.Fields.Status.Name
}

// parseWhen parses the timestamp formats the two providers emit.
// Unparseable values sort last.
func parseWhen(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
