// Package grooming assembles the manager grooming report: tickets missing
// required planning attributes and wiki pages with no labels, with page
// authors enriched by a single bulk avatar lookup.
package grooming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rallyhq/huddle/internal/confluence"
	"github.com/rallyhq/huddle/internal/jira"
)

// Tracker is the slice of the Jira client the report needs.
type Tracker interface {
	Fields(ctx context.Context) ([]jira.Field, error)
	Search(ctx context.Context, req jira.SearchRequest) ([]jira.Issue, error)
	BulkAvatars(ctx context.Context, accountIDs []string) (map[string]string, error)
	BrowseURL(key string) string
}

// Wiki is the slice of the Confluence client the report needs.
type Wiki interface {
	RecentPages(ctx context.Context, spaceKey string, limit int) ([]confluence.Page, error)
	PageURL(webui string) string
}

// UnlabeledPage is a wiki page with zero attached labels, projected for
// the dashboard. AvatarURL stays nil when the creator has no resolved
// photo; placeholder rendering is the UI's concern.
type UnlabeledPage struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Parent  *string     `json:"parent"`
	URL     string      `json:"url"`
	Updated string      `json:"updated"`
	Author  jira.Person `json:"author"`
}

// Report is the grooming endpoint payload.
type Report struct {
	Tickets []jira.TicketSummary `json:"tickets"`
	Pages   []UnlabeledPage      `json:"pages"`
}

const (
	maxTickets = 20
	maxPages   = 50
)

// Service builds grooming reports for one project/space.
type Service struct {
	tracker    Tracker
	wiki       Wiki
	projectKey string
}

// NewService creates a grooming service. The project key doubles as the
// wiki space key, as it does on the team's Atlassian site.
func NewService(tracker Tracker, wiki Wiki, projectKey string) *Service {
	return &Service{tracker: tracker, wiki: wiki, projectKey: projectKey}
}

// Report runs the whole workflow: resolve custom field ids from the live
// catalog, search for incomplete tickets, then collect unlabeled pages
// with avatar enrichment.
//
// Failure policy follows the widget's nature: a failed field catalog or
// ticket search aborts the report (a wrong or default field id would
// silently hide exactly the tickets this exists to surface), while page
// and avatar failures degrade to partial results.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	catalog, err := s.tracker.Fields(ctx)
	if err != nil {
		logUpstream("field catalog fetch failed", err)
		return nil, fmt.Errorf("fetch field catalog: %w", err)
	}
	resolved := jira.ResolveFields(catalog)

	jql := jira.BuildCompletenessQuery(s.projectKey, resolved)
	slog.Debug("grooming query built", "jql", jql)

	issues, err := s.tracker.Search(ctx, jira.SearchRequest{
		JQL:        jql,
		MaxResults: maxTickets,
		Fields:     []string{"key", "summary", "status", "priority", "assignee", "updated", "issuetype"},
	})
	if err != nil {
		logUpstream("ungroomed ticket search failed", err)
		return nil, fmt.Errorf("search ungroomed tickets: %w", err)
	}

	tickets := make([]jira.TicketSummary, 0, len(issues))
	for _, issue := range issues {
		tickets = append(tickets, jira.TicketSummaryFrom(issue, s.tracker.BrowseURL(issue.Key)))
	}

	return &Report{
		Tickets: tickets,
		Pages:   s.unlabeledPages(ctx),
	}, nil
}

// unlabeledPages runs the page enrichment pipeline. Every failure mode
// here prefers partial results over total failure; the ticket list still
// renders when the wiki is down.
func (s *Service) unlabeledPages(ctx context.Context) []UnlabeledPage {
	recent, err := s.wiki.RecentPages(ctx, s.projectKey, maxPages)
	if err != nil {
		logUpstream("page search failed", err)
		return []UnlabeledPage{}
	}

	unlabeled := confluence.FilterUnlabeled(recent)
	creators := confluence.DistinctCreators(unlabeled)

	avatars, err := s.tracker.BulkAvatars(ctx, creators)
	if err != nil {
		logUpstream("bulk avatar lookup failed", err)
		avatars = map[string]string{}
	}

	pages := make([]UnlabeledPage, 0, len(unlabeled))
	for _, p := range unlabeled {
		pages = append(pages, projectPage(p, avatars, s.wiki.PageURL(p.Links.WebUI)))
	}
	return pages
}

// projectPage emits the display record for one unlabeled page, attaching
// the creator's avatar from the bulk map when present.
func projectPage(p confluence.Page, avatars map[string]string, url string) UnlabeledPage {
	out := UnlabeledPage{
		ID:    p.ID,
		Title: p.Title,
		URL:   url,
		Author: jira.Person{
			DisplayName: "Unknown",
		},
	}
	if len(p.Ancestors) > 0 {
		parent := p.Ancestors[len(p.Ancestors)-1].Title
		out.Parent = &parent
	}
	if p.History != nil {
		if p.History.LastUpdated != nil {
			out.Updated = p.History.LastUpdated.When
		}
		if creator := p.History.CreatedBy; creator != nil {
			if creator.DisplayName != "" {
				out.Author.DisplayName = creator.DisplayName
			}
			if url, ok := avatars[creator.AccountID]; ok {
				out.Author.AvatarURL = &url
			}
		}
	}
	return out
}

// logUpstream logs an upstream failure with endpoint, status and body
// when available so an operator can diagnose without reproducing.
func logUpstream(msg string, err error) {
	var jiraErr *jira.StatusError
	if errors.As(err, &jiraErr) {
		slog.Error(msg, "endpoint", jiraErr.Endpoint, "status", jiraErr.Status, "body", jiraErr.Body)
		return
	}
	var wikiErr *confluence.StatusError
	if errors.As(err, &wikiErr) {
		slog.Error(msg, "endpoint", wikiErr.Endpoint, "status", wikiErr.Status, "body", wikiErr.Body)
		return
	}
	slog.Error(msg, "error", err)
}
