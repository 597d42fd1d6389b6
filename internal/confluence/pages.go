package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Page is a content page with the metadata the dashboard needs: creator,
// last-update timestamp, attached labels and ancestor chain. All of it is
// expanded in the search call itself so page data costs one round trip.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	History   *History  `json:"history"`
	Metadata  *Metadata `json:"metadata"`
	Ancestors []Page    `json:"ancestors"`
	Links     Links     `json:"_links"`
}

// History carries creator and last-update info.
type History struct {
	CreatedBy   *User        `json:"createdBy"`
	LastUpdated *LastUpdated `json:"lastUpdated"`
}

// User is a Confluence user reference.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// LastUpdated is the last-modification record of a page.
type LastUpdated struct {
	When string `json:"when"`
}

// Metadata carries the expanded label container.
type Metadata struct {
	Labels *LabelPage `json:"labels"`
}

// LabelPage is the paged label container attached to a page.
type LabelPage struct {
	Results []Label `json:"results"`
}

// Label is one taxonomy label.
type Label struct {
	Name string `json:"name"`
}

// Links holds the webui link used to build page URLs.
type Links struct {
	WebUI string `json:"webui"`
}

type searchResponse struct {
	Results []Page `json:"results"`
}

// Unlabeled reports whether the page carries an expanded label container
// with zero entries. A page whose labels expansion is missing entirely is
// not treated as unlabeled, only as unexpanded.
func (p Page) Unlabeled() bool {
	return p.Metadata != nil && p.Metadata.Labels != nil && len(p.Metadata.Labels.Results) == 0
}

// CreatorAccountID returns the page creator's account id, or "".
func (p Page) CreatorAccountID() string {
	if p.History == nil || p.History.CreatedBy == nil {
		return ""
	}
	return p.History.CreatedBy.AccountID
}

// RecentPages returns up to limit pages in the space, most recently
// modified first, with creator, labels, last-update and ancestors
// expanded in the same call.
func (c *Client) RecentPages(ctx context.Context, spaceKey string, limit int) ([]Page, error) {
	q := url.Values{}
	q.Set("cql", fmt.Sprintf(`space = %q AND type = "page" order by lastModified desc`, spaceKey))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("expand", "history.lastUpdated,history.createdBy,metadata.labels,ancestors")

	body, err := c.get(ctx, "/rest/api/content/search", q)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode page search: %w", err)
	}
	return resp.Results, nil
}

// FilterUnlabeled keeps pages with exactly zero attached labels. The
// filter runs in memory because CQL has no "labels is empty" predicate
// for content.
func FilterUnlabeled(pages []Page) []Page {
	var out []Page
	for _, p := range pages {
		if p.Unlabeled() {
			out = append(out, p)
		}
	}
	return out
}

// DistinctCreators collects the unique creator account ids across pages,
// in first-seen order. Many pages share an author, so this is usually
// much smaller than the page list.
func DistinctCreators(pages []Page) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range pages {
		id := p.CreatorAccountID()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
