// Package confluence is a thin client for the Confluence Cloud content
// API, which shares the tracker's host under the /wiki prefix.
package confluence

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the wiki of a single Atlassian site.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
}

// NewClient creates a client for the given site host (bare hostname).
func NewClient(host, email, apiToken string) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(email + ":" + apiToken))
	return &Client{
		baseURL: "https://" + host + "/wiki",
		auth:    "Basic " + token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL creates a client against an explicit base URL.
// Used by tests to point at an httptest server.
func NewClientWithBaseURL(baseURL, email, apiToken string) *Client {
	c := NewClient("placeholder", email, apiToken)
	c.baseURL = baseURL
	return c
}

// PageURL resolves a page's webui link relative to the wiki root.
func (c *Client) PageURL(webui string) string {
	return c.baseURL + webui
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("confluence response %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: path, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// StatusError is a non-2xx upstream response with the body retained for
// logging.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("confluence %s returned %d", e.Endpoint, e.Status)
}
