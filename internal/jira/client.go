// Package jira is a thin client for the Jira Cloud REST and Agile APIs.
// It covers exactly the calls the dashboard needs: the field catalog,
// JQL search, sprint/board data, project versions and user lookup.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a single Jira Cloud site using basic auth
// (account email + API token).
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
}

// NewClient creates a client for the given site host (bare hostname,
// e.g. "acme.atlassian.net").
func NewClient(host, email, apiToken string) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(email + ":" + apiToken))
	return &Client{
		baseURL: "https://" + host,
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

// BrowseURL returns the human-facing URL for an issue key.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

// get performs an authenticated GET and returns the response body.
// Non-2xx responses are returned as a StatusError carrying the body so
// callers can log enough context to diagnose without reproducing.
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
	return c.do(req)
}

// postJSON performs an authenticated POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jira response %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: req.URL.Path, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// StatusError is a non-2xx upstream response. Body is kept verbatim for
// operator diagnosis; it is logged, never forwarded to dashboard callers.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira %s returned %d", e.Endpoint, e.Status)
}
