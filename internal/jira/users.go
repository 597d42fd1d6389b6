package jira

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
)

// FindAccountID resolves a user's Jira account id from their email via
// the user search API. Returns "" when the user is unknown to the site.
func (c *Client) FindAccountID(ctx context.Context, email string) (string, error) {
	q := url.Values{}
	q.Set("query", email)
	body, err := c.get(ctx, "/rest/api/3/user/search", q)
	if err != nil {
		return "", err
	}
	var users []UserRef
	if err := json.Unmarshal(body, &users); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}
	return users[0].AccountID, nil
}

// BulkAvatars resolves avatar URLs for a set of account ids with a single
// batched call, avoiding one round trip per account. Returns a map from
// account id to avatar URL; accounts with no photo are simply absent.
//
// The response shape is provider-version-dependent: some deployments
// return a bare array, others a {"values":[...]} envelope. Both are
// accepted; an unrecognised shape yields an empty map, never an error,
// because avatars are decoration and must not fail the caller.
func (c *Client) BulkAvatars(ctx context.Context, accountIDs []string) (map[string]string, error) {
	if len(accountIDs) == 0 {
		return map[string]string{}, nil
	}

	q := url.Values{}
	for _, id := range accountIDs {
		q.Add("accountId", id)
	}
	body, err := c.get(ctx, "/rest/api/3/user/bulk", q)
	if err != nil {
		return nil, err
	}

	users := decodeUserList(body)
	avatars := make(map[string]string, len(users))
	for _, u := range users {
		if a := u.Avatar(); a != nil {
			avatars[u.AccountID] = *a
		}
	}
	return avatars, nil
}

// decodeUserList tolerates both bulk-user response shapes.
func decodeUserList(body []byte) []UserRef {
	var direct []UserRef
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct
	}

	var envelope struct {
		Values []UserRef `json:"values"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Values != nil {
		return envelope.Values
	}

	slog.Error("unexpected bulk user response shape", "body", string(body))
	return nil
}
