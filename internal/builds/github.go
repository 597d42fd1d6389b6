// Package builds aggregates CI status from GitHub Actions and Codemagic
// for the build monitor.
package builds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// githubAPI is the GitHub REST base; overridable for tests.
const githubAPI = "https://api.github.com"

// Run is one workflow run, projected for the dashboard.
type Run struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Branch     string `json:"branch"`
	Commit     string `json:"commit"`
	Message    string `json:"message,omitempty"`
	Author     string `json:"author,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	URL        string `json:"url"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// RepoBuilds is the per-repository result. A repo whose fetch failed is
// reported with Error set and an empty run list so the rest of the board
// still renders.
type RepoBuilds struct {
	Repo  string `json:"repo"`
	Error bool   `json:"error,omitempty"`
	Runs  []Run  `json:"runs"`
}

// GitHubClient polls recent workflow runs across a fixed repository list.
type GitHubClient struct {
	token   string
	owner   string
	repos   []string
	baseURL string
	http    *http.Client
}

// NewGitHubClient creates a client for the configured owner and repos.
func NewGitHubClient(token, owner string, repos []string) *GitHubClient {
	return &GitHubClient{
		token:   token,
		owner:   owner,
		repos:   repos,
		baseURL: githubAPI,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGitHubClientWithBaseURL is the test constructor.
func NewGitHubClientWithBaseURL(baseURL, token, owner string, repos []string) *GitHubClient {
	c := NewGitHubClient(token, owner, repos)
	c.baseURL = baseURL
	return c
}

// Configured reports whether a token is present.
func (c *GitHubClient) Configured() bool { return c.token != "" }

// RecentRuns fetches the last five workflow runs of every configured
// repository in parallel. The fan-out is bounded by the fixed repo list;
// a repo's failure degrades to an error entry instead of failing the set,
// so RecentRuns itself never returns an error for upstream trouble.
func (c *GitHubClient) RecentRuns(ctx context.Context) []RepoBuilds {
	results := make([]RepoBuilds, len(c.repos))

	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range c.repos {
		i, repo := i, repo
		g.Go(func() error {
			runs, err := c.repoRuns(gctx, repo)
			if err != nil {
				slog.Error("github runs fetch failed", "repo", repo, "error", err)
				results[i] = RepoBuilds{Repo: repo, Error: true, Runs: []Run{}}
				return nil
			}
			results[i] = RepoBuilds{Repo: repo, Runs: runs}
			return nil
		})
	}
	// Workers only return nil; Wait is for completion, not error collection.
	_ = g.Wait()

	return results
}

type workflowRunsResponse struct {
	WorkflowRuns []struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Status     string `json:"status"`
		Conclusion string `json:"conclusion"`
		HeadBranch string `json:"head_branch"`
		HeadSHA    string `json:"head_sha"`
		HTMLURL    string `json:"html_url"`
		CreatedAt  string `json:"created_at"`
		UpdatedAt  string `json:"updated_at"`
		HeadCommit *struct {
			Message string `json:"message"`
		} `json:"head_commit"`
		TriggeringActor *struct {
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
		} `json:"triggering_actor"`
	} `json:"workflow_runs"`
}

func (c *GitHubClient) repoRuns(ctx context.Context, repo string) ([]Run, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/actions/runs?per_page=5", c.baseURL, c.owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("github returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload workflowRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode workflow runs: %w", err)
	}

	runs := make([]Run, 0, len(payload.WorkflowRuns))
	for _, wr := range payload.WorkflowRuns {
		run := Run{
			ID:         wr.ID,
			Name:       wr.Name,
			Status:     wr.Status,
			Conclusion: wr.Conclusion,
			Branch:     wr.HeadBranch,
			Commit:     shortSHA(wr.HeadSHA),
			URL:        wr.HTMLURL,
			CreatedAt:  wr.CreatedAt,
			UpdatedAt:  wr.UpdatedAt,
		}
		if wr.HeadCommit != nil {
			run.Message = wr.HeadCommit.Message
		}
		if wr.TriggeringActor != nil {
			run.Author = wr.TriggeringActor.Login
			run.Avatar = wr.TriggeringActor.AvatarURL
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
