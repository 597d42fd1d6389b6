package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Release is the dashboard projection of a project version.
type Release struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Released    bool   `json:"released"`
	StartDate   string `json:"startDate,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

type version struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Released    bool   `json:"released"`
	Archived    bool   `json:"archived"`
	StartDate   string `json:"startDate"`
	ReleaseDate string `json:"releaseDate"`
}

// Releases fetches a project's versions, derives a display status for
// each and sorts them newest version number first.
func (c *Client) Releases(ctx context.Context, projectKey string) ([]Release, error) {
	body, err := c.get(ctx, "/rest/api/3/project/"+projectKey+"/versions", nil)
	if err != nil {
		return nil, err
	}
	var versions []version
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}

	releases := make([]Release, 0, len(versions))
	for _, v := range versions {
		releases = append(releases, Release{
			ID:          v.ID,
			Name:        v.Name,
			Description: v.Description,
			Status:      versionStatus(v, time.Now()),
			Released:    v.Released,
			StartDate:   v.StartDate,
			ReleaseDate: v.ReleaseDate,
		})
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return versionLess(parseVersion(releases[j].Name), parseVersion(releases[i].Name))
	})
	return releases, nil
}

// versionStatus derives the display status of a version.
func versionStatus(v version, now time.Time) string {
	switch {
	case v.Released:
		return "Released"
	case v.Archived:
		return "Archived"
	}
	if v.StartDate != "" {
		if start, err := time.Parse("2006-01-02", v.StartDate); err == nil && !start.After(now) {
			return "In Progress"
		}
	}
	return "Planned"
}

var versionNumberPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// parseVersion extracts the first x.y.z triple from a version name.
// Names without one sort as 0.0.0.
func parseVersion(name string) [3]int {
	m := versionNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return [3]int{}
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		out[i], _ = strconv.Atoi(m[i+1])
	}
	return out
}

func versionLess(a, b [3]int) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
