package jira

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestVersionStatus_Precedence(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		v    version
		want string
	}{
		{"released", version{Released: true, Archived: true}, "Released"},
		{"archived", version{Archived: true}, "Archived"},
		{"started", version{StartDate: "2026-05-01"}, "In Progress"},
		{"future start", version{StartDate: "2026-07-01"}, "Planned"},
		{"no dates", version{}, "Planned"},
	}
	for _, tc := range cases {
		if got := versionStatus(tc.v, now); got != tc.want {
			t.Errorf("%s: status = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseVersion_ExtractsTriple(t *testing.T) {
	if got := parseVersion("Release 2.14.3 (beta)"); got != [3]int{2, 14, 3} {
		t.Errorf("parseVersion = %v, want [2 14 3]", got)
	}
	if got := parseVersion("Sprint Cleanup"); got != [3]int{} {
		t.Errorf("parseVersion = %v, want zero triple", got)
	}
}

func TestReleases_SortsNewestVersionFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/project/RAL/versions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": "1", "name": "1.2.0", "released": true},
			{"id": "2", "name": "1.10.0"},
			{"id": "3", "name": "1.3.1"}
		]`))
	})

	got, err := client.Releases(context.Background(), "RAL")
	if err != nil {
		t.Fatalf("Releases: %v", err)
	}

	want := []string{"1.10.0", "1.3.1", "1.2.0"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("releases[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	if got[2].Status != "Released" {
		t.Errorf("1.2.0 status = %q, want Released", got[2].Status)
	}
}
