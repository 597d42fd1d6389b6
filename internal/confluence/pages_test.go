package confluence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func labeled(id string, labels ...string) Page {
	p := Page{ID: id, Metadata: &Metadata{Labels: &LabelPage{}}}
	for _, l := range labels {
		p.Metadata.Labels.Results = append(p.Metadata.Labels.Results, Label{Name: l})
	}
	return p
}

func TestFilterUnlabeled_KeepsOnlyZeroLabelPages(t *testing.T) {
	pages := []Page{
		labeled("1", "documentation"),
		labeled("2"),
		labeled("5"),
		labeled("4", "meeting-notes", "archive"),
	}

	got := FilterUnlabeled(pages)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "5" {
		t.Errorf("kept = %q, %q, want pages 2 and 5", got[0].ID, got[1].ID)
	}
}

func TestFilterUnlabeled_SkipsPagesWithoutLabelExpansion(t *testing.T) {
	// Pages without the labels expansion are unexpanded, not unlabeled.
	pages := []Page{
		{ID: "1"},
		{ID: "2", Metadata: &Metadata{}},
		labeled("3"),
	}

	got := FilterUnlabeled(pages)

	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("kept = %+v, want only page 3", got)
	}
}

func TestFilterUnlabeled_EmptyInput(t *testing.T) {
	if got := FilterUnlabeled(nil); len(got) != 0 {
		t.Errorf("FilterUnlabeled(nil) = %v, want empty", got)
	}
}

func createdBy(id string) *History {
	return &History{CreatedBy: &User{AccountID: id}}
}

func TestDistinctCreators_DedupesInFirstSeenOrder(t *testing.T) {
	pages := []Page{
		{ID: "1", History: createdBy("bob")},
		{ID: "2", History: createdBy("alice")},
		{ID: "3", History: createdBy("bob")},
		{ID: "4"}, // anonymous, skipped
		{ID: "5", History: createdBy("carol")},
	}

	got := DistinctCreators(pages)

	want := []string{"bob", "alice", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DistinctCreators = %v, want %v", got, want)
	}
}

func TestRecentPages_BuildsCQLAndExpand(t *testing.T) {
	var gotCQL, gotExpand, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCQL = r.URL.Query().Get("cql")
		gotExpand = r.URL.Query().Get("expand")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"results": [{"id": "101", "title": "Retro Notes"}]}`))
	}))
	defer srv.Close()
	client := NewClientWithBaseURL(srv.URL, "bot@rally-go.com", "token")

	pages, err := client.RecentPages(context.Background(), "RAL", 50)
	if err != nil {
		t.Fatalf("RecentPages: %v", err)
	}

	if gotCQL != `space = "RAL" AND type = "page" order by lastModified desc` {
		t.Errorf("cql = %q", gotCQL)
	}
	if gotExpand != "history.lastUpdated,history.createdBy,metadata.labels,ancestors" {
		t.Errorf("expand = %q", gotExpand)
	}
	if gotLimit != "50" {
		t.Errorf("limit = %q, want 50", gotLimit)
	}
	if len(pages) != 1 || pages[0].Title != "Retro Notes" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestCommentedPage_LastComment_PicksNewestByCreatedDate(t *testing.T) {
	// The expansion does not guarantee chronological order.
	page := CommentedPage{
		Children: &Children{Comment: &CommentList{Results: []Comment{
			{ID: "c2", History: &CommentHistory{CreatedDate: "2026-04-02T09:00:00.000Z"}},
			{ID: "c3", History: &CommentHistory{CreatedDate: "2026-04-03T09:00:00.000Z"}},
			{ID: "c1", History: &CommentHistory{CreatedDate: "2026-04-01T09:00:00.000Z"}},
		}}},
	}

	if got := page.LastComment(); got == nil || got.ID != "c3" {
		t.Errorf("LastComment = %+v, want newest comment c3", got)
	}
	if got := (CommentedPage{}).LastComment(); got != nil {
		t.Errorf("LastComment on bare page = %+v, want nil", got)
	}
}

func TestCommentedPage_LastComment_UndatedSortOldest(t *testing.T) {
	page := CommentedPage{
		Children: &Children{Comment: &CommentList{Results: []Comment{
			{ID: "c9"},
			{ID: "c1", History: &CommentHistory{CreatedDate: "2026-04-01T09:00:00.000Z"}},
		}}},
	}

	if got := page.LastComment(); got == nil || got.ID != "c1" {
		t.Errorf("LastComment = %+v, want dated comment c1", got)
	}
}
