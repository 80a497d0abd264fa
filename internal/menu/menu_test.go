package menu

import (
	"strings"
	"testing"
)

func testForest() Forest {
	return Forest{
		{ID: "appts", Text: "Appointments", Children: []Node{
			{ID: "times", Text: "Release times", Answer: "Slots open Tue-Thu 08:00-11:00."},
			{ID: "book", Text: "How to book", Children: []Node{
				{ID: "online", Text: "Online", Answer: "Use the city portal."},
				{ID: "phone", Text: "By phone", Answer: "Call 115 during office hours."},
			}},
		}},
		{ID: "docs", Text: "Required documents", Answer: "Passport, photo, 35 EUR fee."},
		{ID: "misc", Text: "Misc"},
	}
}

func TestFindResolvesEveryWalkedPath(t *testing.T) {
	t.Parallel()
	f := testForest()

	var check func(path []string, nodes []Node)
	check = func(path []string, nodes []Node) {
		for i := range nodes {
			n := &nodes[i]
			p := append(append([]string{}, path...), n.ID)
			got, ok := f.Find(p)
			if !ok {
				t.Fatalf("Find(%v) not found, want %q", p, n.Text)
			}
			if got != n {
				t.Fatalf("Find(%v) = %q, want the walked node %q", p, got.Text, n.Text)
			}
			check(p, n.Children)
		}
	}
	check(nil, f)
}

func TestFindNotFound(t *testing.T) {
	t.Parallel()
	f := testForest()

	tests := []struct {
		name string
		path []string
	}{
		{name: "empty path", path: nil},
		{name: "unknown root", path: []string{"nope"}},
		{name: "unknown child", path: []string{"appts", "nope"}},
		{name: "descends past a leaf", path: []string{"appts", "times", "deeper"}},
		{name: "valid tail under wrong root", path: []string{"docs", "times"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if n, ok := f.Find(tt.path); ok {
				t.Fatalf("Find(%v) = %q, want not found", tt.path, n.Text)
			}
		})
	}
}

func TestBreadcrumb(t *testing.T) {
	t.Parallel()
	f := testForest()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "depth 0", path: []string{"appts"}, want: "Appointments"},
		{name: "depth 1", path: []string{"appts", "times"}, want: "Appointments / Release times"},
		{name: "depth 2", path: []string{"appts", "book", "phone"}, want: "Appointments / How to book / By phone"},
		{name: "unresolvable", path: []string{"ghost"}, want: ""},
		{name: "empty", path: nil, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Breadcrumb(tt.path); got != tt.want {
				t.Fatalf("Breadcrumb(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestBreadcrumbSegmentCount(t *testing.T) {
	t.Parallel()
	f := testForest()
	path := []string{"appts", "book", "online"}
	got := f.Breadcrumb(path)
	if n := len(strings.Split(got, " / ")); n != len(path) {
		t.Fatalf("breadcrumb %q has %d segments, want %d", got, n, len(path))
	}
}

func TestBreadcrumbTrimsText(t *testing.T) {
	t.Parallel()
	f := Forest{{ID: "a", Text: "  A  ", Children: []Node{{ID: "b", Text: "B\n"}}}}
	if got := f.Breadcrumb([]string{"a", "b"}); got != "A / B" {
		t.Fatalf("Breadcrumb = %q, want %q", got, "A / B")
	}
}

func TestLeavesOrderAndPaths(t *testing.T) {
	t.Parallel()
	f := testForest()
	leaves := f.Leaves()

	wantPaths := [][]string{
		{"appts", "times"},
		{"appts", "book", "online"},
		{"appts", "book", "phone"},
		{"docs"},
		{"misc"},
	}
	if len(leaves) != len(wantPaths) {
		t.Fatalf("got %d leaves, want %d", len(leaves), len(wantPaths))
	}
	for i, lf := range leaves {
		if JoinPath(lf.Path) != JoinPath(wantPaths[i]) {
			t.Fatalf("leaf %d path = %v, want %v", i, lf.Path, wantPaths[i])
		}
		if !lf.Node.IsLeaf() {
			t.Fatalf("leaf %d (%s) has children", i, lf.Node.Text)
		}
	}
}

func TestMatchAnswer(t *testing.T) {
	t.Parallel()
	f := testForest()

	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{name: "single word hit", query: "passport", want: "Passport, photo, 35 EUR fee.", found: true},
		{name: "case insensitive", query: "PASSPORT please", want: "Passport, photo, 35 EUR fee.", found: true},
		{name: "first leaf in document order wins", query: "the", want: "Use the city portal.", found: true},
		{name: "question about slots", query: "when do slots open", want: "Slots open Tue-Thu 08:00-11:00.", found: true},
		{name: "nested leaf", query: "call them", want: "Call 115 during office hours.", found: true},
		{name: "no match", query: "quantum chromodynamics", found: false},
		{name: "empty", query: "", found: false},
		{name: "whitespace only", query: "   \t ", found: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := f.MatchAnswer(tt.query)
			if found != tt.found {
				t.Fatalf("MatchAnswer(%q) found = %v, want %v", tt.query, found, tt.found)
			}
			if got != tt.want {
				t.Fatalf("MatchAnswer(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestMatchAnswerSkipsNonLeafAnswers(t *testing.T) {
	t.Parallel()
	// A non-leaf carrying an answer is legal config, but only leaves are
	// searched.
	f := Forest{{
		ID: "a", Text: "A", Answer: "branchword here",
		Children: []Node{{ID: "b", Text: "B", Answer: "leafword here"}},
	}}
	if _, found := f.MatchAnswer("branchword"); found {
		t.Fatal("matched a non-leaf answer")
	}
	if got, found := f.MatchAnswer("leafword"); !found || got != "leafword here" {
		t.Fatalf("MatchAnswer(leafword) = %q, %v", got, found)
	}
}
