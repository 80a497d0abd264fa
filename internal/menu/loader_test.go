package menu

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseShapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		yaml    string
		lang    string
		wantIDs []string
	}{
		{
			name:    "document is a list",
			yaml:    "- id: a\n  text: A\n- id: b\n  text: B\n",
			lang:    "en",
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "top-level menu key",
			yaml:    "menu:\n  - id: a\n    text: A\n",
			lang:    "en",
			wantIDs: []string{"a"},
		},
		{
			name:    "language block with direct list",
			yaml:    "en:\n  - id: en1\n    text: One\nde:\n  - id: de1\n    text: Eins\n",
			lang:    "de",
			wantIDs: []string{"de1"},
		},
		{
			name:    "language block nesting menu key",
			yaml:    "en:\n  menu:\n    - id: en1\n      text: One\n",
			lang:    "en",
			wantIDs: []string{"en1"},
		},
		{
			name:    "fallback to first block in document order",
			yaml:    "de:\n  - id: de1\n    text: Eins\nfr:\n  - id: fr1\n    text: Un\n",
			lang:    "en",
			wantIDs: []string{"de1"},
		},
		{
			name:    "menu key wins over language block",
			yaml:    "en:\n  - id: en1\n    text: One\nmenu:\n  - id: m1\n    text: M\n",
			lang:    "en",
			wantIDs: []string{"m1"},
		},
		{
			name:    "empty document",
			yaml:    "",
			lang:    "en",
			wantIDs: nil,
		},
		{
			name:    "scalar document",
			yaml:    "just a string\n",
			lang:    "en",
			wantIDs: nil,
		},
		{
			name:    "mapping without any list",
			yaml:    "foo: bar\nbaz: 3\n",
			lang:    "en",
			wantIDs: nil,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := Parse([]byte(tt.yaml), tt.lang)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if len(f) != len(tt.wantIDs) {
				t.Fatalf("got %d roots, want %d", len(f), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if f[i].ID != id {
					t.Fatalf("root %d id = %q, want %q", i, f[i].ID, id)
				}
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	t.Parallel()
	if _, err := Parse([]byte("menu: [unclosed\n"), "en"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParseEntryDefaults(t *testing.T) {
	t.Parallel()
	src := `
menu:
  - text: No id here
  - id: only-id
  - id: numeric
    text: 7
    answer: 42
  - id: nulls
    text: null
    answer:
  - "not a mapping at all"
  - id: badkids
    text: Bad kids
    children: definitely-not-a-list
`
	f, err := Parse([]byte(src), "en")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(f) != 6 {
		t.Fatalf("got %d entries, want 6", len(f))
	}
	if f[0].ID != "" || f[0].Text != "No id here" {
		t.Fatalf("entry 0 = %+v, want empty id", f[0])
	}
	if f[1].Text != "" || f[1].Answer != "" {
		t.Fatalf("entry 1 = %+v, want empty text and answer", f[1])
	}
	if f[2].Text != "7" || f[2].Answer != "42" {
		t.Fatalf("entry 2 = %+v, want stringified scalars", f[2])
	}
	if f[3].Text != "" || f[3].Answer != "" {
		t.Fatalf("entry 3 = %+v, want empty strings for nulls", f[3])
	}
	if f[4].ID != "" || f[4].Text != "" || len(f[4].Children) != 0 {
		t.Fatalf("entry 4 = %+v, want an empty placeholder", f[4])
	}
	if len(f[5].Children) != 0 {
		t.Fatalf("entry 5 children = %v, want none", f[5].Children)
	}
}

func TestParseNestedChildren(t *testing.T) {
	t.Parallel()
	src := `
menu:
  - id: a
    text: A
    children:
      - id: b
        text: B
        answer: ans
`
	f, err := Parse([]byte(src), "en")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	n, ok := f.Find([]string{"a", "b"})
	if !ok {
		t.Fatal("Find(a,b) not found")
	}
	if n.Text != "B" || n.Answer != "ans" || !n.IsLeaf() {
		t.Fatalf("node = %+v, want leaf B with answer", n)
	}
	if got := f.Breadcrumb([]string{"a", "b"}); got != "A / B" {
		t.Fatalf("Breadcrumb = %q, want %q", got, "A / B")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.yaml")
	if err := os.WriteFile(path, []byte("menu:\n  - id: a\n    text: A\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := Load(path, "en")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(f) != 1 || f[0].ID != "a" {
		t.Fatalf("forest = %+v", f)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	f, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "en")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if len(f) != 0 {
		t.Fatalf("forest = %+v, want empty", f)
	}
}

func TestLint(t *testing.T) {
	t.Parallel()
	clean := testForest()
	if warns := Lint(clean, 64); len(warns) != 0 {
		t.Fatalf("clean forest warnings: %v", warns)
	}

	bad := Forest{
		{ID: "a:b", Text: "Delimiter in id"},
		{ID: "averylongidentifierthatkeepsgoing", Text: "Long", Children: []Node{
			{ID: "anotherverylongidentifierbelowit", Text: "Longer"},
		}},
	}
	warns := Lint(bad, 40)
	if len(warns) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warns), warns)
	}
}
