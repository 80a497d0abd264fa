package menu

import (
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Load reads and parses the menu file. Callers treat a failure as "serve an
// empty menu", not as fatal; only parse/read problems are reported, never
// malformed entries.
func Load(path, lang string) (Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Parse builds the forest from a YAML document. Accepted shapes, in order:
//   - the document is itself a list of entries
//   - a top-level "menu" key holding a list
//   - a block keyed by lang holding a list (directly or under "menu")
//   - the first block, in document order, holding such a list
//
// A document matching none of these yields an empty forest. Entry fields
// that are missing or of the wrong type degrade to empty values; the entry
// walk itself never fails.
func Parse(data []byte, lang string) (Forest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	seq := selectEntries(documentRoot(&doc), lang)
	if seq == nil {
		return Forest{}, nil
	}
	return parseEntries(seq), nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc == nil || doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	return doc.Content[0]
}

func selectEntries(root *yaml.Node, lang string) *yaml.Node {
	root = resolved(root)
	if root == nil {
		return nil
	}
	if root.Kind == yaml.SequenceNode {
		return root
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	if seq := listUnder(mapValue(root, "menu")); seq != nil {
		return seq
	}
	if seq := listUnder(mapValue(root, lang)); seq != nil {
		return seq
	}
	// Preferred language absent: first block that carries a list wins.
	for i := 0; i+1 < len(root.Content); i += 2 {
		if seq := listUnder(root.Content[i+1]); seq != nil {
			return seq
		}
	}
	return nil
}

// listUnder accepts both a direct entry list and a language block nesting
// the list under a "menu" key.
func listUnder(n *yaml.Node) *yaml.Node {
	n = resolved(n)
	if n == nil {
		return nil
	}
	if n.Kind == yaml.SequenceNode {
		return n
	}
	if n.Kind == yaml.MappingNode {
		if v := resolved(mapValue(n, "menu")); v != nil && v.Kind == yaml.SequenceNode {
			return v
		}
	}
	return nil
}

func mapValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if k != nil && k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func resolved(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func scalarString(n *yaml.Node) string {
	n = resolved(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func parseEntries(seq *yaml.Node) []Node {
	out := make([]Node, 0, len(seq.Content))
	for _, item := range seq.Content {
		out = append(out, parseEntry(item))
	}
	return out
}

func parseEntry(n *yaml.Node) Node {
	n = resolved(n)
	var out Node
	if n == nil || n.Kind != yaml.MappingNode {
		// Not a mapping: keep an empty placeholder instead of failing.
		return out
	}
	out.ID = scalarString(mapValue(n, "id"))
	out.Text = scalarString(mapValue(n, "text"))
	out.Answer = scalarString(mapValue(n, "answer"))
	if kids := resolved(mapValue(n, "children")); kids != nil && kids.Kind == yaml.SequenceNode {
		out.Children = parseEntries(kids)
	}
	return out
}

// Lint reports menu shapes that will not survive the callback wire format:
// ids containing the path delimiter, and serialized paths longer than the
// transport's callback-data limit (maxToken; 0 disables the length check).
func Lint(f Forest, maxToken int) []string {
	var warns []string
	f.walk(func(path []string, n *Node) bool {
		if strings.Contains(n.ID, Delimiter) {
			warns = append(warns, fmt.Sprintf("menu id %q contains %q; buttons below it cannot round-trip", n.ID, Delimiter))
		}
		if token := JoinPath(path); maxToken > 0 && len(token) > maxToken {
			warns = append(warns, fmt.Sprintf("menu path %q is %d bytes, over the %d byte callback limit", token, len(token), maxToken))
		}
		return true
	})
	return warns
}
