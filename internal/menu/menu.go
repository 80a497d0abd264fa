// Package menu holds the navigation tree the bot serves: an ordered forest
// of nodes loaded once from YAML at startup and read-only afterwards, plus
// the path addressing used to round-trip navigation state through callback
// buttons.
package menu

import "strings"

// Node is a single entry of the navigation tree. A node with no children is
// a leaf; only leaves carry an answer. Nodes are never mutated after the
// loader returns, so the tree is safe for concurrent reads without locking.
type Node struct {
	ID       string
	Text     string
	Answer   string
	Children []Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

func (n *Node) find(path []string) (*Node, bool) {
	if len(path) == 0 {
		return n, true
	}
	for i := range n.Children {
		if n.Children[i].ID == path[0] {
			return n.Children[i].find(path[1:])
		}
	}
	return nil, false
}

// Forest is the ordered list of root-level nodes.
type Forest []Node

// Find resolves a path of ids starting at the forest roots, matching one id
// per level in order, first match wins. Any level that fails to match means
// not found; Find never returns a partial node. An empty path resolves to
// nothing (the root menu itself is not a node).
func (f Forest) Find(path []string) (*Node, bool) {
	if len(path) == 0 {
		return nil, false
	}
	for i := range f {
		if f[i].ID == path[0] {
			return f[i].find(path[1:])
		}
	}
	return nil, false
}

// Breadcrumb renders the display texts along path, root to leaf, joined with
// " / ". Every prefix of the path is re-resolved from the forest roots; an
// unresolvable path yields an empty crumb.
func (f Forest) Breadcrumb(path []string) string {
	parts := make([]string, 0, len(path))
	for p := path; len(p) > 0; p = p[:len(p)-1] {
		n, ok := f.Find(p)
		if !ok {
			break
		}
		parts = append(parts, strings.TrimSpace(n.Text))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

// Leaf pairs a leaf node with the path that addresses it.
type Leaf struct {
	Path []string
	Node *Node
}

// Leaves returns every leaf of the forest in depth-first document order.
func (f Forest) Leaves() []Leaf {
	var out []Leaf
	f.walk(func(path []string, n *Node) bool {
		if n.IsLeaf() {
			p := make([]string, len(path))
			copy(p, path)
			out = append(out, Leaf{Path: p, Node: n})
		}
		return true
	})
	return out
}

// MatchAnswer performs the free-text lookup: each whitespace-separated word
// of query is matched case-insensitively as a substring of every leaf
// answer, depth-first in document order. The first leaf that matches any
// word wins. An empty query matches nothing.
func (f Forest) MatchAnswer(query string) (string, bool) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return "", false
	}
	var answer string
	found := false
	f.walk(func(_ []string, n *Node) bool {
		if !n.IsLeaf() || n.Answer == "" {
			return true
		}
		low := strings.ToLower(n.Answer)
		for _, w := range words {
			if strings.Contains(low, w) {
				answer, found = n.Answer, true
				return false
			}
		}
		return true
	})
	return answer, found
}

// walk visits every node depth-first in document order. The path slice is
// reused between calls; visitors that retain it must copy. Returning false
// stops the walk.
func (f Forest) walk(visit func(path []string, n *Node) bool) {
	var rec func(path []string, nodes []Node) bool
	rec = func(path []string, nodes []Node) bool {
		for i := range nodes {
			n := &nodes[i]
			p := append(path, n.ID)
			if !visit(p, n) {
				return false
			}
			if !rec(p, n.Children) {
				return false
			}
		}
		return true
	}
	rec(nil, f)
}
