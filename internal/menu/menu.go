// Package menu builds the browsable operation hierarchy: a root, one group
// per tag, one leaf per operation. Nodes live in a flat arena and refer to
// each other by index.
package menu

import (
	"strings"

	"github.com/kolah/oinkctl/internal/catalog"
	"github.com/kolah/oinkctl/internal/model"
)

// internalTag is reserved for the API's own developers and never shown.
const internalTag = "developers"

const trailingPunctuation = ".,;:!? \t"

const NoParent = -1

type Node struct {
	Name      string
	Tag       string
	Operation *catalog.Operation
	Children  []int
	Parent    int
	// Ignored nodes stay in the tree but are skipped by traversal.
	Ignored bool
}

func (n *Node) IsLeaf() bool {
	return n.Operation != nil
}

type Tree struct {
	nodes []Node
	root  int
}

// Build creates the tree bottom-up: operation leaves first, then their tag
// group, then the root, so every link points at an existing node.
func Build(c *catalog.Catalog, tags []model.Tag) *Tree {
	t := &Tree{}
	var groups []int
	for _, tag := range tags {
		if strings.EqualFold(tag.Name, internalTag) {
			continue
		}
		var leaves []int
		for _, op := range c.FindByTag(tag.Name) {
			leaves = append(leaves, t.add(Node{
				Name:      DisplayName(op),
				Tag:       tag.Name,
				Operation: op,
				Ignored:   op.Ignore,
			}))
		}
		groups = append(groups, t.add(Node{
			Name:    tag.Name,
			Tag:     tag.Name,
			Ignored: tag.Ignore,
		}, leaves...))
	}
	t.root = t.add(Node{Name: "Main Menu"}, groups...)
	return t
}

func (t *Tree) add(n Node, children ...int) int {
	idx := len(t.nodes)
	n.Parent = NoParent
	n.Children = children
	t.nodes = append(t.nodes, n)
	for _, c := range children {
		t.nodes[c].Parent = idx
	}
	return idx
}

func (t *Tree) Root() int {
	return t.root
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node at idx. The returned pointer must not be modified.
func (t *Tree) Node(idx int) *Node {
	return &t.nodes[idx]
}

// Visible returns the children of idx that are not ignored.
func (t *Tree) Visible(idx int) []int {
	var out []int
	for _, c := range t.nodes[idx].Children {
		if !t.nodes[c].Ignored {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits non-ignored nodes depth-first, parents before children. The
// subtree below a node is skipped when fn returns false.
func (t *Tree) Walk(fn func(idx, depth int) bool) {
	t.walk(t.root, 0, fn)
}

func (t *Tree) walk(idx, depth int, fn func(idx, depth int) bool) {
	if t.nodes[idx].Ignored {
		return
	}
	if !fn(idx, depth) {
		return
	}
	for _, c := range t.nodes[idx].Children {
		t.walk(c, depth+1, fn)
	}
}

// Operations returns the operations of every reachable leaf in traversal
// order.
func (t *Tree) Operations() []*catalog.Operation {
	var ops []*catalog.Operation
	t.Walk(func(idx, _ int) bool {
		if n := t.nodes[idx]; n.IsLeaf() {
			ops = append(ops, n.Operation)
		}
		return true
	})
	return ops
}

// Path returns the names from the root down to idx.
func (t *Tree) Path(idx int) []string {
	var names []string
	for i := idx; i != NoParent; i = t.nodes[i].Parent {
		names = append(names, t.nodes[i].Name)
	}
	for l, r := 0, len(names)-1; l < r; l, r = l+1, r-1 {
		names[l], names[r] = names[r], names[l]
	}
	return names
}

// DisplayName labels an operation with its summary, or its description, minus
// trailing punctuation.
func DisplayName(op *catalog.Operation) string {
	for _, s := range []string{op.Summary, op.Description} {
		if name := strings.TrimRight(strings.TrimSpace(s), trailingPunctuation); name != "" {
			return name
		}
	}
	return op.ID
}
