// Package lineage reconstructs ancestor chains from a flat child/parent edge list.
package lineage

// DefaultRoot is the base object every nexacro component chain starts from.
const DefaultRoot = "nexacro._EventSinkObject"

// Edge is one inheritance relation as stored in the codebase output bundle.
type Edge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

// Node is one step of a lineage. A resolved lineage is a single-child chain
// from the root down to the queried name.
type Node struct {
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// HasLineage reports whether the node carries any descendants. A node
// without children is the "no inheritance structure" result.
func (n *Node) HasLineage() bool {
	return n != nil && len(n.Children) > 0
}

// Chain flattens the chain following the first child at every level.
func (n *Node) Chain() []string {
	var out []string
	for cur := n; cur != nil; {
		out = append(out, cur.Name)
		if len(cur.Children) == 0 {
			break
		}
		cur = cur.Children[0]
	}
	return out
}

// Resolver answers lineage queries over an immutable edge set.
type Resolver struct {
	edges    []Edge
	parents  map[string]string
	universe map[string]struct{}
}

// NewResolver indexes edges. When a child appears more than once the last
// edge wins. Empty names are not part of the universe.
func NewResolver(edges []Edge) *Resolver {
	r := &Resolver{
		edges:    append([]Edge(nil), edges...),
		parents:  make(map[string]string, len(edges)),
		universe: make(map[string]struct{}, len(edges)*2),
	}
	for _, e := range edges {
		if e.Child != "" {
			r.parents[e.Child] = e.Parent
			r.universe[e.Child] = struct{}{}
		}
		if e.Parent != "" {
			r.universe[e.Parent] = struct{}{}
		}
	}
	return r
}

// Edges returns a copy of the indexed edges in load order.
func (r *Resolver) Edges() []Edge {
	return append([]Edge(nil), r.edges...)
}

// Contains reports whether name occurs as a child or parent of any edge.
func (r *Resolver) Contains(name string) bool {
	_, ok := r.universe[name]
	return ok
}

// Parent returns the recorded parent of name.
func (r *Resolver) Parent(name string) (string, bool) {
	p, ok := r.parents[name]
	return p, ok && p != ""
}

// Size is the number of distinct names in the universe.
func (r *Resolver) Size() int {
	return len(r.universe)
}

// Path walks from target towards root and returns the names in root-to-target
// order. The walk stops without success when it leaves the universe, runs
// out of parents or revisits a name.
func (r *Resolver) Path(target, root string) ([]string, bool) {
	if !r.Contains(target) {
		return nil, false
	}

	visited := make(map[string]struct{})
	var path []string
	cur := target
	for cur != "" {
		if !r.Contains(cur) {
			return nil, false
		}
		if _, seen := visited[cur]; seen {
			return nil, false
		}
		visited[cur] = struct{}{}
		path = append(path, cur)
		if cur == root {
			reverse(path)
			return path, true
		}
		cur = r.parents[cur]
	}
	return nil, false
}

// Resolve builds the lineage chain for target. On any failure the result is
// the degenerate node {target, []}; callers check HasLineage.
func (r *Resolver) Resolve(target, root string) *Node {
	path, ok := r.Path(target, root)
	if !ok {
		return &Node{Name: target, Children: []*Node{}}
	}

	head := &Node{Name: path[0], Children: []*Node{}}
	cur := head
	for _, name := range path[1:] {
		next := &Node{Name: name, Children: []*Node{}}
		cur.Children = []*Node{next}
		cur = next
	}
	return head
}

// ChildrenOf lists the direct children of name in edge order.
func (r *Resolver) ChildrenOf(name string) []string {
	out := []string{}
	for _, e := range r.edges {
		if e.Parent == name {
			out = append(out, e.Child)
		}
	}
	return out
}

// Ancestors walks parents from name (inclusive) until the chain ends or
// loops, calling visit for every name. Returning false from visit stops the
// walk. Unlike Path it needs no fixed root.
func (r *Resolver) Ancestors(name string, visit func(string) bool) {
	visited := make(map[string]struct{})
	for cur := name; cur != ""; cur = r.parents[cur] {
		if _, seen := visited[cur]; seen {
			return
		}
		visited[cur] = struct{}{}
		if !visit(cur) {
			return
		}
	}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
