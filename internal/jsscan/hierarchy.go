package jsscan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/lineage"
	"nxmeta/internal/reconcile"
)

// RootName labels the synthetic node placed above several roots.
const RootName = "(root)"

// Hierarchy is the inheritance forest declared by a set of sources.
type Hierarchy struct {
	edges    []lineage.Edge
	parent   map[string]string
	children map[string][]string
	order    []string
	// declared holds the own properties of every component that appears
	// as the child of a prototype declaration.
	declared map[string][]Property
}

// Build merges facts in order. The first declaration of a child fixes its
// parent; later duplicates are ignored.
func Build(all []*Facts) *Hierarchy {
	h := &Hierarchy{
		parent:   map[string]string{},
		children: map[string][]string{},
		declared: map[string][]Property{},
	}
	seen := map[string]struct{}{}
	note := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			h.order = append(h.order, name)
		}
	}
	for _, f := range all {
		for _, p := range f.Prototypes {
			if p.Child == "" || p.Parent == "" {
				continue
			}
			if _, dup := h.parent[p.Child]; dup {
				continue
			}
			note(p.Parent)
			note(p.Child)
			h.parent[p.Child] = p.Parent
			h.children[p.Parent] = append(h.children[p.Parent], p.Child)
			h.edges = append(h.edges, lineage.Edge{Child: p.Child, Parent: p.Parent})

			own := make([]Property, 0, len(f.Properties[p.Var]))
			for _, prop := range f.Properties[p.Var] {
				prop.InheritedFrom = p.Child
				own = append(own, prop)
			}
			h.declared[p.Child] = own
		}
	}
	return h
}

// Empty reports whether no prototype declaration was found.
func (h *Hierarchy) Empty() bool { return len(h.edges) == 0 }

// Edges returns the child-parent pairs in declaration order.
func (h *Hierarchy) Edges() []lineage.Edge {
	return append([]lineage.Edge{}, h.edges...)
}

// Components lists every named node in first-seen order.
func (h *Hierarchy) Components() []string {
	return append([]string{}, h.order...)
}

// Children returns the direct children of name.
func (h *Hierarchy) Children(name string) []string {
	return append([]string{}, h.children[name]...)
}

// Roots are nodes that are never a child, in first-seen order.
func (h *Hierarchy) Roots() []string {
	var roots []string
	for _, n := range h.order {
		if _, ok := h.parent[n]; !ok {
			roots = append(roots, n)
		}
	}
	return roots
}

// Leaves are declared components without children, sorted.
func (h *Hierarchy) Leaves() []string {
	var out []string
	for n := range h.declared {
		if len(h.children[n]) == 0 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Tree returns the forest as nodes. Several roots are gathered under a
// RootName node.
func (h *Hierarchy) Tree() *lineage.Node {
	var build func(name string, visited map[string]bool) *lineage.Node
	build = func(name string, visited map[string]bool) *lineage.Node {
		n := &lineage.Node{Name: name, Children: []*lineage.Node{}}
		if visited[name] {
			return n
		}
		visited[name] = true
		for _, c := range h.children[name] {
			n.Children = append(n.Children, build(c, visited))
		}
		return n
	}
	roots := h.Roots()
	visited := map[string]bool{}
	switch len(roots) {
	case 0:
		return nil
	case 1:
		return build(roots[0], visited)
	}
	top := &lineage.Node{Name: RootName, Children: []*lineage.Node{}}
	for _, r := range roots {
		top.Children = append(top.Children, build(r, visited))
	}
	return top
}

// OwnProperties returns what name declares itself.
func (h *Hierarchy) OwnProperties(name string) []Property {
	return append([]Property{}, h.declared[name]...)
}

// InheritedFor collects the properties visible on name: its own first,
// then each ancestor's. A name declared again higher up keeps the nearest
// declaration.
func (h *Hierarchy) InheritedFor(name string) []Property {
	out := []Property{}
	have := map[string]struct{}{}
	visited := map[string]struct{}{}
	for cur := name; cur != ""; cur = h.parent[cur] {
		if _, loop := visited[cur]; loop {
			break
		}
		visited[cur] = struct{}{}
		for _, p := range h.declared[cur] {
			if _, dup := have[p.Name]; dup {
				continue
			}
			have[p.Name] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// ComponentProperties pairs a component with its property list.
type ComponentProperties struct {
	Component  string     `json:"component"`
	Properties []Property `json:"properties"`
}

// InheritedProperties resolves the full property set of every leaf.
func (h *Hierarchy) InheritedProperties() []ComponentProperties {
	leaves := h.Leaves()
	out := make([]ComponentProperties, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, ComponentProperties{Component: l, Properties: h.InheritedFor(l)})
	}
	return out
}

// PropertyBundle is the output_property.json form: own properties of every
// declared component, keyed by lookup name.
func (h *Hierarchy) PropertyBundle() []reconcile.Entry {
	return h.bundle(h.OwnProperties)
}

// AllPropertyBundle is the all_component_properties.json form: inherited
// properties of every declared component.
func (h *Hierarchy) AllPropertyBundle() []reconcile.Entry {
	return h.bundle(h.InheritedFor)
}

func (h *Hierarchy) bundle(props func(string) []Property) []reconcile.Entry {
	out := []reconcile.Entry{}
	for _, n := range h.order {
		if _, ok := h.declared[n]; !ok {
			continue
		}
		names := []string{}
		for _, p := range props(n) {
			names = append(names, p.Name)
		}
		out = append(out, reconcile.Entry{ComponentName: reconcile.LookupName(n), Properties: names})
	}
	return out
}

// Bundle file names written by WriteBundles.
const (
	EdgesFile         = "output.json"
	PropertiesFile    = "output_property.json"
	AllPropertiesFile = "all_component_properties.json"
)

// WriteBundles writes the edge and property bundles into dir, creating it
// when needed. The files use the layout the dataset loader reads from
// <version>/codebase.
func (h *Hierarchy) WriteBundles(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nxerrors.New(nxerrors.ExportFailed, "creating "+dir, err)
	}
	files := []struct {
		name string
		v    interface{}
	}{
		{EdgesFile, h.Edges()},
		{PropertiesFile, h.PropertyBundle()},
		{AllPropertiesFile, h.AllPropertyBundle()},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		data, err := json.MarshalIndent(f.v, "", "  ")
		if err != nil {
			return nil, nxerrors.New(nxerrors.ExportFailed, "encoding "+f.name, err)
		}
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, append(data, '\n'), 0o644); err != nil {
			return nil, nxerrors.New(nxerrors.ExportFailed, "writing "+p, err)
		}
		written = append(written, p)
	}
	return written, nil
}
