// Package grouping sorts every component name in the inheritance graph into
// one navigation category.
package grouping

import (
	"sort"
	"strings"

	"nxmeta/internal/lineage"
	"nxmeta/internal/reconcile"
)

// DefaultMarker is the base class whose descendants count as components.
const DefaultMarker = "nexacro.Component"

// Category is a navigation group.
type Category string

const (
	Component Category = "Component"
	Control   Category = "Control"
	EventInfo Category = "EventInfo"
	ETC       Category = "ETC"
)

// Order is the display order of categories.
var Order = []Category{Component, Control, EventInfo, ETC}

// Groups maps each category to its sorted member names. Every category is
// present, possibly empty.
type Groups map[Category][]string

// Classify assigns every distinct child name in edges to exactly one
// category.
func Classify(edges []lineage.Edge, marker string) Groups {
	return ClassifyWith(lineage.NewResolver(edges), edges, marker)
}

// ClassifyWith reuses an existing resolver built over edges.
func ClassifyWith(r *lineage.Resolver, edges []lineage.Edge, marker string) Groups {
	if marker == "" {
		marker = DefaultMarker
	}
	g := newGroups()
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e.Child == "" {
			continue
		}
		if _, dup := seen[e.Child]; dup {
			continue
		}
		seen[e.Child] = struct{}{}
		cat := CategoryFor(r, e.Child, marker)
		g[cat] = append(g[cat], e.Child)
	}
	for _, c := range Order {
		sort.Strings(g[c])
	}
	return g
}

// CategoryFor applies the classification rules to a single name: suffix
// checks on the short name first, then a guarded walk up the parent chain.
func CategoryFor(r *lineage.Resolver, name, marker string) Category {
	short := reconcile.ShortName(name)
	switch {
	case strings.HasSuffix(short, "EventInfo"):
		return EventInfo
	case strings.HasSuffix(short, "Control"):
		return Control
	}

	found := false
	r.Ancestors(name, func(n string) bool {
		if n == marker {
			found = true
			return false
		}
		return true
	})
	if found {
		return Component
	}
	return ETC
}

func newGroups() Groups {
	g := make(Groups, len(Order))
	for _, c := range Order {
		g[c] = []string{}
	}
	return g
}

// Filter keeps names whose full or short form contains term, ignoring case.
// An empty term returns a copy of g.
func (g Groups) Filter(term string) Groups {
	term = strings.ToLower(strings.TrimSpace(term))
	out := newGroups()
	for _, c := range Order {
		for _, name := range g[c] {
			if term == "" ||
				strings.Contains(strings.ToLower(name), term) ||
				strings.Contains(strings.ToLower(reconcile.ShortName(name)), term) {
				out[c] = append(out[c], name)
			}
		}
	}
	return out
}

// CategoryOf finds which category holds name.
func (g Groups) CategoryOf(name string) (Category, bool) {
	for _, c := range Order {
		i := sort.SearchStrings(g[c], name)
		if i < len(g[c]) && g[c][i] == name {
			return c, true
		}
	}
	return "", false
}

// Len counts names across all categories.
func (g Groups) Len() int {
	n := 0
	for _, c := range Order {
		n += len(g[c])
	}
	return n
}

// All lists every name in category order.
func (g Groups) All() []string {
	out := make([]string, 0, g.Len())
	for _, c := range Order {
		out = append(out, g[c]...)
	}
	return out
}
