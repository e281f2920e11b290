// Package reconcile compares the property and event names one component
// exposes in the parsed codebase against the names documented in metainfo.
package reconcile

import (
	"sort"
	"strings"
)

// Comparison is the three-way partition of two name sets. Every bucket is
// deduplicated and sorted ascending.
type Comparison struct {
	Common  []string `json:"common"`
	OnlyInA []string `json:"onlyInA"`
	OnlyInB []string `json:"onlyInB"`
}

// Total is the number of distinct names across both inputs.
func (c Comparison) Total() int {
	return len(c.Common) + len(c.OnlyInA) + len(c.OnlyInB)
}

// Compare partitions a and b using exact, case-sensitive equality.
func Compare(a, b []string) Comparison {
	setA := toSet(a)
	setB := toSet(b)

	c := Comparison{Common: []string{}, OnlyInA: []string{}, OnlyInB: []string{}}
	for name := range setA {
		if _, ok := setB[name]; ok {
			c.Common = append(c.Common, name)
		} else {
			c.OnlyInA = append(c.OnlyInA, name)
		}
	}
	for name := range setB {
		if _, ok := setA[name]; !ok {
			c.OnlyInB = append(c.OnlyInB, name)
		}
	}
	sort.Strings(c.Common)
	sort.Strings(c.OnlyInA)
	sort.Strings(c.OnlyInB)
	return c
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Kind names the metadata flavour being compared.
type Kind string

const (
	Properties Kind = "Properties"
	Events     Kind = "Events"
)

// Entry is one element of a properties or events bundle.
type Entry struct {
	ComponentName string   `json:"componentname"`
	Properties    []string `json:"properties,omitempty"`
	Events        []string `json:"events,omitempty"`
}

// Items returns whichever list the entry carries for kind.
func (e Entry) Items(kind Kind) []string {
	if kind == Events {
		return e.Events
	}
	return e.Properties
}

// NameSets maps a component name, as written in the bundle, to its items.
type NameSets map[string][]string

// NewNameSets indexes bundle entries. The first entry for a component is
// kept; later duplicates are ignored.
func NewNameSets(entries []Entry, kind Kind) NameSets {
	sets := make(NameSets, len(entries))
	for _, e := range entries {
		if e.ComponentName == "" {
			continue
		}
		if _, seen := sets[e.ComponentName]; seen {
			continue
		}
		items := e.Items(kind)
		if items == nil {
			items = []string{}
		}
		sets[e.ComponentName] = items
	}
	return sets
}

// Get returns the items recorded under name.
func (s NameSets) Get(name string) ([]string, bool) {
	items, ok := s[name]
	return items, ok
}

// Names lists the recorded component names, sorted.
func (s NameSets) Names() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ShortName is the last dot segment of a fully qualified name.
func ShortName(fq string) string {
	if i := strings.LastIndex(fq, "."); i >= 0 {
		return fq[i+1:]
	}
	return fq
}

// LookupName is the short name with a single leading underscore removed.
// Bundles record "_EventSinkObject" as "EventSinkObject".
func LookupName(fq string) string {
	return strings.TrimPrefix(ShortName(fq), "_")
}

// Sources groups the four bundles a full reconciliation reads.
type Sources struct {
	CodebaseProperties NameSets
	CodebaseEvents     NameSets
	MetainfoProperties NameSets
	MetainfoEvents     NameSets
}

// ComponentComparison is the per-component result of CompareAll. A is the
// codebase side and B the metainfo side.
type ComponentComparison struct {
	Component  string     `json:"component"`
	Properties Comparison `json:"properties"`
	Events     Comparison `json:"events"`
}

// ForKind selects the comparison for kind.
func (c ComponentComparison) ForKind(kind Kind) Comparison {
	if kind == Events {
		return c.Events
	}
	return c.Properties
}

// CompareAll compares every component by its short name. Components with
// no items on either side for both kinds are left out.
func CompareAll(components []string, src Sources) []ComponentComparison {
	out := []ComponentComparison{}
	seen := make(map[string]struct{}, len(components))
	for _, fq := range components {
		if _, dup := seen[fq]; dup {
			continue
		}
		seen[fq] = struct{}{}

		short := ShortName(fq)
		cbProps := src.CodebaseProperties[short]
		miProps := src.MetainfoProperties[short]
		cbEvents := src.CodebaseEvents[short]
		miEvents := src.MetainfoEvents[short]

		if len(cbProps)+len(miProps) == 0 && len(cbEvents)+len(miEvents) == 0 {
			continue
		}
		out = append(out, ComponentComparison{
			Component:  fq,
			Properties: Compare(cbProps, miProps),
			Events:     Compare(cbEvents, miEvents),
		})
	}
	return out
}

// Summary totals a set of component comparisons per kind.
type Summary struct {
	Components int `json:"components"`
	Common     int `json:"common"`
	OnlyInA    int `json:"onlyInA"`
	OnlyInB    int `json:"onlyInB"`
}

// Summarize adds up bucket sizes for kind.
func Summarize(results []ComponentComparison, kind Kind) Summary {
	s := Summary{}
	for _, r := range results {
		c := r.ForKind(kind)
		if c.Total() == 0 {
			continue
		}
		s.Components++
		s.Common += len(c.Common)
		s.OnlyInA += len(c.OnlyInA)
		s.OnlyInB += len(c.OnlyInB)
	}
	return s
}
