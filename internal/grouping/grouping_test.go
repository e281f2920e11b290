package grouping

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"nxmeta/internal/lineage"
)

var sampleEdges = []lineage.Edge{
	{Child: "nexacro.Component", Parent: "nexacro._EventSinkObject"},
	{Child: "nexacro.Grid", Parent: "nexacro.Component"},
	{Child: "nexacro.Button", Parent: "nexacro.Component"},
	{Child: "nexacro.FooEventInfo", Parent: "nexacro.Event"},
	{Child: "nexacro.BarControl", Parent: "nexacro.Component"},
	{Child: "nexacro.Orphan", Parent: "nexacro.Nothing"},
	{Child: "nexacro.Loop1", Parent: "nexacro.Loop2"},
	{Child: "nexacro.Loop2", Parent: "nexacro.Loop1"},
}

func TestClassify(t *testing.T) {
	g := Classify(sampleEdges, DefaultMarker)

	assert.Equal(t, []string{"nexacro.Button", "nexacro.Component", "nexacro.Grid"}, g[Component])
	assert.Equal(t, []string{"nexacro.BarControl"}, g[Control])
	assert.Equal(t, []string{"nexacro.FooEventInfo"}, g[EventInfo])
	assert.Equal(t, []string{"nexacro.Loop1", "nexacro.Loop2", "nexacro.Orphan"}, g[ETC])
}

func TestClassifySuffixBeatsAncestry(t *testing.T) {
	edges := []lineage.Edge{{Child: "nexacro.GridControl", Parent: "nexacro.Component"}}
	g := Classify(edges, "")
	assert.Equal(t, []string{"nexacro.GridControl"}, g[Control])
	assert.Empty(t, g[Component])
}

func TestFilter(t *testing.T) {
	g := Classify(sampleEdges, DefaultMarker)

	got := g.Filter("GRID")
	assert.Equal(t, []string{"nexacro.Grid"}, got[Component])
	assert.Empty(t, got[ETC])

	assert.Equal(t, g.Len(), g.Filter("").Len())
	assert.Equal(t, g.Len(), g.Filter("nexacro").Len())
}

func TestCategoryOf(t *testing.T) {
	g := Classify(sampleEdges, DefaultMarker)

	c, ok := g.CategoryOf("nexacro.Orphan")
	assert.True(t, ok)
	assert.Equal(t, ETC, c)

	_, ok = g.CategoryOf("nexacro.Missing")
	assert.False(t, ok)
}

func TestGroupingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	names := []string{"nexacro.Component", "nexacro.A", "nexacro.BControl", "nexacro.CEventInfo", "nexacro.D", "nexacro.E"}

	properties.Property("every child lands in exactly one category", prop.ForAll(
		func(codes []int) bool {
			var edges []lineage.Edge
			children := map[string]struct{}{}
			for _, c := range codes {
				e := lineage.Edge{Child: names[c/6], Parent: names[c%6]}
				edges = append(edges, e)
				children[e.Child] = struct{}{}
			}
			g := Classify(edges, DefaultMarker)

			count := map[string]int{}
			for _, n := range g.All() {
				count[n]++
			}
			if len(count) != len(children) {
				return false
			}
			for n := range children {
				if count[n] != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 35)),
	))

	properties.TestingRun(t)
}

func BenchmarkClassify(b *testing.B) {
	var edges []lineage.Edge
	for i := 0; i < 500; i++ {
		edges = append(edges, lineage.Edge{Child: fmt.Sprintf("nexacro.C%d", i), Parent: "nexacro.Component"})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(edges, DefaultMarker)
	}
}
