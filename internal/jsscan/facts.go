// Package jsscan extracts inheritance declarations, property tables and
// handler names from nexacro JavaScript sources.
package jsscan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	nxerrors "nxmeta/internal/errors"
)

// Property is one entry of a _properties table.
type Property struct {
	Name     string `json:"name"`
	Readonly bool   `json:"readonly,omitempty"`
	// InheritedFrom names the component that declares the property.
	InheritedFrom string `json:"inheritedFrom"`
}

// Prototype is a `var P = nexacro._createPrototype(Parent, Child);` line.
type Prototype struct {
	Var    string `json:"var"`
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Facts is what one source file declares.
type Facts struct {
	File       string                `json:"file"`
	Prototypes []Prototype           `json:"prototypes"`
	Properties map[string][]Property `json:"properties"`
	// Handlers maps an object name to the names after "on_" of the
	// functions assigned to <object>.on_<name>.
	Handlers map[string][]string `json:"handlers"`
	// PropertyRefs are the names after "_p_" in member accesses like
	// this._p_value, deduplicated and sorted.
	PropertyRefs []string `json:"propertyRefs"`
}

func newFacts(file string) *Facts {
	return &Facts{
		File:         file,
		Prototypes:   []Prototype{},
		Properties:   map[string][]Property{},
		Handlers:     map[string][]string{},
		PropertyRefs: []string{},
	}
}

// HandlerNames lists handler names defined on this file's prototype
// variables. A file without prototypes reports every handler it assigns.
func (f *Facts) HandlerNames() []string {
	seen := map[string]struct{}{}
	add := func(names []string) {
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	if len(f.Prototypes) == 0 {
		for _, names := range f.Handlers {
			add(names)
		}
	} else {
		for _, p := range f.Prototypes {
			add(f.Handlers[p.Var])
		}
	}
	return sortedKeys(seen)
}

func (f *Facts) addHandler(obj, name string) {
	for _, n := range f.Handlers[obj] {
		if n == name {
			return
		}
	}
	f.Handlers[obj] = append(f.Handlers[obj], name)
}

func (f *Facts) finish(refs map[string]struct{}) {
	f.PropertyRefs = sortedKeys(refs)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// File is one source to scan.
type File struct {
	Name    string
	Content []byte
}

// Scan extracts facts from every file with the default extractor and
// builds the combined hierarchy.
func Scan(ctx context.Context, files []File) (*Hierarchy, []*Facts, error) {
	ex := NewExtractor()
	all := make([]*Facts, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		facts, err := ex.Extract(ctx, f.Name, f.Content)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, facts)
	}
	return Build(all), all, nil
}

// ReadDir loads every .js file below dir in lexical order.
func ReadDir(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".js") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files = append(files, File{Name: filepath.ToSlash(rel), Content: data})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.New(nxerrors.NotFound, "source directory "+dir, err)
		}
		return nil, nxerrors.New(nxerrors.InternalError, "reading sources in "+dir, err)
	}
	return files, nil
}
