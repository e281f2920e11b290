// Package crosscheck compares what an INFO document declares with what the
// component's JavaScript source implements.
package crosscheck

import (
	"context"

	"nxmeta/internal/export"
	"nxmeta/internal/infodoc"
	"nxmeta/internal/jsscan"
	"nxmeta/internal/reconcile"
)

// Result partitions method and property names. A is the INFO document and
// B the JavaScript source.
type Result struct {
	Component  string               `json:"component"`
	Methods    reconcile.Comparison `json:"methods"`
	Properties reconcile.Comparison `json:"properties"`
}

// InfoNames returns the method names and the property names (PropertyInfo
// and CSSInfo) declared by doc. Empty names are skipped.
func InfoNames(doc *infodoc.Document) (methods, properties []string) {
	methods = []string{}
	properties = []string{}
	for _, m := range doc.Methods {
		if m.Name.Value != "" {
			methods = append(methods, m.Name.Value)
		}
	}
	for _, p := range doc.Properties {
		if p.Name.Value != "" {
			properties = append(properties, p.Name.Value)
		}
	}
	for _, p := range doc.CSS {
		if p.Name.Value != "" {
			properties = append(properties, p.Name.Value)
		}
	}
	return methods, properties
}

// Compare checks doc against the facts extracted from its source.
func Compare(doc *infodoc.Document, facts *jsscan.Facts) Result {
	methods, props := InfoNames(doc)
	return Result{
		Component:  doc.ObjectID,
		Methods:    reconcile.Compare(methods, facts.HandlerNames()),
		Properties: reconcile.Compare(props, facts.PropertyRefs),
	}
}

// Run parses both texts and compares them.
func Run(ctx context.Context, infoText string, jsName string, jsSource []byte) (Result, error) {
	doc, err := infodoc.Parse(infoText)
	if err != nil {
		return Result{}, err
	}
	facts, err := jsscan.NewExtractor().Extract(ctx, jsName, jsSource)
	if err != nil {
		return Result{}, err
	}
	return Compare(doc, facts), nil
}

// Sheet headers.
const (
	SheetName    = "CrossCheck"
	StatusMatch  = "match"
	StatusInfo   = "info-only"
	StatusSource = "source-only"
)

// Sheets lists every name with its kind and status.
func (r Result) Sheets() []export.Sheet {
	s := export.Sheet{Name: SheetName, Headers: []string{"Kind", "Name", "Status"}, Rows: [][]string{}}
	add := func(kind string, c reconcile.Comparison) {
		for _, n := range c.Common {
			s.Rows = append(s.Rows, []string{kind, n, StatusMatch})
		}
		for _, n := range c.OnlyInA {
			s.Rows = append(s.Rows, []string{kind, n, StatusInfo})
		}
		for _, n := range c.OnlyInB {
			s.Rows = append(s.Rows, []string{kind, n, StatusSource})
		}
	}
	add("Method", r.Methods)
	add("Property", r.Properties)
	return []export.Sheet{s}
}
