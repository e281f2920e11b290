// Package report flattens lineage chains and reconciliation results into
// sheets for the export writers. Nothing here does I/O.
package report

import (
	"strconv"
	"strings"

	"nxmeta/internal/dataset"
	"nxmeta/internal/export"
	"nxmeta/internal/reconcile"
)

// Sheet names and headers of the lineage workbook.
const (
	SheetInheritancePath = "InheritancePath"
	SheetProperties      = "Properties"
	SheetEvents          = "Events"

	HeaderInheritancePath = "Inheritance Path"
	HeaderComponent       = "Component"
	HeaderProperty        = "Property"
	HeaderEvent           = "Event"
)

// ItemRow ties one property or event to the ancestor that declares it.
type ItemRow struct {
	Component string `json:"component" yaml:"component"`
	Item      string `json:"item" yaml:"item"`
}

// LineageReport is the flattened view of one lineage chain.
type LineageReport struct {
	Target       string    `json:"target" yaml:"target"`
	PathRows     []string  `json:"path" yaml:"path"`
	PropertyRows []ItemRow `json:"properties" yaml:"properties"`
	EventRows    []ItemRow `json:"events" yaml:"events"`
}

// BuildLineageReport emits one path row per ancestor in root-to-target
// order, then one row per recorded item of each ancestor. Ancestors are
// looked up by LookupName; an ancestor without a recorded set adds no rows.
func BuildLineageReport(chain []string, props, events reconcile.NameSets) LineageReport {
	r := LineageReport{
		PathRows:     make([]string, 0, len(chain)),
		PropertyRows: []ItemRow{},
		EventRows:    []ItemRow{},
	}
	if len(chain) > 0 {
		r.Target = chain[len(chain)-1]
	}
	for _, fq := range chain {
		r.PathRows = append(r.PathRows, fq)
		key := reconcile.LookupName(fq)
		for _, p := range props[key] {
			r.PropertyRows = append(r.PropertyRows, ItemRow{Component: fq, Item: p})
		}
		for _, e := range events[key] {
			r.EventRows = append(r.EventRows, ItemRow{Component: fq, Item: e})
		}
	}
	return r
}

// FileName is the download name of the workbook, e.g. nexacro.Grid_analysis.xlsx.
func (r LineageReport) FileName() string {
	return r.Target + "_analysis.xlsx"
}

// Sheets renders the report as the three lineage sheets.
func (r LineageReport) Sheets() []export.Sheet {
	path := export.Sheet{Name: SheetInheritancePath, Headers: []string{HeaderInheritancePath}, Rows: [][]string{}}
	for _, name := range r.PathRows {
		path.Rows = append(path.Rows, []string{name})
	}
	return []export.Sheet{
		path,
		itemSheet(SheetProperties, HeaderProperty, r.PropertyRows),
		itemSheet(SheetEvents, HeaderEvent, r.EventRows),
	}
}

func itemSheet(name, header string, rows []ItemRow) export.Sheet {
	s := export.Sheet{Name: name, Headers: []string{HeaderComponent, header}, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		s.Rows = append(s.Rows, []string{row.Component, row.Item})
	}
	return s
}

// ReconciliationRow is the partition of one component for one kind. A is
// the codebase and B the metainfo.
type ReconciliationRow struct {
	Component string         `json:"component" yaml:"component"`
	Kind      reconcile.Kind `json:"kind" yaml:"kind"`
	Common    int            `json:"common" yaml:"common"`
	OnlyInA   int            `json:"onlyInA" yaml:"onlyInA"`
	OnlyInB   int            `json:"onlyInB" yaml:"onlyInB"`

	CommonItems  []string `json:"commonItems" yaml:"commonItems"`
	OnlyInAItems []string `json:"onlyInAItems" yaml:"onlyInAItems"`
	OnlyInBItems []string `json:"onlyInBItems" yaml:"onlyInBItems"`
}

// BuildFullReconciliationReport compares every component and emits a
// Properties row and an Events row for each one with a nonzero total.
func BuildFullReconciliationReport(components []string, src reconcile.Sources) []ReconciliationRow {
	results := reconcile.CompareAll(components, src)
	rows := make([]ReconciliationRow, 0, 2*len(results))
	for _, res := range results {
		for _, kind := range []reconcile.Kind{reconcile.Properties, reconcile.Events} {
			c := res.ForKind(kind)
			if c.Total() == 0 {
				continue
			}
			rows = append(rows, ReconciliationRow{
				Component:    res.Component,
				Kind:         kind,
				Common:       len(c.Common),
				OnlyInA:      len(c.OnlyInA),
				OnlyInB:      len(c.OnlyInB),
				CommonItems:  c.Common,
				OnlyInAItems: c.OnlyInA,
				OnlyInBItems: c.OnlyInB,
			})
		}
	}
	return rows
}

// Reconciliation sheet layout.
const (
	SheetReconciliation = "Reconciliation"
	itemSep             = "|"
)

// ReconciliationHeaders is the column order of the reconciliation sheet.
var ReconciliationHeaders = []string{
	"Component", "Kind", "Common", "Missing in Metainfo", "Extra in Metainfo",
	"Common Items", "Missing Items", "Extra Items",
}

// ReconciliationSheets renders rows as a single sheet; item lists are
// joined with "|".
func ReconciliationSheets(rows []ReconciliationRow) []export.Sheet {
	s := export.Sheet{Name: SheetReconciliation, Headers: ReconciliationHeaders, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		s.Rows = append(s.Rows, []string{
			r.Component,
			string(r.Kind),
			strconv.Itoa(r.Common),
			strconv.Itoa(r.OnlyInA),
			strconv.Itoa(r.OnlyInB),
			strings.Join(r.CommonItems, itemSep),
			strings.Join(r.OnlyInAItems, itemSep),
			strings.Join(r.OnlyInBItems, itemSep),
		})
	}
	return []export.Sheet{s}
}

// SheetAnnotations holds one row per annotation.
const SheetAnnotations = "Annotations"

// AnnotationHeaders are the columns of the annotations sheet.
var AnnotationHeaders = []string{"Component", "Line", "Type", "Content"}

// AnnotationSheets lists every annotation of files in bundle order.
func AnnotationSheets(files []dataset.AnnotatedFile) []export.Sheet {
	s := export.Sheet{Name: SheetAnnotations, Headers: AnnotationHeaders, Rows: [][]string{}}
	for _, f := range files {
		for _, a := range f.Annotations {
			s.Rows = append(s.Rows, []string{f.Component, strconv.Itoa(a.Line), a.Type, a.Content})
		}
	}
	return []export.Sheet{s}
}
