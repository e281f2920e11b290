package infodoc

import (
	"encoding/xml"
	"io"
	"strings"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
)

// SyntaxHeaders are the CSV columns for methods and event handlers.
var SyntaxHeaders = []string{"Name", "Syntax", "Arguments", "Return Type", "Return Description", "Description"}

// SyntaxRow is one flattened method or event handler.
type SyntaxRow struct {
	Name              string `json:"name"`
	Syntax            string `json:"syntax"`
	Arguments         string `json:"arguments"`
	ReturnType        string `json:"returnType"`
	ReturnDescription string `json:"returnDescription"`
	Description       string `json:"description"`
}

// Values returns the row in SyntaxHeaders order.
func (r SyntaxRow) Values() []string {
	return []string{r.Name, r.Syntax, r.Arguments, r.ReturnType, r.ReturnDescription, r.Description}
}

// EventHandlerRows flattens every EventHandler element in text.
func EventHandlerRows(text string) ([]SyntaxRow, error) {
	recs, err := collect[EventHandlerRecord](text, "", "EventHandler")
	if err != nil {
		return nil, err
	}
	rows := make([]SyntaxRow, 0, len(recs))
	for _, r := range recs {
		row := SyntaxRow{Name: r.Name.Value, Description: r.Description.Value}
		fillSyntax(&row, r.Syntax, false)
		rows = append(rows, row)
	}
	return rows, nil
}

// MethodRows flattens every Method element in text. Method names lose
// their first '-' and descriptions are folded onto one line.
func MethodRows(text string) ([]SyntaxRow, error) {
	recs, err := collect[MethodRecord](text, "", "Method")
	if err != nil {
		return nil, err
	}
	rows := make([]SyntaxRow, 0, len(recs))
	for _, r := range recs {
		row := SyntaxRow{
			Name:        strings.Replace(r.Name.Value, "-", "", 1),
			Description: singleLine(r.Description.Value),
		}
		fillSyntax(&row, r.Syntax, true)
		rows = append(rows, row)
	}
	return rows, nil
}

func fillSyntax(row *SyntaxRow, s *Syntax, foldReturn bool) {
	if s == nil {
		return
	}
	row.Syntax = s.Text.Value
	if s.Return != nil {
		row.ReturnType = s.Return.Type.Value
		row.ReturnDescription = s.Return.Description.Value
		if foldReturn {
			row.ReturnDescription = singleLine(row.ReturnDescription)
		}
	}
	row.Arguments = FlattenArguments(s.Arguments)
}

// FlattenArguments joins arguments as "name:type:description" triples
// separated by " | ".
func FlattenArguments(args []Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Name.Value+":"+a.Type.Value+":"+singleLine(a.Description.Value))
	}
	return strings.Join(parts, " | ")
}

func singleLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "\r", "")
}

type anyElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// SectionRows extracts the headers attributes of every element directly
// inside a parent element, e.g. StatusInfo > Status. Missing attributes
// become empty cells.
func SectionRows(text, parent, element string, headers []string) ([][]string, error) {
	elems, err := collect[anyElement](text, parent, element)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(elems))
	for _, e := range elems {
		row := make([]string, len(headers))
		for i, h := range headers {
			for _, a := range e.Attrs {
				if attrName(a.Name) == h {
					row[i] = a.Value
					break
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// collect decodes every element named element. When parent is set only
// direct children of a parent element are taken.
func collect[T any](text, parent, element string) ([]T, error) {
	dec := newDecoder(text)
	var stack []string
	out := []T{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, nxerrors.New(nxerrors.StructuralParse, "INFO document is not well-formed", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == element && (parent == "" || (len(stack) > 0 && stack[len(stack)-1] == parent)) {
				var rec T
				if err := dec.DecodeElement(&rec, &t); err != nil {
					return nil, nxerrors.New(nxerrors.StructuralParse, "INFO document is not well-formed", err)
				}
				out = append(out, rec)
				continue
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// ReportKind selects one of the CSV exports of an INFO document.
type ReportKind string

const (
	EventsReport  ReportKind = "events"
	MethodsReport ReportKind = "methods"
	StatusReport  ReportKind = "status"
	ControlReport ReportKind = "control"
)

// ReportKinds lists the kinds in menu order.
var ReportKinds = []ReportKind{EventsReport, MethodsReport, StatusReport, ControlReport}

// FileName is the download name used for the report.
func (k ReportKind) FileName() string {
	switch k {
	case EventsReport:
		return "Events_Report.csv"
	case MethodsReport:
		return "Methods_Report.csv"
	case StatusReport:
		return "Status_Report.csv"
	case ControlReport:
		return "Control_Report.csv"
	}
	return string(k) + "_Report.csv"
}

// BuildReport produces the table for kind. A document without matching
// elements is a NotFound error so callers do not write an empty file.
func BuildReport(text string, kind ReportKind) (export.Sheet, error) {
	sheet := export.Sheet{Name: kind.FileName()}
	switch kind {
	case EventsReport, MethodsReport:
		var rows []SyntaxRow
		var err error
		if kind == EventsReport {
			rows, err = EventHandlerRows(text)
		} else {
			rows, err = MethodRows(text)
		}
		if err != nil {
			return sheet, err
		}
		sheet.Headers = SyntaxHeaders
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, r.Values())
		}
	case StatusReport:
		rows, err := SectionRows(text, SectionStatusInfo, "Status", SheetHeaders[SectionStatusInfo])
		if err != nil {
			return sheet, err
		}
		sheet.Headers, sheet.Rows = SheetHeaders[SectionStatusInfo], rows
	case ControlReport:
		rows, err := SectionRows(text, SectionControlInfo, "Control", SheetHeaders[SectionControlInfo])
		if err != nil {
			return sheet, err
		}
		sheet.Headers, sheet.Rows = SheetHeaders[SectionControlInfo], rows
	default:
		return sheet, nxerrors.Newf(nxerrors.InvalidArgument, "unknown report kind %q", kind)
	}

	if len(sheet.Rows) == 0 {
		return sheet, nxerrors.Newf(nxerrors.NotFound, "no %s entries found in INFO document", kind)
	}
	return sheet, nil
}
