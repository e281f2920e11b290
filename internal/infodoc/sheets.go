package infodoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
)

// Columns that carry a flattened Syntax block in method sheets.
const (
	ColSyntaxText        = "syntax_text"
	ColReturnType        = "return_type"
	ColReturnDescription = "return_description"
	ColArgumentsJSON     = "arguments_json"
	colFromFile          = "fromFile"
)

var syntaxColumns = []string{ColSyntaxText, ColReturnType, ColReturnDescription, ColArgumentsJSON}

// SheetOrder is the sheet order of an INFO workbook.
var SheetOrder = []string{
	SectionObjectInfo, SectionPropertyInfo, SectionCSSInfo, SectionStatusInfo,
	SectionControlInfo, SectionMethodInfo, SectionEventHandlerInfo,
}

// SheetHeaders are the fixed columns of every INFO workbook sheet.
var SheetHeaders = map[string][]string{
	SectionObjectInfo: {"id", "finalclass", "inheritance", "classname", "shorttypename", "csstypename", "csscontrolname", "group", "subgroup", "csspseudo", "container", "composite", "tabstop", "cssstyle", "contents", "formats", "contentseditor", "defaultwidth", "defaultheight", "registration", "edittype", "useinitvalue", "popup", "edittypecomponent", "dblclickevent", "requirement", "description"},
	SectionPropertyInfo: {"name", "group", "subgroup", "refreshinfo", "displayinfo", "edittype", "defaultvalue", "readonly", "initonly", "hidden", "control", "expr", "bind", "deprecated", "unused", "mandatory", "objectinfo", "enuminfo", "enuminfo2", "unitinfo", "delimiter", "requirement", "description", "csspropertyname", "normalpropertyname", "stringrc", "defaultstringrc"},
	SectionCSSInfo: {"name", "group", "subgroup", "edittype", "readonly", "initonly", "hidden", "control", "style", "expr", "bind", "deprecated", "unused", "mandatory", "objectinfo", "enuminfo", "unitinfo", "delimiter", "requirement", "description", "csspropertyname", "normalpropertyname", "stringrc", "defaultstringrc"},
	SectionStatusInfo:       {"name", "control", "default", "deprecated", "unused", "group"},
	SectionControlInfo:      {"name", "classname", "unusedstatus", "unusedcontrol", "deprecated", "unused", "group", "subgroup"},
	SectionMethodInfo:       {"name", "group", "async", "usecontextmenu", "deprecated", "unused", "requirement", "description", ColSyntaxText, ColReturnType, ColReturnDescription, ColArgumentsJSON},
	SectionEventHandlerInfo: {"name", "group", "deprecated", "unused", "requirement", "description"},
}

// ToSheets lays doc out as one sheet per section. Attributes outside the
// fixed headers are appended as extra columns so nothing is dropped.
func ToSheets(doc *Document) []export.Sheet {
	objRow := map[string]string{"id": doc.ObjectID}
	for _, a := range Attrs(&doc.ObjectInfo) {
		objRow[a.Name] = a.Value
	}

	sheets := []export.Sheet{
		buildSheet(SectionObjectInfo, []map[string]string{objRow}),
		buildSheet(SectionPropertyInfo, recordRows(doc.Properties)),
		buildSheet(SectionCSSInfo, recordRows(doc.CSS)),
		buildSheet(SectionStatusInfo, recordRows(doc.Statuses)),
		buildSheet(SectionControlInfo, recordRows(doc.Controls)),
	}

	methods := make([]map[string]string, 0, len(doc.Methods))
	for i := range doc.Methods {
		methods = append(methods, syntaxRow(&doc.Methods[i], doc.Methods[i].Syntax))
	}
	sheets = append(sheets, buildSheet(SectionMethodInfo, methods))

	handlers := make([]map[string]string, 0, len(doc.EventHandlers))
	for i := range doc.EventHandlers {
		handlers = append(handlers, syntaxRow(&doc.EventHandlers[i], doc.EventHandlers[i].Syntax))
	}
	sheets = append(sheets, buildSheet(SectionEventHandlerInfo, handlers))
	return sheets
}

func recordRows[T any](recs []T) []map[string]string {
	rows := make([]map[string]string, 0, len(recs))
	for i := range recs {
		row := map[string]string{}
		for _, a := range Attrs(&recs[i]) {
			row[a.Name] = a.Value
		}
		rows = append(rows, row)
	}
	return rows
}

func syntaxRow(rec interface{}, s *Syntax) map[string]string {
	row := map[string]string{}
	for _, a := range Attrs(rec) {
		row[a.Name] = a.Value
	}
	if s == nil {
		return row
	}
	row[ColSyntaxText] = s.Text.Value
	if s.Return != nil {
		row[ColReturnType] = s.Return.Type.Value
		row[ColReturnDescription] = s.Return.Description.Value
	}
	if len(s.Arguments) > 0 {
		row[ColArgumentsJSON] = encodeArguments(s.Arguments)
	}
	return row
}

func buildSheet(name string, rows []map[string]string) export.Sheet {
	headers := append([]string(nil), SheetHeaders[name]...)
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	// Syntax columns only appear on other sheets when a row carries them.
	// Unknown attributes follow, sorted by name.
	for _, row := range rows {
		for _, col := range syntaxColumns {
			if _, ok := row[col]; ok && !known[col] {
				known[col] = true
				headers = append(headers, col)
			}
		}
	}
	var extras []string
	for _, row := range rows {
		for k := range row {
			if !known[k] {
				known[k] = true
				extras = append(extras, k)
			}
		}
	}
	sort.Strings(extras)
	headers = append(headers, extras...)

	sheet := export.Sheet{Name: name, Headers: headers, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = row[h]
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet
}

// FromSheets rebuilds a document from workbook sheets. The ObjectInfo sheet
// must exist and its first row must carry a non-empty id. Empty cells are
// treated as absent attributes and the fromFile marker column is dropped.
func FromSheets(sheets []export.Sheet, trailing string) (*Document, error) {
	byName := make(map[string]export.Sheet, len(sheets))
	for _, s := range sheets {
		byName[s.Name] = s
	}

	objSheet, ok := byName[SectionObjectInfo]
	if !ok {
		return nil, nxerrors.New(nxerrors.MissingElement, "ObjectInfo sheet not found", nil)
	}
	objRows := sheetRecords(objSheet)
	if len(objRows) == 0 {
		return nil, nxerrors.New(nxerrors.MissingElement, "ObjectInfo sheet has no data", nil)
	}
	id := strings.TrimSpace(lookup(objRows[0], "id"))
	if id == "" {
		return nil, nxerrors.New(nxerrors.MissingElement, "ObjectInfo sheet has an empty id", nil)
	}

	doc := &Document{
		Version:       DefaultVersion,
		ObjectID:      lookup(objRows[0], "id"),
		Properties:    []PropertyRecord{},
		CSS:           []CSSRecord{},
		Statuses:      []StatusRecord{},
		Controls:      []ControlRecord{},
		Methods:       []MethodRecord{},
		EventHandlers: []EventHandlerRecord{},
		Trailing:      trailing,
	}
	for _, a := range objRows[0] {
		if a.Name != "id" {
			Set(&doc.ObjectInfo, a.Name, a.Value)
		}
	}

	for _, row := range sheetRecords(byName[SectionPropertyInfo]) {
		var r PropertyRecord
		assign(&r, row)
		doc.Properties = append(doc.Properties, r)
	}
	for _, row := range sheetRecords(byName[SectionCSSInfo]) {
		var r CSSRecord
		assign(&r, row)
		doc.CSS = append(doc.CSS, r)
	}
	for _, row := range sheetRecords(byName[SectionStatusInfo]) {
		var r StatusRecord
		assign(&r, row)
		doc.Statuses = append(doc.Statuses, r)
	}
	for _, row := range sheetRecords(byName[SectionControlInfo]) {
		var r ControlRecord
		assign(&r, row)
		doc.Controls = append(doc.Controls, r)
	}
	for i, row := range sheetRecords(byName[SectionMethodInfo]) {
		var r MethodRecord
		assign(&r, row)
		s, err := syntaxFromRow(row)
		if err != nil {
			return nil, nxerrors.New(nxerrors.InvalidArgument, fmt.Sprintf("MethodInfo row %d: bad arguments_json", i+2), err)
		}
		r.Syntax = s
		doc.Methods = append(doc.Methods, r)
	}
	for i, row := range sheetRecords(byName[SectionEventHandlerInfo]) {
		var r EventHandlerRecord
		assign(&r, row)
		s, err := syntaxFromRow(row)
		if err != nil {
			return nil, nxerrors.New(nxerrors.InvalidArgument, fmt.Sprintf("EventHandlerInfo row %d: bad arguments_json", i+2), err)
		}
		r.Syntax = s
		doc.EventHandlers = append(doc.EventHandlers, r)
	}
	return doc, nil
}

// sheetRecords turns rows into attribute lists, skipping blank cells, blank
// rows and the fromFile column.
func sheetRecords(s export.Sheet) [][]Attr {
	var out [][]Attr
	for _, row := range s.Rows {
		var attrs []Attr
		for i, h := range s.Headers {
			if i >= len(row) || row[i] == "" || h == "" || h == colFromFile {
				continue
			}
			attrs = append(attrs, Attr{Name: h, Value: row[i]})
		}
		if len(attrs) > 0 {
			out = append(out, attrs)
		}
	}
	return out
}

func lookup(attrs []Attr, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func isSyntaxColumn(name string) bool {
	for _, c := range syntaxColumns {
		if c == name {
			return true
		}
	}
	return false
}

func assign(rec interface{}, attrs []Attr) {
	for _, a := range attrs {
		if !isSyntaxColumn(a.Name) {
			Set(rec, a.Name, a.Value)
		}
	}
}

func syntaxFromRow(attrs []Attr) (*Syntax, error) {
	text := lookup(attrs, ColSyntaxText)
	if text == "" {
		return nil, nil
	}
	s := &Syntax{
		Text: Some(text),
		Return: &Return{
			Type:        Some(lookup(attrs, ColReturnType)),
			Description: Some(lookup(attrs, ColReturnDescription)),
		},
	}
	if raw := lookup(attrs, ColArgumentsJSON); raw != "" {
		args, err := decodeArguments(raw)
		if err != nil {
			return nil, err
		}
		s.Arguments = args
	}
	return s, nil
}

// encodeArguments writes arguments as a JSON array of objects, keeping
// attribute order and two-space indentation.
func encodeArguments(args []Argument) string {
	var b bytes.Buffer
	b.WriteString("[")
	for i := range args {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  {")
		for j, a := range Attrs(&args[i]) {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString("\n    " + jsonText(a.Name) + ": " + jsonText(a.Value))
		}
		b.WriteString("\n  }")
	}
	if len(args) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

func jsonText(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// decodeArguments reads the arguments_json column, preserving key order.
func decodeArguments(raw string) ([]Argument, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected array, got %v", tok)
	}

	args := []Argument{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("expected object, got %v", tok)
		}
		var arg Argument
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			var val interface{}
			if err := dec.Decode(&val); err != nil {
				return nil, err
			}
			if val == nil {
				continue
			}
			Set(&arg, key, fmt.Sprint(val))
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return args, nil
}
