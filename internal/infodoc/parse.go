package infodoc

import (
	"encoding/xml"
	"io"
	"strings"

	nxerrors "nxmeta/internal/errors"
)

// DefaultVersion is written when a document carries no MetaInfo version.
const DefaultVersion = "2.0"

const closingRoot = "</MetaInfo>"

type xmlObject struct {
	ID            Opt                  `xml:"id,attr"`
	Extra         []xml.Attr           `xml:",any,attr"`
	ObjectInfo    *ObjectInfo          `xml:"ObjectInfo"`
	Properties    []PropertyRecord     `xml:"PropertyInfo>Property"`
	CSSNested     []CSSRecord          `xml:"CSSInfo>PropertyInfo>Property"`
	CSSFlat       []CSSRecord          `xml:"CSSInfo>Property"`
	Statuses      []StatusRecord       `xml:"StatusInfo>Status"`
	Controls      []ControlRecord      `xml:"ControlInfo>Control"`
	Methods       []MethodRecord       `xml:"MethodInfo>Method"`
	EventHandlers []EventHandlerRecord `xml:"EventHandlerInfo>EventHandler"`
}

// Parse reads an INFO document. Markup errors and a missing Object element
// (or Object id) are reported as structural parse errors; absent sections
// simply come back empty.
func Parse(text string) (*Document, error) {
	dec := newDecoder(text)

	doc := &Document{Version: DefaultVersion}
	var obj *xmlObject
	var rootAttrs []xml.Attr
	prefixes := map[string]string{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nxerrors.New(nxerrors.StructuralParse, "INFO document is not well-formed", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "MetaInfo":
			namespacePrefixes(se.Attr, prefixes)
			for _, a := range se.Attr {
				if a.Name.Space == "" && a.Name.Local == "version" {
					doc.Version = a.Value
					continue
				}
				rootAttrs = append(rootAttrs, a)
			}
		case "Object":
			if obj != nil {
				if err := dec.Skip(); err != nil {
					return nil, nxerrors.New(nxerrors.StructuralParse, "INFO document is not well-formed", err)
				}
				continue
			}
			var o xmlObject
			if err := dec.DecodeElement(&o, &se); err != nil {
				return nil, nxerrors.New(nxerrors.StructuralParse, "INFO document is not well-formed", err)
			}
			obj = &o
		}
	}

	if obj == nil {
		return nil, nxerrors.New(nxerrors.MissingElement, "INFO document has no <Object> element", nil)
	}
	if strings.TrimSpace(obj.ID.Value) == "" {
		return nil, nxerrors.New(nxerrors.MissingElement, "<Object> element has no id", nil)
	}

	objPrefixes := restorePrefixes(obj, prefixes)
	for i := range rootAttrs {
		if p, ok := prefixes[rootAttrs[i].Name.Space]; ok {
			rootAttrs[i].Name.Space = p
		}
	}
	doc.RootAttrs = flattenAttrs(rootAttrs)
	doc.ObjectAttrs = flattenAttrs(obj.Extra)
	doc.ObjectID = obj.ID.Value
	if obj.ObjectInfo != nil {
		doc.ObjectInfo = *obj.ObjectInfo
	}
	doc.Properties = nonNil(obj.Properties)
	doc.CSS = nonNil(obj.CSSNested)
	if len(doc.CSS) == 0 {
		doc.CSS = nonNil(obj.CSSFlat)
	}
	doc.Statuses = nonNil(obj.Statuses)
	doc.Controls = nonNil(obj.Controls)
	doc.Methods = nonNil(obj.Methods)
	doc.EventHandlers = nonNil(obj.EventHandlers)
	doc.Trailing = TrailingContent(text)
	restoreDocumentPrefixes(doc, objPrefixes)
	return doc, nil
}

// restoreDocumentPrefixes puts declared namespace prefixes back on the
// extra attributes of every record. The decoder has replaced them with
// namespace URIs by now.
func restoreDocumentPrefixes(doc *Document, prefixes map[string]string) {
	restorePrefixes(&doc.ObjectInfo, prefixes)
	for i := range doc.Properties {
		restorePrefixes(&doc.Properties[i], prefixes)
	}
	for i := range doc.CSS {
		restorePrefixes(&doc.CSS[i], prefixes)
	}
	for i := range doc.Statuses {
		restorePrefixes(&doc.Statuses[i], prefixes)
	}
	for i := range doc.Controls {
		restorePrefixes(&doc.Controls[i], prefixes)
	}
	for i := range doc.Methods {
		local := restorePrefixes(&doc.Methods[i], prefixes)
		restoreSyntaxPrefixes(doc.Methods[i].Syntax, local)
	}
	for i := range doc.EventHandlers {
		local := restorePrefixes(&doc.EventHandlers[i], prefixes)
		restoreSyntaxPrefixes(doc.EventHandlers[i].Syntax, local)
	}
}

func restoreSyntaxPrefixes(s *Syntax, prefixes map[string]string) {
	if s == nil {
		return
	}
	local := restorePrefixes(s, prefixes)
	if s.Return != nil {
		restorePrefixes(s.Return, local)
	}
	for i := range s.Arguments {
		restorePrefixes(&s.Arguments[i], local)
	}
}

// TrailingContent returns the text after the last </MetaInfo>, or "" when
// the closing tag is absent.
func TrailingContent(text string) string {
	i := strings.LastIndex(text, closingRoot)
	if i < 0 {
		return ""
	}
	return text[i+len(closingRoot):]
}

// IsParseError reports whether err is one of the structural parse failures.
func IsParseError(err error) bool {
	return nxerrors.HasCode(err, nxerrors.StructuralParse) || nxerrors.HasCode(err, nxerrors.MissingElement)
}

func newDecoder(text string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	dec.Strict = true
	return dec
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
