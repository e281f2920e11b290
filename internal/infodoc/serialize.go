package infodoc

import (
	"strings"
)

// SerializeOptions tunes document output.
type SerializeOptions struct {
	// OmitIfEmpty names attributes dropped from section records when their
	// value is the empty string.
	OmitIfEmpty []string
}

// DefaultOmitIfEmpty is the attribute list used when none is configured.
var DefaultOmitIfEmpty = []string{"defaultvalue"}

// DefaultSerializeOptions returns the options matching the authoring tool.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{OmitIfEmpty: DefaultOmitIfEmpty}
}

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// Serialize writes doc as INFO text. Sections without records are left
// out, except ObjectInfo which is always written. doc.Trailing is appended
// unchanged after the closing root tag.
func Serialize(doc *Document, opts SerializeOptions) string {
	w := &docWriter{omit: make(map[string]bool, len(opts.OmitIfEmpty))}
	for _, name := range opts.OmitIfEmpty {
		w.omit[name] = true
	}

	version := doc.Version
	if version == "" {
		version = DefaultVersion
	}

	w.b.WriteString(xmlHeader)
	w.b.WriteString(`<MetaInfo version="` + EscapeAttr(version) + `"`)
	w.attrs(doc.RootAttrs, false)
	w.b.WriteString(">\n")
	w.b.WriteString(`  <Object id="` + EscapeAttr(doc.ObjectID) + `"`)
	w.attrs(doc.ObjectAttrs, false)
	w.b.WriteString(">\n")
	w.leaf(4, SectionObjectInfo, Attrs(&doc.ObjectInfo), false)

	if len(doc.Properties) > 0 {
		w.open(4, SectionPropertyInfo)
		for i := range doc.Properties {
			w.leaf(6, "Property", Attrs(&doc.Properties[i]), true)
		}
		w.close(4, SectionPropertyInfo)
	}

	if len(doc.CSS) > 0 {
		w.open(4, SectionCSSInfo)
		w.open(6, SectionPropertyInfo)
		for i := range doc.CSS {
			w.leaf(8, "Property", Attrs(&doc.CSS[i]), true)
		}
		w.close(6, SectionPropertyInfo)
		w.close(4, SectionCSSInfo)
	}

	if len(doc.Statuses) > 0 {
		w.open(4, SectionStatusInfo)
		for i := range doc.Statuses {
			w.leaf(6, "Status", Attrs(&doc.Statuses[i]), true)
		}
		w.close(4, SectionStatusInfo)
	}

	if len(doc.Controls) > 0 {
		w.open(4, SectionControlInfo)
		for i := range doc.Controls {
			w.leaf(6, "Control", Attrs(&doc.Controls[i]), true)
		}
		w.close(4, SectionControlInfo)
	}

	if len(doc.Methods) > 0 {
		w.open(4, SectionMethodInfo)
		for i := range doc.Methods {
			m := &doc.Methods[i]
			w.withSyntax(6, "Method", Attrs(m), m.Syntax)
		}
		w.close(4, SectionMethodInfo)
	}

	if len(doc.EventHandlers) > 0 {
		w.open(4, SectionEventHandlerInfo)
		for i := range doc.EventHandlers {
			e := &doc.EventHandlers[i]
			w.withSyntax(6, "EventHandler", Attrs(e), e.Syntax)
		}
		w.close(4, SectionEventHandlerInfo)
	}

	w.b.WriteString("  </Object>\n")
	w.b.WriteString(closingRoot)
	w.b.WriteString(doc.Trailing)
	return w.b.String()
}

type docWriter struct {
	b    strings.Builder
	omit map[string]bool
}

func (w *docWriter) indent(n int) {
	w.b.WriteString(strings.Repeat(" ", n))
}

func (w *docWriter) open(indent int, name string) {
	w.indent(indent)
	w.b.WriteString("<" + name + ">\n")
}

func (w *docWriter) close(indent int, name string) {
	w.indent(indent)
	w.b.WriteString("</" + name + ">\n")
}

func (w *docWriter) attrs(attrs []Attr, omitEmpty bool) {
	for _, a := range attrs {
		if omitEmpty && a.Value == "" && w.omit[a.Name] {
			continue
		}
		w.b.WriteString(" " + a.Name + `="` + EscapeAttr(a.Value) + `"`)
	}
}

func (w *docWriter) leaf(indent int, name string, attrs []Attr, omitEmpty bool) {
	w.indent(indent)
	w.b.WriteString("<" + name)
	w.attrs(attrs, omitEmpty)
	w.b.WriteString(" />\n")
}

func (w *docWriter) withSyntax(indent int, name string, attrs []Attr, s *Syntax) {
	if s == nil {
		w.leaf(indent, name, attrs, true)
		return
	}
	w.indent(indent)
	w.b.WriteString("<" + name)
	w.attrs(attrs, true)
	w.b.WriteString(">\n")

	w.indent(indent + 2)
	w.b.WriteString("<Syntax")
	w.attrs(Attrs(s), false)
	w.b.WriteString(">\n")
	if s.Return != nil {
		w.leaf(indent+4, "Return", Attrs(s.Return), false)
	}
	if len(s.Arguments) > 0 {
		w.open(indent+4, "Arguments")
		for i := range s.Arguments {
			w.leaf(indent+6, "Argument", Attrs(&s.Arguments[i]), false)
		}
		w.close(indent+4, "Arguments")
	}
	w.close(indent+2, "Syntax")
	w.close(indent, name)
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#xA;",
	"\r", "&#xD;",
	"\t", "&#x9;",
)

// EscapeAttr escapes a value for a double-quoted attribute. Newlines are
// written as &#xA; so they survive attribute value normalization.
func EscapeAttr(v string) string {
	return attrEscaper.Replace(v)
}
