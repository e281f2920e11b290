package infodoc

import (
	"encoding/json"
	"encoding/xml"
	"reflect"
	"strings"
	"sync"
)

// Attr is a flattened attribute name/value pair.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type recordLayout struct {
	names []string       // attribute names in declaration order
	index map[string]int // attribute name -> struct field index
	extra int            // index of the Extra field, -1 when absent
}

var (
	optType    = reflect.TypeOf(Opt{})
	layoutsMu  sync.Mutex
	layoutsMap = map[reflect.Type]*recordLayout{}
)

func layoutOf(t reflect.Type) *recordLayout {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()
	if l, ok := layoutsMap[t]; ok {
		return l
	}

	l := &recordLayout{index: map[string]int{}, extra: -1}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("xml")
		switch {
		case tag == ",any,attr":
			l.extra = i
		case f.Type == optType && strings.HasSuffix(tag, ",attr"):
			name := strings.TrimSuffix(tag, ",attr")
			l.names = append(l.names, name)
			l.index[name] = i
		}
	}
	layoutsMap[t] = l
	return l
}

func recordValue(rec interface{}) reflect.Value {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// KnownAttributes lists the attribute names a record type declares.
func KnownAttributes(rec interface{}) []string {
	l := layoutOf(recordValue(rec).Type())
	return append([]string(nil), l.names...)
}

// Attrs returns the present attributes of rec: declared ones first, in
// declaration order, then the extra ones in document order.
func Attrs(rec interface{}) []Attr {
	v := recordValue(rec)
	l := layoutOf(v.Type())

	var out []Attr
	for _, name := range l.names {
		o := v.Field(l.index[name]).Interface().(Opt)
		if o.Set {
			out = append(out, Attr{Name: name, Value: o.Value})
		}
	}
	if l.extra >= 0 {
		for _, a := range v.Field(l.extra).Interface().([]xml.Attr) {
			out = append(out, Attr{Name: attrName(a.Name), Value: a.Value})
		}
	}
	return out
}

// Get looks up one attribute by name.
func Get(rec interface{}, name string) (string, bool) {
	v := recordValue(rec)
	l := layoutOf(v.Type())
	if i, ok := l.index[name]; ok {
		o := v.Field(i).Interface().(Opt)
		return o.Value, o.Set
	}
	if l.extra >= 0 {
		for _, a := range v.Field(l.extra).Interface().([]xml.Attr) {
			if attrName(a.Name) == name {
				return a.Value, true
			}
		}
	}
	return "", false
}

// Set assigns an attribute on the record rec points to. Names the record
// does not declare are stored as extra attributes.
func Set(rec interface{}, name, value string) {
	v := reflect.ValueOf(rec).Elem()
	l := layoutOf(v.Type())
	if i, ok := l.index[name]; ok {
		v.Field(i).Set(reflect.ValueOf(Some(value)))
		return
	}
	if l.extra < 0 {
		return
	}
	extra := v.Field(l.extra).Interface().([]xml.Attr)
	for i := range extra {
		if attrName(extra[i].Name) == name {
			extra[i].Value = value
			return
		}
	}
	extra = append(extra, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	v.Field(l.extra).Set(reflect.ValueOf(extra))
}

// xmlNamespace is the URI the decoder substitutes for the reserved xml
// prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// attrName renders n with its prefix. Spaces that are still namespace URIs
// at this point were declared on an element outside the record and are
// written as-is.
func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case xmlNamespace:
		return "xml:" + n.Local
	}
	return n.Space + ":" + n.Local
}

// restorePrefixes replaces namespace URIs in the extra attributes of rec
// with the prefixes they were declared under. Declarations on rec itself
// take precedence over inherited ones; the merged map is returned for
// nested records.
func restorePrefixes(rec interface{}, inherited map[string]string) map[string]string {
	v := recordValue(rec)
	l := layoutOf(v.Type())
	if l.extra < 0 {
		return inherited
	}
	extra := v.Field(l.extra).Interface().([]xml.Attr)

	prefixes := inherited
	copied := false
	for _, a := range extra {
		if a.Name.Space != "xmlns" {
			continue
		}
		if !copied {
			prefixes = make(map[string]string, len(inherited)+1)
			for k, p := range inherited {
				prefixes[k] = p
			}
			copied = true
		}
		prefixes[a.Value] = a.Name.Local
	}
	for i := range extra {
		if p, ok := prefixes[extra[i].Name.Space]; ok && extra[i].Name.Space != "xmlns" {
			extra[i].Name.Space = p
		}
	}
	return prefixes
}

// namespacePrefixes collects the prefix declarations among attrs, keyed by
// namespace URI.
func namespacePrefixes(attrs []xml.Attr, into map[string]string) {
	for _, a := range attrs {
		if a.Name.Space == "xmlns" {
			into[a.Value] = a.Name.Local
		}
	}
}

func flattenAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, Attr{Name: attrName(a.Name), Value: a.Value})
	}
	return out
}

func jsonString(s string) ([]byte, error) {
	return json.Marshal(s)
}
