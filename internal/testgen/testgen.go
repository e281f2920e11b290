// Package testgen renders nexacro test-form snippets for the properties an
// INFO document declares.
package testgen

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"nxmeta/internal/infodoc"
)

// DefaultGroup holds properties without a group attribute.
const DefaultGroup = "기타"

// DefaultObjectName is used when no file name is available.
const DefaultObjectName = "Component"

// Property is the subset of a PropertyInfo entry the generator needs.
type Property struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	EditType    string `json:"edittype,omitempty"`
	Readonly    bool   `json:"readonly"`
	Description string `json:"description,omitempty"`
}

// Group is one property group in document order.
type Group struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// GroupProperties groups the PropertyInfo entries of doc. Groups keep the
// order in which they first appear; entries without a name are skipped.
func GroupProperties(doc *infodoc.Document) []Group {
	var groups []Group
	index := map[string]int{}
	for _, rec := range doc.Properties {
		if rec.Name.Value == "" {
			continue
		}
		g := rec.Group.Value
		if g == "" {
			g = DefaultGroup
		}
		p := Property{
			Name:        rec.Name.Value,
			Group:       g,
			EditType:    rec.EditType.Value,
			Readonly:    rec.ReadOnly.Value == "true",
			Description: rec.Description.Value,
		}
		i, ok := index[g]
		if !ok {
			i = len(groups)
			index[g] = i
			groups = append(groups, Group{Name: g})
		}
		groups[i].Properties = append(groups[i].Properties, p)
	}
	return groups
}

// ObjectName derives the object name from an uploaded file name:
// directories and the extension are dropped and the first letter is
// upper-cased.
func ObjectName(filename string) string {
	base := path.Base(filepath.ToSlash(strings.ReplaceAll(filename, `\`, "/")))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return DefaultObjectName
	}
	r, size := utf8.DecodeRuneInString(base)
	return string(unicode.ToUpper(r)) + base[size:]
}

const unknownValue = "/* 적절한 값 */"

// ExampleValue picks a literal for a setter call from the edit type, or
// from the property name when the edit type is missing.
func ExampleValue(name, editType string) string {
	if editType != "" {
		switch strings.ToLower(editType) {
		case "string":
			return fmt.Sprintf("%q", "Test"+name)
		case "number":
			return "123"
		case "boolean":
			return "true"
		case "enum":
			return `"VALUE_EXAMPLE"`
		default:
			return unknownValue
		}
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "text"), strings.Contains(lower, "name"):
		return fmt.Sprintf("%q", "Test"+name)
	case strings.Contains(lower, "value"), strings.Contains(lower, "count"):
		return "10"
	case strings.Contains(lower, "enabled"), strings.Contains(lower, "visible"):
		return "true"
	}
	return unknownValue
}

// Snippet renders the test lines for one property of object obj. on_
// properties get a handler stub, method edit types a call and everything
// else a setter call or, when read-only, a note.
func Snippet(p Property, obj string) string {
	var b strings.Builder
	inst := "obj" + obj + "1"
	switch {
	case strings.HasPrefix(p.Name, "on_"):
		fmt.Fprintf(&b, "    // Event: %s - %s\n", p.Name, p.Description)
		fmt.Fprintf(&b, "    %s.%s = function(obj, e) {\n", inst, p.Name)
		fmt.Fprintf(&b, "        trace(\"%s.%s 이벤트 발생!\");\n", obj, p.Name)
		b.WriteString("        // 여기에 이벤트 핸들러 로직 추가\n")
		b.WriteString("    };\n")
	case strings.EqualFold(p.EditType, "method"):
		fmt.Fprintf(&b, "    // Method: %s - %s\n", p.Name, p.Description)
		fmt.Fprintf(&b, "    %s.%s(/* 적절한 인자 */);\n", inst, p.Name)
		fmt.Fprintf(&b, "    trace(\"%s.%s 메서드 호출.\");\n", obj, p.Name)
	default:
		fmt.Fprintf(&b, "    // Property: %s - %s\n", p.Name, p.Description)
		if p.Readonly {
			fmt.Fprintf(&b, "    // %s은 읽기 전용 속성입니다. 설정할 수 없습니다.\n", p.Name)
			break
		}
		v := ExampleValue(p.Name, p.EditType)
		fmt.Fprintf(&b, "    %s.set_%s(%s);\n", inst, p.Name, v)
		fmt.Fprintf(&b, "    trace(\"%s.set_%s 호출. 설정 값: \" + %s);\n", obj, p.Name, v)
	}
	return b.String()
}

const emptySelection = "// 속성, 메서드, 또는 이벤트를 선택하여 테스트 코드를 생성하세요."

// Script wraps the snippets of the selected properties in the form code
// that creates, adds and shows the object.
func Script(obj string, selected []Property) string {
	snippets := make([]string, 0, len(selected))
	for _, p := range selected {
		snippets = append(snippets, Snippet(p, obj))
	}
	logic := strings.Join(snippets, "\n")
	if logic == "" {
		logic = emptySelection
	}
	inst := "obj" + obj + "1"
	id := obj + "00"

	var b strings.Builder
	b.WriteString("// Create Object\n")
	fmt.Fprintf(&b, "var %s = new %s(\"%s\", 30, 100, 200, 50, null, null);\n\n", inst, obj, id)
	b.WriteString("// Set Logic Here\n")
	b.WriteString(logic)
	b.WriteString("\n\n// Add Object to Parent Form\n")
	fmt.Fprintf(&b, "this.addChild(\"%s\", %s);\n\n", id, inst)
	b.WriteString("// Insert Object to Parent Form\n")
	fmt.Fprintf(&b, "// this.insertChild(1, \"%s\", %s); // Uncomment if needed\n\n", id, inst)
	b.WriteString("// Show Object\n")
	fmt.Fprintf(&b, "%s.show();\n", inst)
	return b.String()
}

// Select picks properties by name in the order given. Unknown names are
// returned separately, sorted.
func Select(groups []Group, names []string) (selected []Property, unknown []string) {
	byName := map[string]Property{}
	for _, g := range groups {
		for _, p := range g.Properties {
			if _, ok := byName[p.Name]; !ok {
				byName[p.Name] = p
			}
		}
	}
	for _, n := range names {
		if p, ok := byName[n]; ok {
			selected = append(selected, p)
		} else {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	return selected, unknown
}

// All flattens groups in order.
func All(groups []Group) []Property {
	var out []Property
	for _, g := range groups {
		out = append(out, g.Properties...)
	}
	return out
}
