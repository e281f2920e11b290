//go:build cgo

package jsscan

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	nxerrors "nxmeta/internal/errors"
)

// Extractor turns one source file into Facts.
type Extractor interface {
	Extract(ctx context.Context, name string, src []byte) (*Facts, error)
}

// NewExtractor returns the tree-sitter extractor.
func NewExtractor() Extractor {
	return &TreeSitterExtractor{parser: sitter.NewParser()}
}

// TreeSitterExtractor walks the JavaScript syntax tree, so declarations are
// found regardless of formatting and comments are ignored. Not safe for
// concurrent use.
type TreeSitterExtractor struct {
	parser *sitter.Parser
}

// Extract implements Extractor.
func (e *TreeSitterExtractor) Extract(ctx context.Context, name string, src []byte) (*Facts, error) {
	e.parser.SetLanguage(javascript.GetLanguage())
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nxerrors.New(nxerrors.StructuralParse, "parsing "+name, err)
	}

	w := &walker{src: src, facts: newFacts(name), refs: map[string]struct{}{}}
	w.walk(tree.RootNode())
	w.facts.finish(w.refs)
	return w.facts, nil
}

type walker struct {
	src   []byte
	facts *Facts
	refs  map[string]struct{}
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

func (w *walker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "variable_declarator":
		w.prototype(n)
	case "assignment_expression":
		w.assignment(n)
	case "member_expression":
		if p := w.text(n.ChildByFieldName("property")); strings.HasPrefix(p, "_p_") && len(p) > 3 {
			w.refs[p[3:]] = struct{}{}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

// prototype matches `P = nexacro._createPrototype(Parent, Child)`.
func (w *walker) prototype(n *sitter.Node) {
	value := n.ChildByFieldName("value")
	if value == nil || value.Type() != "call_expression" {
		return
	}
	if w.text(value.ChildByFieldName("function")) != "nexacro._createPrototype" {
		return
	}
	args := value.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() < 2 {
		return
	}
	w.facts.Prototypes = append(w.facts.Prototypes, Prototype{
		Var:    w.text(n.ChildByFieldName("name")),
		Parent: w.text(args.NamedChild(0)),
		Child:  w.text(args.NamedChild(1)),
	})
}

func (w *walker) assignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "member_expression" {
		return
	}
	obj := left.ChildByFieldName("object")
	prop := w.text(left.ChildByFieldName("property"))

	switch {
	case prop == "_properties" && right.Type() == "array":
		w.facts.Properties[lastSegment(w.text(obj))] = w.propertyTable(right)
	case strings.HasPrefix(prop, "on_") && len(prop) > 3 && isFunction(right.Type()):
		w.facts.addHandler(lastSegment(w.text(obj)), prop[3:])
	}
}

func (w *walker) propertyTable(arr *sitter.Node) []Property {
	props := []Property{}
	for i := 0; i < int(arr.NamedChildCount()); i++ {
		obj := arr.NamedChild(i)
		if obj.Type() != "object" {
			continue
		}
		var p Property
		for j := 0; j < int(obj.NamedChildCount()); j++ {
			pair := obj.NamedChild(j)
			if pair.Type() != "pair" {
				continue
			}
			key := unquote(w.text(pair.ChildByFieldName("key")))
			val := pair.ChildByFieldName("value")
			switch key {
			case "name":
				if val != nil && val.Type() == "string" {
					p.Name = unquote(w.text(val))
				}
			case "readonly":
				p.Readonly = val != nil && val.Type() == "true"
			}
		}
		if p.Name != "" {
			props = append(props, p)
		}
	}
	return props
}

func isFunction(t string) bool {
	return t == "function" || t == "function_expression" || t == "arrow_function"
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// lastSegment reduces this._pButton to _pButton.
func lastSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
