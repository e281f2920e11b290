package jsscan

import (
	"context"
	"regexp"
)

var (
	prototypeRe  = regexp.MustCompile(`var\s+([\w$]+)\s*=\s*nexacro\._createPrototype\(\s*([\w$.]+)\s*,\s*([\w$.]+)\s*\)`)
	propertiesRe = regexp.MustCompile(`([\w$]+)\._properties\s*=\s*\[([\s\S]*?)\];`)
	propEntryRe  = regexp.MustCompile(`\{\s*name\s*:\s*["']([\w$]+)["']\s*,?\s*(readonly\s*:\s*true)?`)
	handlerRe    = regexp.MustCompile(`([\w$]+)\.on_([\w$]+)\s*=\s*function\b`)
	propRefRe    = regexp.MustCompile(`[\w$)\]]\._p_([\w$]+)`)
)

// RegexExtractor matches declarations line by line without parsing. It
// handles the canonical formatting of the framework sources.
type RegexExtractor struct{}

// Extract implements Extractor.
func (RegexExtractor) Extract(ctx context.Context, name string, src []byte) (*Facts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := string(src)
	f := newFacts(name)

	for _, m := range prototypeRe.FindAllStringSubmatch(text, -1) {
		f.Prototypes = append(f.Prototypes, Prototype{Var: m[1], Parent: m[2], Child: m[3]})
	}
	for _, m := range propertiesRe.FindAllStringSubmatch(text, -1) {
		props := []Property{}
		for _, p := range propEntryRe.FindAllStringSubmatch(m[2], -1) {
			props = append(props, Property{Name: p[1], Readonly: p[2] != ""})
		}
		f.Properties[m[1]] = props
	}
	for _, m := range handlerRe.FindAllStringSubmatch(text, -1) {
		f.addHandler(m[1], m[2])
	}
	refs := map[string]struct{}{}
	for _, m := range propRefRe.FindAllStringSubmatch(text, -1) {
		refs[m[1]] = struct{}{}
	}
	f.finish(refs)
	return f, nil
}
