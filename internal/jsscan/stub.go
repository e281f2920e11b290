//go:build !cgo

package jsscan

import "context"

// Extractor turns one source file into Facts.
type Extractor interface {
	Extract(ctx context.Context, name string, src []byte) (*Facts, error)
}

// NewExtractor returns the regex extractor; tree-sitter needs cgo.
func NewExtractor() Extractor {
	return RegexExtractor{}
}
