// Package xfdl edits the embedded script of nexacro XFDL form files and
// rewrites author, date and component-name tokens inside it.
package xfdl

import (
	"regexp"
	"strings"
)

// NotFoundPlaceholder is returned by ExtractScript when a document has no
// script block, so editors still have something to show.
const NotFoundPlaceholder = "// 스크립트를 찾을 수 없습니다."

const (
	scriptOpen  = `<Script type="xscript5.1"><![CDATA[`
	scriptClose = `]]></Script>`
	// cdataSplit lets "]]>" appear inside a CDATA payload.
	cdataSplit = "]]]]><![CDATA[>"
)

var scriptBlock = regexp.MustCompile(`(?s)<Script type="xscript5\.1"><!\[CDATA\[(.*?)\]\]></Script>`)

// ExtractScript returns the trimmed payload of the first script block. When
// there is none it returns NotFoundPlaceholder and false.
func ExtractScript(content string) (string, bool) {
	m := scriptBlock.FindStringSubmatch(content)
	if m == nil {
		return NotFoundPlaceholder, false
	}
	return strings.TrimSpace(strings.ReplaceAll(m[1], cdataSplit, "]]>")), true
}

// ReplaceScript swaps the payload of the first script block for script. All
// bytes outside that payload are left untouched. Without a script block the
// content is returned unchanged with false.
func ReplaceScript(content, script string) (string, bool) {
	loc := scriptBlock.FindStringSubmatchIndex(content)
	if loc == nil {
		return content, false
	}
	var b strings.Builder
	b.Grow(len(content) + len(script))
	b.WriteString(content[:loc[2]])
	b.WriteString(strings.ReplaceAll(script, "]]>", cdataSplit))
	b.WriteString(content[loc[3]:])
	return b.String(), true
}

// Convention describes how sample files are named: <Prefix><name>_<rest><Ext>.
type Convention struct {
	Prefix string `toml:"prefix" json:"prefix" mapstructure:"prefix"`
	Ext    string `toml:"ext" json:"ext" mapstructure:"ext"`
}

// DefaultConvention matches names like A_Grid_01.xfdl.
var DefaultConvention = Convention{Prefix: "A_", Ext: ".xfdl"}

func (c Convention) withDefaults() Convention {
	if c.Prefix == "" {
		c.Prefix = DefaultConvention.Prefix
	}
	if c.Ext == "" {
		c.Ext = DefaultConvention.Ext
	}
	return c
}

func (c Convention) pattern() *regexp.Regexp {
	c = c.withDefaults()
	return regexp.MustCompile(`^` + regexp.QuoteMeta(c.Prefix) + `([^_]+)_.*` + regexp.QuoteMeta(c.Ext) + `$`)
}

// ComponentName extracts the component name from a file name.
func (c Convention) ComponentName(filename string) (string, bool) {
	m := c.pattern().FindStringSubmatch(filename)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// OutputName is the file name a rewritten sample is saved under.
func (c Convention) OutputName(component string) string {
	c = c.withDefaults()
	return c.Prefix + component + "_all" + c.Ext
}

// ComponentNameFromFilename applies DefaultConvention.
func ComponentNameFromFilename(filename string) (string, bool) {
	return DefaultConvention.ComponentName(filename)
}
