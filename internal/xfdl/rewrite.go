package xfdl

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Field is the script header token a rule rewrites.
type Field string

const (
	FieldAuthor Field = "author"
	FieldDate   Field = "date"
)

// Rule rewrites one header format. Pattern group 1 is the text kept in
// front of the new value; the rest of the match is replaced.
type Rule struct {
	Name    string
	Field   Field
	Pattern *regexp.Regexp
}

// NewRule compiles a rule, checking that the pattern has a prefix group.
func NewRule(name string, field Field, pattern string) (Rule, error) {
	if field != FieldAuthor && field != FieldDate {
		return Rule{}, fmt.Errorf("rule %q: unknown field %q", name, field)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	if re.NumSubexp() < 1 {
		return Rule{}, fmt.Errorf("rule %q: pattern needs a capture group for the kept prefix", name)
	}
	return Rule{Name: name, Field: field, Pattern: re}, nil
}

func mustRule(name string, field Field, pattern string) Rule {
	r, err := NewRule(name, field, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules are tried in order per field; the first rule that matches
// is the only one applied.
var DefaultRules = []Rule{
	mustRule("comment-author", FieldAuthor, `(\*[ \t]*작성자[ \t]*:[ \t]*)[^\r\n]*`),
	mustRule("jsdoc-author", FieldAuthor, `(@author[ \t]+)[^\r\n]*`),
	mustRule("comment-date", FieldDate, `(\*[ \t]*작성일[ \t]*:[ \t]*)[^\r\n]*`),
	mustRule("jsdoc-creation", FieldDate, `(@creation[ \t]+)[^\r\n]*`),
}

// NameComparison decides when two component names count as different.
type NameComparison string

const (
	// CompareExact treats names differing only in case as different.
	CompareExact NameComparison = "exact"
	// CompareFold treats names differing only in case as the same.
	CompareFold NameComparison = "fold"
)

// Edit is one requested rewrite. Empty fields are left alone.
type Edit struct {
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
	OldName string `json:"oldName,omitempty"`
	NewName string `json:"newName,omitempty"`
}

// Rewriter applies header rules and component renames to scripts.
type Rewriter struct {
	rules      []Rule
	comparison NameComparison
}

// NewRewriter uses DefaultRules followed by extra.
func NewRewriter(comparison NameComparison, extra ...Rule) *Rewriter {
	if comparison == "" {
		comparison = CompareExact
	}
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	rules = append(rules, extra...)
	return &Rewriter{rules: rules, comparison: comparison}
}

// Rules lists the active rules in evaluation order.
func (r *Rewriter) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Rewrite returns script with the edit applied. Only the first occurrence
// of a header is replaced and line endings are kept. The rename replaces
// every literal, case-sensitive occurrence of OldName.
func (r *Rewriter) Rewrite(script string, e Edit) string {
	out := script
	if e.Author != "" {
		out, _ = r.applyField(out, FieldAuthor, e.Author)
	}
	if e.Date != "" {
		out, _ = r.applyField(out, FieldDate, e.Date)
	}
	if r.ShouldRename(e.OldName, e.NewName) {
		out = strings.ReplaceAll(out, e.OldName, e.NewName)
	}
	return out
}

// ApplyField runs the rules for one field and reports which rule matched.
func (r *Rewriter) ApplyField(script string, field Field, value string) (string, string) {
	return r.applyField(script, field, value)
}

func (r *Rewriter) applyField(script string, field Field, value string) (string, string) {
	for _, rule := range r.rules {
		if rule.Field != field {
			continue
		}
		loc := rule.Pattern.FindStringSubmatchIndex(script)
		if loc == nil {
			continue
		}
		prefix := ""
		if loc[2] >= 0 {
			prefix = script[loc[2]:loc[3]]
		}
		return script[:loc[0]] + prefix + value + script[loc[1]:], rule.Name
	}
	return script, ""
}

// ShouldRename reports whether a rename between the two names is requested.
func (r *Rewriter) ShouldRename(from, to string) bool {
	if from == "" || to == "" {
		return false
	}
	if r.comparison == CompareFold {
		return !strings.EqualFold(from, to)
	}
	return from != to
}

// DateLayout is the header date format, e.g. 2024.05.01.
const DateLayout = "2006.01.02"

// Today formats now as a header date in UTC.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}
