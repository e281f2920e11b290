package xfdl

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	nxerrors "nxmeta/internal/errors"
)

// RulesFile is the on-disk form of extra rewrite rules:
//
//	[[rule]]
//	name = "ko-modifier"
//	field = "author"
//	pattern = '(\*[ \t]*수정자[ \t]*:[ \t]*)[^\r\n]*'
type RulesFile struct {
	Rules []RuleSpec `toml:"rule"`
}

// RuleSpec is one uncompiled rule.
type RuleSpec struct {
	Name    string `toml:"name"`
	Field   string `toml:"field"`
	Pattern string `toml:"pattern"`
}

// LoadRules reads and compiles a rules file. A missing path yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	var file RulesFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.New(nxerrors.NotFound, "rules file "+path, err)
		}
		return nil, nxerrors.New(nxerrors.InvalidArgument, "parsing rules file "+path, err)
	}
	return compileSpecs(file.Rules)
}

// ReadRules is LoadRules for an already open source.
func ReadRules(r io.Reader) ([]Rule, error) {
	var file RulesFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, nxerrors.New(nxerrors.InvalidArgument, "parsing rules", err)
	}
	return compileSpecs(file.Rules)
}

func compileSpecs(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		rule, err := NewRule(name, Field(spec.Field), spec.Pattern)
		if err != nil {
			return nil, nxerrors.New(nxerrors.InvalidArgument, "invalid rewrite rule", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
