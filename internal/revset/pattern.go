package revset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternKind selects how a string pattern matches.
type PatternKind int

const (
	PatternSubstring PatternKind = iota
	PatternExact
	PatternGlob
	PatternRegex
)

var patternKinds = map[string]PatternKind{
	"substring": PatternSubstring,
	"exact":     PatternExact,
	"glob":      PatternGlob,
	"regex":     PatternRegex,
}

// StringPattern matches text by exact value, substring, glob or regular
// expression, optionally ignoring case.
type StringPattern struct {
	Kind            PatternKind
	Value           string
	CaseInsensitive bool

	re *regexp.Regexp
}

// ParseStringPattern builds a pattern from a "kind" prefix such as "glob" or
// "exact-i". An empty kind is a substring match.
func ParseStringPattern(kind, value string) (*StringPattern, error) {
	p := &StringPattern{Value: value}
	if base, ok := strings.CutSuffix(kind, "-i"); ok {
		kind = base
		p.CaseInsensitive = true
	}
	if kind == "" {
		kind = "substring"
	}
	k, ok := patternKinds[kind]
	if !ok {
		return nil, fmt.Errorf("invalid string pattern kind %q", kind)
	}
	p.Kind = k

	switch k {
	case PatternGlob:
		if !doublestar.ValidatePattern(p.fold(value)) {
			return nil, fmt.Errorf("invalid glob pattern %q", value)
		}
	case PatternRegex:
		expr := value
		if p.CaseInsensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", value, err)
		}
		p.re = re
	}
	return p, nil
}

// ExactPattern matches value literally.
func ExactPattern(value string) *StringPattern {
	return &StringPattern{Kind: PatternExact, Value: value}
}

func (p *StringPattern) fold(s string) string {
	if p.CaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// Matches reports whether s matches the pattern.
func (p *StringPattern) Matches(s string) bool {
	switch p.Kind {
	case PatternExact:
		return p.fold(s) == p.fold(p.Value)
	case PatternGlob:
		ok, err := doublestar.Match(p.fold(p.Value), p.fold(s))
		return err == nil && ok
	case PatternRegex:
		return p.re.MatchString(s)
	default:
		return strings.Contains(p.fold(s), p.fold(p.Value))
	}
}

// String renders the pattern in "kind:value" form.
func (p *StringPattern) String() string {
	kind := "substring"
	for name, k := range patternKinds {
		if k == p.Kind {
			kind = name
		}
	}
	if p.CaseInsensitive {
		kind += "-i"
	}
	return fmt.Sprintf("%s:%q", kind, p.Value)
}
