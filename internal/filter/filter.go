// Package filter selects cases by substring or /regex/ patterns.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Selection combines include and skip patterns.
type Selection struct {
	Include []Pattern
	Skip    []Pattern
}

// NewSelection compiles raw include and skip patterns.
func NewSelection(include, skip []string) (Selection, error) {
	in, err := Compile(include)
	if err != nil {
		return Selection{}, fmt.Errorf("case patterns: %w", err)
	}
	out, err := Compile(skip)
	if err != nil {
		return Selection{}, fmt.Errorf("skip-case patterns: %w", err)
	}
	return Selection{Include: in, Skip: out}, nil
}

// Selects reports whether id passes the selection. With no include patterns
// every id is included unless a skip pattern matches it.
func (s Selection) Selects(id string) bool {
	if len(s.Include) > 0 && !matchesAny(id, s.Include) {
		return false
	}
	return !matchesAny(id, s.Skip)
}

func matchesAny(s string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(s) {
			return true
		}
	}
	return false
}
