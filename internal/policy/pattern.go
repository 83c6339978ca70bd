package policy

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/anthropics/longline/pkg/pathutil"
)

// PatternType indicates what kind of pattern a matcher string encodes.
type PatternType int

const (
	PatternLiteral PatternType = iota
	PatternRegex
	PatternPath
	PatternFlag
)

func (pt PatternType) String() string {
	switch pt {
	case PatternRegex:
		return "regex"
	case PatternPath:
		return "path"
	case PatternFlag:
		return "flag"
	default:
		return "literal"
	}
}

// MatchContext carries the variables path patterns need to expand and
// resolve against.
type MatchContext struct {
	PathVars *pathutil.PathVars
}

// Pattern is a parsed matcher string. Supported prefixes:
//
//	"re:"    regex match
//	"path:"  glob match with $PROJECT_ROOT/$HOME expansion and symlink-safe
//	         resolution of path-like arguments
//	"flags:" character-set flag match (flags:rf matches -rf, -fr, -vrf)
//	none     literal equality
//
// Any explicitly prefixed pattern may be negated with a leading "!".
type Pattern struct {
	Type          PatternType
	Raw           string
	Regex         *regexp.Regexp
	PathPattern   string
	Negated       bool
	FlagDelimiter string
	FlagChars     string
}

func ParsePattern(s string) (*Pattern, error) {
	p := &Pattern{Raw: s}

	if strings.HasPrefix(s, "!") {
		rest := s[1:]
		if strings.HasPrefix(rest, "re:") || strings.HasPrefix(rest, "path:") || strings.HasPrefix(rest, "flags:") || strings.HasPrefix(rest, "flags[") {
			p.Negated = true
			s = rest
			p.Raw = s
		}
	}

	switch {
	case strings.HasPrefix(s, "re:"):
		p.Type = PatternRegex
		re, err := regexp.Compile(strings.TrimPrefix(s, "re:"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPattern, s, err)
		}
		p.Regex = re
	case strings.HasPrefix(s, "path:"):
		p.Type = PatternPath
		p.PathPattern = strings.TrimPrefix(s, "path:")
	case strings.HasPrefix(s, "flags:"), strings.HasPrefix(s, "flags["):
		p.Type = PatternFlag
		delim, chars, err := parseFlagPattern(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPattern, s, err)
		}
		p.FlagDelimiter = delim
		p.FlagChars = chars
	default:
		p.Type = PatternLiteral
	}
	return p, nil
}

func parseFlagPattern(s string) (string, string, error) {
	if strings.HasPrefix(s, "flags[") {
		close := strings.Index(s, "]:")
		if close == -1 {
			return "", "", fmt.Errorf("invalid flag pattern: missing ']:'")
		}
		delim := s[6:close]
		if delim == "" {
			return "", "", fmt.Errorf("flag delimiter cannot be empty")
		}
		chars := s[close+2:]
		if chars == "" || !isValidFlagChars(chars) {
			return "", "", fmt.Errorf("flag pattern requires alphanumeric characters, got %q", chars)
		}
		return delim, chars, nil
	}
	if after, ok := strings.CutPrefix(s, "flags:"); ok {
		if after == "" || !isValidFlagChars(after) {
			return "", "", fmt.Errorf("flag pattern requires alphanumeric characters, got %q", after)
		}
		return "-", after, nil
	}
	return "", "", fmt.Errorf("invalid flag pattern syntax")
}

func isValidFlagChars(s string) bool {
	for _, c := range s {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

// Match reports whether s matches the pattern, without path-variable
// expansion. Use MatchWithContext for path patterns.
func (p *Pattern) Match(s string) bool {
	return p.MatchWithContext(s, nil)
}

func (p *Pattern) MatchWithContext(s string, ctx *MatchContext) bool {
	var matched bool
	switch p.Type {
	case PatternRegex:
		matched = p.Regex.MatchString(s)
	case PatternPath:
		matched = p.matchPath(s, ctx)
	case PatternFlag:
		matched = p.matchFlag(s)
	default:
		matched = s == p.Raw
	}
	if p.Negated {
		return !matched
	}
	return matched
}

func (p *Pattern) matchPath(s string, ctx *MatchContext) bool {
	if pathutil.HasPathVars(p.PathPattern) && pathutil.IsPathLike(s) && ctx != nil && ctx.PathVars != nil {
		expanded := ctx.PathVars.ExpandPattern(p.PathPattern)
		resolved := pathutil.ResolvePath(s, ctx.PathVars.Cwd, ctx.PathVars.Home)
		matched, _ := doublestar.Match(expanded, resolved)
		return matched
	}
	matched, _ := doublestar.Match(p.PathPattern, s)
	return matched
}

func (p *Pattern) matchFlag(s string) bool {
	if !strings.HasPrefix(s, p.FlagDelimiter) {
		return false
	}
	if p.FlagDelimiter == "-" && strings.HasPrefix(s, "--") {
		return false
	}
	rest := s[len(p.FlagDelimiter):]
	if rest == "" {
		return false
	}
	for _, c := range p.FlagChars {
		if !strings.ContainsRune(rest, c) {
			return false
		}
	}
	return true
}

func (p *Pattern) MatchAny(ss []string) bool {
	return p.MatchAnyWithContext(ss, nil)
}

func (p *Pattern) MatchAnyWithContext(ss []string, ctx *MatchContext) bool {
	for _, s := range ss {
		if p.MatchWithContext(s, ctx) {
			return true
		}
	}
	return false
}

// Matcher wraps a set of patterns for any/all matching.
type Matcher struct {
	patterns []*Pattern
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]*Pattern, 0, len(patterns))}
	for _, ps := range patterns {
		p, err := ParsePattern(ps)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

func (m *Matcher) AnyMatchWithContext(ss []string, ctx *MatchContext) bool {
	for _, p := range m.patterns {
		if p.MatchAnyWithContext(ss, ctx) {
			return true
		}
	}
	return false
}

func (m *Matcher) AllMatchWithContext(ss []string, ctx *MatchContext) bool {
	for _, p := range m.patterns {
		if !p.MatchAnyWithContext(ss, ctx) {
			return false
		}
	}
	return true
}

// NoneMatchWithContext reports whether none of m's patterns match any of ss.
func (m *Matcher) NoneMatchWithContext(ss []string, ctx *MatchContext) bool {
	return !m.AnyMatchWithContext(ss, ctx)
}

// Contains reports whether any of ss contains any of substrings.
func Contains(ss []string, substrings []string) bool {
	for _, s := range ss {
		for _, sub := range substrings {
			if strings.Contains(s, sub) {
				return true
			}
		}
	}
	return false
}

// ContainsExact reports whether any of ss exactly equals any of targets.
func ContainsExact(ss []string, targets []string) bool {
	for _, s := range ss {
		for _, t := range targets {
			if s == t {
				return true
			}
		}
	}
	return false
}

// MatchPositionWithContext checks args[pos] against pattern.
func MatchPositionWithContext(args []string, pos int, patterns []string, ctx *MatchContext) bool {
	if pos < 0 || pos >= len(args) {
		return false
	}
	m, err := NewMatcher(patterns)
	if err != nil {
		return false
	}
	return m.AnyMatchWithContext([]string{args[pos]}, ctx)
}

// BaseName returns the basename of a resolved path, for matching a command
// by its resolved executable regardless of invocation path.
func BaseName(path string) string {
	return filepath.Base(path)
}
