package citation

import (
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
)

// DefaultPatternExpr matches Markdown links such as [pmid 12345](url) or [pm 12345](url).
const DefaultPatternExpr = `\[pm(?:id)?\s+([0-9０-９]+)\]\([^)]*\)`

var defaultPattern = MustCompilePattern(DefaultPatternExpr)

// Pattern is a compiled marker pattern that captures exactly one identifier.
// Matching is always case-insensitive.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// CompilePattern validates and compiles a marker pattern.
// The expression must contain exactly one capture group and must not match
// the empty string.
func CompilePattern(expr string) (*Pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &ConfigError{Field: "pattern", Value: expr, Reason: "empty pattern", Kind: ErrInvalidPattern}
	}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, &ConfigError{Field: "pattern", Value: expr, Reason: "does not compile", Kind: ErrInvalidPattern, Cause: err}
	}

	if n := re.NumSubexp(); n != 1 {
		return nil, &ConfigError{
			Field:  "pattern",
			Value:  expr,
			Reason: "must capture exactly one identifier group, found " + strconv.Itoa(n),
			Kind:   ErrInvalidPattern,
		}
	}

	if tree, err := syntax.Parse("(?i)"+expr, syntax.Perl); err == nil && !requiresCapture(tree) {
		return nil, &ConfigError{
			Field:  "pattern",
			Value:  expr,
			Reason: "identifier group is optional or can be empty",
			Kind:   ErrInvalidPattern,
		}
	}

	if re.MatchString("") {
		return nil, &ConfigError{Field: "pattern", Value: expr, Reason: "matches the empty string", Kind: ErrInvalidPattern}
	}

	return &Pattern{expr: expr, re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultPattern returns the compiled DefaultPatternExpr.
func DefaultPattern() *Pattern {
	return defaultPattern
}

// String returns the expression the pattern was compiled from.
func (p *Pattern) String() string {
	return p.expr
}

// requiresCapture reports whether every match of re passes through a
// non-empty match of its capture group.
func requiresCapture(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpCapture:
		return !matchesEmpty(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if requiresCapture(sub) {
				return true
			}
		}
		return false
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if !requiresCapture(sub) {
				return false
			}
		}
		return len(re.Sub) > 0
	case syntax.OpPlus:
		return requiresCapture(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min >= 1 && requiresCapture(re.Sub[0])
	}
	return false
}

// matchesEmpty reports whether re can match the empty string.
func matchesEmpty(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary,
		syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpCapture, syntax.OpPlus:
		return matchesEmpty(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || matchesEmpty(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !matchesEmpty(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if matchesEmpty(sub) {
				return true
			}
		}
		return false
	}
	return false
}
