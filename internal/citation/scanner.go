// Package citation finds inline citation markers in a document, groups
// adjacent markers, numbers identifiers by first appearance and rewrites the
// marker text with the assigned numbers.
//
// The stages are pure functions over in-memory text and run in a fixed
// order: Scan, Group, Assign, Replace. Process runs all of them.
package citation

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// DefaultSeparators are the characters, besides whitespace, that may sit
// between two markers of the same group.
const DefaultSeparators = ",-"

// Identifier names one cited work, e.g. a PubMed ID.
type Identifier string

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Marker is one occurrence of a citation marker in the source text.
type Marker struct {
	ID   Identifier `json:"id"`
	Span Span       `json:"span"`
	Raw  string     `json:"raw"`
}

// Group is a maximal run of markers separated only by separator characters.
type Group struct {
	Span    Span     `json:"span"`
	Markers []Marker `json:"markers"`
}

// Identifiers returns the group's identifiers in document order, duplicates included.
func (g Group) Identifiers() []Identifier {
	ids := make([]Identifier, len(g.Markers))
	for i, m := range g.Markers {
		ids[i] = m.ID
	}
	return ids
}

// SortedIdentifiers returns the group's identifiers in ascending order.
// Duplicates are kept.
func (g Group) SortedIdentifiers() []Identifier {
	ids := g.Identifiers()
	sortIdentifiers(ids)
	return ids
}

// Scanner finds markers and groups them.
type Scanner struct {
	pattern    *Pattern
	separators string
}

// NewScanner creates a scanner. A nil pattern selects DefaultPattern.
// Whitespace always separates markers of the same group; separators lists
// the additional characters that do.
func NewScanner(pattern *Pattern, separators string) *Scanner {
	if pattern == nil {
		pattern = DefaultPattern()
	}
	return &Scanner{pattern: pattern, separators: separators}
}

// Pattern returns the scanner's marker pattern.
func (s *Scanner) Pattern() *Pattern {
	return s.pattern
}

// Scan returns every non-overlapping marker in text, left to right.
// A match whose capture group did not participate is reported as a
// configuration error: the pattern makes the identifier optional.
func (s *Scanner) Scan(text string) ([]Marker, error) {
	locs := s.pattern.re.FindAllStringSubmatchIndex(text, -1)
	markers := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if loc[2] < 0 || loc[3] <= loc[2] {
			return nil, &ConfigError{
				Field:  "pattern",
				Value:  s.pattern.expr,
				Reason: "match " + strconv.Quote(text[start:end]) + " captured no identifier",
				Kind:   ErrInvalidPattern,
			}
		}
		markers = append(markers, Marker{
			ID:   normalizeIdentifier(text[loc[2]:loc[3]]),
			Span: Span{Start: start, End: end},
			Raw:  text[start:end],
		})
	}
	return markers, nil
}

// Group merges markers (as returned by Scan) into maximal groups.
// Groups are returned in ascending span order and never overlap.
func (s *Scanner) Group(text string, markers []Marker) []Group {
	var groups []Group
	for _, m := range markers {
		if n := len(groups); n > 0 && s.joinable(text[groups[n-1].Span.End:m.Span.Start]) {
			last := &groups[n-1]
			last.Markers = append(last.Markers, m)
			last.Span.End = m.Span.End
			continue
		}
		groups = append(groups, Group{Span: m.Span, Markers: []Marker{m}})
	}
	return groups
}

// ScanGroups runs Scan followed by Group.
func (s *Scanner) ScanGroups(text string) ([]Group, error) {
	markers, err := s.Scan(text)
	if err != nil {
		return nil, err
	}
	return s.Group(text, markers), nil
}

// joinable reports whether gap consists only of whitespace and separators.
func (s *Scanner) joinable(gap string) bool {
	for _, r := range gap {
		if unicode.IsSpace(r) || strings.ContainsRune(s.separators, r) {
			continue
		}
		return false
	}
	return true
}

// normalizeIdentifier folds full-width characters (e.g. "１２３") to their
// ASCII forms and trims surrounding whitespace.
func normalizeIdentifier(raw string) Identifier {
	return Identifier(strings.TrimSpace(width.Fold.String(raw)))
}
