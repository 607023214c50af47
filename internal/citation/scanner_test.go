package citation

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
)

func TestScanner_Scan(t *testing.T) {
	text := "See [pmid 111](https://x/111) and [pm 222](https://x/222)."
	markers, err := NewScanner(nil, DefaultSeparators).Scan(text)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []Marker{
		{ID: "111", Span: Span{Start: 4, End: 29}, Raw: "[pmid 111](https://x/111)"},
		{ID: "222", Span: Span{Start: 34, End: 57}, Raw: "[pm 222](https://x/222)"},
	}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("Scan() = %+v, want %+v", markers, want)
	}
	for _, m := range markers {
		if text[m.Span.Start:m.Span.End] != m.Raw {
			t.Errorf("span %v does not cover raw text %q", m.Span, m.Raw)
		}
	}
}

func TestScanner_Scan_FullWidthDigits(t *testing.T) {
	markers, err := NewScanner(nil, DefaultSeparators).Scan("[pmid １２３４５](url)")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(markers) != 1 || markers[0].ID != "12345" {
		t.Errorf("Scan() = %+v, want one marker with ID 12345", markers)
	}
}

func TestScanner_Scan_DefaultPatternDigits(t *testing.T) {
	// Only ASCII and full-width digits form default identifiers, so every
	// default identifier sorts numerically.
	markers, err := NewScanner(nil, DefaultSeparators).Scan("[pmid ١٢٣](u) [pmid 9](u) [pmid １０](u)")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	var ids []Identifier
	for _, m := range markers {
		ids = append(ids, m.ID)
		if !isNumeric(m.ID) {
			t.Errorf("identifier %q is not numeric", m.ID)
		}
	}
	if want := []Identifier{"9", "10"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Scan() ids = %v, want %v", ids, want)
	}
}

func TestScanner_Scan_OptionalCapture(t *testing.T) {
	// CompilePattern rejects this pattern; Scan still guards against it.
	expr := `pm(\d+)?x`
	s := NewScanner(&Pattern{expr: expr, re: regexp.MustCompile("(?i)" + expr)}, "")
	_, err := s.Scan("pmx")
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("Scan() error = %v, want ErrInvalidPattern", err)
	}
}

func TestScanner_Group(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wsOnly    bool
		wantIDs   [][]Identifier
		wantSpans []Span
	}{
		{
			name:      "single marker",
			text:      "a 5 b",
			wantIDs:   [][]Identifier{{"5"}},
			wantSpans: []Span{{2, 3}},
		},
		{
			name:      "comma separated",
			text:      "(6,5)",
			wantIDs:   [][]Identifier{{"6", "5"}},
			wantSpans: []Span{{1, 4}},
		},
		{
			name:      "hyphen keeps literal markers",
			text:      "(12-15)",
			wantIDs:   [][]Identifier{{"12", "15"}},
			wantSpans: []Span{{1, 6}},
		},
		{
			name:      "whitespace and newline",
			text:      "1 ,\n 2\t3",
			wantIDs:   [][]Identifier{{"1", "2", "3"}},
			wantSpans: []Span{{0, 8}},
		},
		{
			name:      "period splits",
			text:      "1. 2",
			wantIDs:   [][]Identifier{{"1"}, {"2"}},
			wantSpans: []Span{{0, 1}, {3, 4}},
		},
		{
			name:      "letter splits",
			text:      "1 and 2",
			wantIDs:   [][]Identifier{{"1"}, {"2"}},
			wantSpans: []Span{{0, 1}, {6, 7}},
		},
		{
			name:      "whitespace only separators",
			text:      "1,2 3",
			wsOnly:    true,
			wantIDs:   [][]Identifier{{"1"}, {"2", "3"}},
			wantSpans: []Span{{0, 1}, {2, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seps := DefaultSeparators
			if tt.wsOnly {
				seps = ""
			}
			s := NewScanner(MustCompilePattern(`(\d+)`), seps)
			groups, err := s.ScanGroups(tt.text)
			if err != nil {
				t.Fatalf("ScanGroups() error = %v", err)
			}
			if len(groups) != len(tt.wantIDs) {
				t.Fatalf("got %d groups, want %d: %+v", len(groups), len(tt.wantIDs), groups)
			}
			for i, g := range groups {
				if !reflect.DeepEqual(g.Identifiers(), tt.wantIDs[i]) {
					t.Errorf("group %d identifiers = %v, want %v", i, g.Identifiers(), tt.wantIDs[i])
				}
				if g.Span != tt.wantSpans[i] {
					t.Errorf("group %d span = %v, want %v", i, g.Span, tt.wantSpans[i])
				}
			}
		})
	}
}

func TestScanner_Group_CoverageAndNonOverlap(t *testing.T) {
	text := "Intro [pmid 3](a), [pmid 1](b)\n[pmid 2](c). Then [pm 3](d) - [pm 9](e); end [pmid 4](f)"
	s := NewScanner(nil, DefaultSeparators)

	markers, err := s.Scan(text)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	groups := s.Group(text, markers)

	covered := 0
	for i, g := range groups {
		if i > 0 && g.Span.Start < groups[i-1].Span.End {
			t.Errorf("group %d span %v overlaps previous %v", i, g.Span, groups[i-1].Span)
		}
		for _, m := range g.Markers {
			if m.Span.Start < g.Span.Start || m.Span.End > g.Span.End {
				t.Errorf("marker %v outside group span %v", m.Span, g.Span)
			}
		}
		covered += len(g.Markers)
	}
	if covered != len(markers) {
		t.Errorf("groups cover %d markers, want %d", covered, len(markers))
	}
	if len(groups) != 3 {
		t.Errorf("got %d groups, want 3", len(groups))
	}
}

func TestGroup_SortedIdentifiers(t *testing.T) {
	g := Group{Markers: []Marker{{ID: "9"}, {ID: "10"}, {ID: "8"}, {ID: "9"}}}
	got := g.SortedIdentifiers()
	want := []Identifier{"8", "9", "9", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedIdentifiers() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(g.Identifiers(), []Identifier{"9", "10", "8", "9"}) {
		t.Errorf("Identifiers() should keep document order, got %v", g.Identifiers())
	}
}

func TestCompareIdentifiers(t *testing.T) {
	tests := []struct {
		a, b Identifier
		want int
	}{
		{"8", "9", -1},
		{"10", "9", 1},
		{"123456789012345678901234567890", "99", 1},
		{"007", "7", -1},
		{"7", "7", 0},
		{"42", "abc", -1},
		{"abc", "42", 1},
		{"abc", "abd", -1},
	}
	for _, tt := range tests {
		if got := compareIdentifiers(tt.a, tt.b); got != tt.want {
			t.Errorf("compareIdentifiers(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
