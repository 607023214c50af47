package citation

import (
	"reflect"
	"testing"
)

func groupsOf(ids ...[]Identifier) []Group {
	groups := make([]Group, len(ids))
	pos := 0
	for i, g := range ids {
		markers := make([]Marker, len(g))
		for j, id := range g {
			markers[j] = Marker{ID: id, Span: Span{Start: pos, End: pos + 1}}
			pos += 2
		}
		groups[i] = Group{Span: Span{Start: markers[0].Span.Start, End: markers[len(markers)-1].Span.End}, Markers: markers}
		pos += 10
	}
	return groups
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name        string
		groups      []Group
		wantOrder   []Identifier
		wantNumbers [][]int
	}{
		{
			name:        "empty",
			groups:      nil,
			wantOrder:   []Identifier{},
			wantNumbers: nil,
		},
		{
			name:        "sorted within group",
			groups:      groupsOf([]Identifier{"6", "5"}),
			wantOrder:   []Identifier{"5", "6"},
			wantNumbers: [][]int{{1, 2}},
		},
		{
			name:        "repeat reuses number",
			groups:      groupsOf([]Identifier{"30"}, []Identifier{"20"}, []Identifier{"30"}),
			wantOrder:   []Identifier{"30", "20"},
			wantNumbers: [][]int{{1}, {2}, {1}},
		},
		{
			name:        "mixed new and seen in one group",
			groups:      groupsOf([]Identifier{"50"}, []Identifier{"70", "50", "60"}),
			wantOrder:   []Identifier{"50", "60", "70"},
			wantNumbers: [][]int{{1}, {1, 2, 3}},
		},
		{
			name:        "same pair written differently",
			groups:      groupsOf([]Identifier{"9", "8"}, []Identifier{"8", "9"}),
			wantOrder:   []Identifier{"8", "9"},
			wantNumbers: [][]int{{1, 2}, {1, 2}},
		},
		{
			name:        "duplicate in group keeps both numbers",
			groups:      groupsOf([]Identifier{"1", "1", "2"}),
			wantOrder:   []Identifier{"1", "2"},
			wantNumbers: [][]int{{1, 1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, plans := Assign(tt.groups)
			if !reflect.DeepEqual(a.Identifiers(), tt.wantOrder) {
				t.Errorf("Identifiers() = %v, want %v", a.Identifiers(), tt.wantOrder)
			}
			if len(plans) != len(tt.wantNumbers) {
				t.Fatalf("got %d plans, want %d", len(plans), len(tt.wantNumbers))
			}
			for i, p := range plans {
				if !reflect.DeepEqual(p.Numbers, tt.wantNumbers[i]) {
					t.Errorf("plan %d numbers = %v, want %v", i, p.Numbers, tt.wantNumbers[i])
				}
				if p.Span != tt.groups[i].Span {
					t.Errorf("plan %d span = %v, want %v", i, p.Span, tt.groups[i].Span)
				}
			}
		})
	}
}

func TestAssign_Density(t *testing.T) {
	a, plans := Assign(groupsOf(
		[]Identifier{"400", "100"},
		[]Identifier{"300"},
		[]Identifier{"100", "200", "400"},
		[]Identifier{"300"},
	))

	if a.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", a.Len())
	}
	seen := make(map[int]bool)
	for _, e := range a.Entries() {
		if e.Number < 1 || e.Number > a.Len() || seen[e.Number] {
			t.Errorf("number %d for %s is not dense and unique", e.Number, e.ID)
		}
		seen[e.Number] = true
		if n, ok := a.Number(e.ID); !ok || n != e.Number {
			t.Errorf("Number(%s) = %d, %v; want %d", e.ID, n, ok, e.Number)
		}
	}
	for _, p := range plans {
		for i, id := range p.Identifiers {
			n, _ := a.Number(id)
			if p.Numbers[i] != n {
				t.Errorf("plan number for %s = %d, assignment says %d", id, p.Numbers[i], n)
			}
		}
	}
}

func TestAssignment_IdentifiersIsCopy(t *testing.T) {
	a, _ := Assign(groupsOf([]Identifier{"1"}))
	ids := a.Identifiers()
	ids[0] = "changed"
	if a.Identifiers()[0] != "1" {
		t.Error("Identifiers() exposed internal state")
	}
}
