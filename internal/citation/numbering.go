package citation

import (
	"sort"
	"strings"
)

// Entry is one identifier with its assigned number.
type Entry struct {
	Number int        `json:"number"`
	ID     Identifier `json:"id"`
}

// Assignment maps identifiers to citation numbers 1..K in first-appearance order.
// It is built by Assign and is read-only afterwards.
type Assignment struct {
	order   []Identifier
	numbers map[Identifier]int
}

func newAssignment() *Assignment {
	return &Assignment{numbers: make(map[Identifier]int)}
}

// assign returns the number for id, allocating the next one on first sight.
func (a *Assignment) assign(id Identifier) int {
	if n, ok := a.numbers[id]; ok {
		return n
	}
	a.order = append(a.order, id)
	n := len(a.order)
	a.numbers[id] = n
	return n
}

// Number returns the number assigned to id.
func (a *Assignment) Number(id Identifier) (int, bool) {
	n, ok := a.numbers[id]
	return n, ok
}

// Len returns the number of distinct identifiers.
func (a *Assignment) Len() int {
	return len(a.order)
}

// Identifiers returns the identifiers in number order.
func (a *Assignment) Identifiers() []Identifier {
	out := make([]Identifier, len(a.order))
	copy(out, a.order)
	return out
}

// Entries returns (number, identifier) pairs in number order.
func (a *Assignment) Entries() []Entry {
	entries := make([]Entry, len(a.order))
	for i, id := range a.order {
		entries[i] = Entry{Number: i + 1, ID: id}
	}
	return entries
}

// Plan describes the replacement of one group.
// Identifiers are sorted; Numbers[i] is the number of Identifiers[i].
type Plan struct {
	Span        Span         `json:"span"`
	Identifiers []Identifier `json:"identifiers"`
	Numbers     []int        `json:"numbers"`
}

// Assign numbers the identifiers of groups in order. Within a group the
// identifiers are visited in sorted order, so the smallest new identifier
// receives the lowest number regardless of how the group was written.
func Assign(groups []Group) (*Assignment, []Plan) {
	a := newAssignment()
	plans := make([]Plan, 0, len(groups))
	for _, g := range groups {
		ids := g.SortedIdentifiers()
		numbers := make([]int, len(ids))
		for i, id := range ids {
			numbers[i] = a.assign(id)
		}
		plans = append(plans, Plan{Span: g.Span, Identifiers: ids, Numbers: numbers})
	}
	return a, plans
}

// sortIdentifiers sorts ids in place using compareIdentifiers. Equal
// identifiers keep their relative order.
func sortIdentifiers(ids []Identifier) {
	sort.SliceStable(ids, func(i, j int) bool {
		return compareIdentifiers(ids[i], ids[j]) < 0
	})
}

// compareIdentifiers orders numeric identifiers by value and everything else
// lexicographically. Numeric identifiers sort before non-numeric ones.
// Values of any length are supported; "007" and "7" tie on value and fall
// back to a byte comparison.
func compareIdentifiers(a, b Identifier) int {
	an, bn := isNumeric(a), isNumeric(b)
	switch {
	case an && bn:
		x := strings.TrimLeft(string(a), "0")
		y := strings.TrimLeft(string(b), "0")
		if len(x) != len(y) {
			if len(x) < len(y) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(x, y); c != 0 {
			return c
		}
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(string(a), string(b))
}

func isNumeric(id Identifier) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
