// Package predicate builds side-effect-free predicate descriptions over a
// record family's columns. A predicate is a small tagged tree that a
// persistence adapter lowers into parameterized query text; nothing in this
// package executes anything or touches SQL.
package predicate

import "strings"

// Predicate is a node in the boolean predicate tree.
type Predicate interface {
	isPredicate()
}

// True matches every row. An empty keyword yields this.
type True struct{}

// Contains tests that a column's content, with all spaces removed and
// case-folded, contains Value. Value must already be normalized via
// Normalize.
type Contains struct {
	Column string
	Value  string
}

// Equals tests that a column's trimmed, case-folded content equals Value.
// Value must already be normalized via NormalizeExact.
type Equals struct {
	Column string
	Value  string
}

// DateRange tests that a column storing DD/MM/YYYY text falls within the
// inclusive ISO bounds. Either bound may be empty. Rows whose stored value
// is shorter than 10 characters never satisfy the range.
type DateRange struct {
	Column   string
	StartISO string
	EndISO   string
}

// And is the conjunction of its children.
type And []Predicate

// Or is the disjunction of its children.
type Or []Predicate

func (True) isPredicate()      {}
func (Contains) isPredicate()  {}
func (Equals) isPredicate()    {}
func (DateRange) isPredicate() {}
func (And) isPredicate()       {}
func (Or) isPredicate()        {}

// Normalize strips every space character and lower-cases the result. This is
// the keyword/filter comparison form: both the needle and (in the adapter)
// the stored haystack go through it.
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// NormalizeExact trims surrounding whitespace and lower-cases, the equality
// comparison form used by exact-match criteria.
func NormalizeExact(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
