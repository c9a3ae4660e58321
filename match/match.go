// Package match holds the immutable result objects a parse produces: a
// structural Match tree over a Grammar's clauses, and the Failure a parse
// reports when it does not succeed. Match trees are purely structural —
// capture and action resolution is a separate pass performed by package
// action once a parse has already succeeded.
package match

import (
	"fmt"

	"github.com/kip-lang/kip/clause"
)

// Span is a half-open [Start, End) range over the input, End >= Start.
type Span struct {
	Start, End int
}

// Concat joins two adjacent spans, grounded on the reference Match type's
// join of adjacent sub-matches while running a Sequence or Repeat.
func (s Span) Concat(other Span) Span {
	if s.End != other.Start {
		panic(fmt.Sprintf("match: spans not adjacent: %v then %v", s, other))
	}
	return Span{Start: s.Start, End: other.End}
}

// Len reports how many input items the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Match is an immutable record of what matched, where, and with what
// sub-structure. Children mirror the shape of Clause: a Sequence/Choice
// keeps every matched child (Choice keeps only the one that won), unary
// clauses keep zero or one child. Not's matched sub-clause is deliberately
// omitted from Children so its captures are structurally unreachable by
// package action, per "captures inside a Not are discarded".
type Match struct {
	Clause   clause.Clause
	Span     Span
	Children []Match
}

// Text returns the input slice a Match consumed, i.e. source[Span.Start:Span.End].
func (m Match) Text(source string) string {
	return source[m.Span.Start:m.Span.End]
}

// Failure is a structured record of why a parse did not succeed: the
// farthest position reached, the clauses that were expected there, and
// whether an Entail committed the parse past the point where recovery via
// sibling choices was possible.
type Failure struct {
	Position  int
	Expected  []clause.Clause
	Committed bool
}

func (f Failure) Error() string {
	kind := "failed"
	if f.Committed {
		kind = "failed (committed)"
	}
	return fmt.Sprintf("parse %s at position %d, expected %d alternative(s)", kind, f.Position, len(f.Expected))
}

// Merge folds a new failure observation into a farthest-failure cursor: a
// farther position always wins outright; at the same position,
// expectations accumulate and a committed flag is sticky.
func Merge(a, b Failure) Failure {
	switch {
	case b.Position > a.Position:
		return b
	case b.Position < a.Position:
		return a
	default:
		merged := a
		merged.Committed = a.Committed || b.Committed
		merged.Expected = append(append([]clause.Clause{}, a.Expected...), b.Expected...)
		return merged
	}
}
