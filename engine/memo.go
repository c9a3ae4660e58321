package engine

import "github.com/kip-lang/kip/match"

// entryState distinguishes the two states a memo slot passes through: a
// rule invocation starts inProgress while its seed is still growing (a
// left-recursive re-entry reads the current seed here without recursing
// further), and becomes done once growth has stopped.
type entryState uint8

const (
	unvisited entryState = iota
	inProgress
	done
)

// outcome is a matched Match, or a failure — never both.
type outcome struct {
	ok bool
	m  match.Match
	f  match.Failure
}

// ruleKey identifies one grow-the-seed memo slot: a named rule invoked at a
// given input position. Only rule invocations are memoized this way, per
// the Reference matcher in the interpreter this package is adapted from —
// every other clause kind is re-evaluated fresh on each visit, so a
// sequence or choice nested inside a growing rule always sees that rule's
// latest seed instead of a stale cached result from before the seed grew.
type ruleKey struct {
	name string
	pos  int
}

type memoEntry struct {
	state entryState
	// recursed records whether name was re-entered at pos while its own
	// value was still being grown. A rule that never does so cannot
	// possibly produce a longer match on a second evaluation, so the grow
	// loop only keeps re-evaluating rules for which this is true.
	recursed bool
	value    outcome
}
