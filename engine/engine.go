// Package engine is the position-indexed, memoized PEG matcher: given a
// Grammar and an input string, it produces a Match tree or a structured
// Failure. It implements ordered-choice semantics, unbounded And/Not
// lookahead, Entail commit propagation, and the grow-the-seed protocol for
// left recursion described in the design notes this package is built from.
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/errs"
	"github.com/kip-lang/kip/grammar"
	"github.com/kip-lang/kip/match"
)

// DefaultMaxInput bounds how large an input Parse accepts before rejecting
// it outright. Cancellation is never checked mid-parse (the engine has no
// suspension points); this guard is the caller-facing remedy the design
// notes call for.
const DefaultMaxInput = 8 << 20 // 8 MiB

// ParseError wraps a match.Failure so callers can use errors.Is against
// errs.ErrMatchFailed / errs.ErrCommittedFailure while still reaching the
// structured diagnostic via errors.As.
type ParseError struct {
	Failure match.Failure
}

func (e *ParseError) Error() string { return e.Failure.Error() }

func (e *ParseError) Unwrap() error {
	if e.Failure.Committed {
		return errs.ErrCommittedFailure
	}
	return errs.ErrMatchFailed
}

type state struct {
	source   string
	g        *grammar.Grammar
	memo     map[ruleKey]*memoEntry
	farthest match.Failure
	log      *logrus.Entry
}

// Parse runs g against source and returns the top rule's Match, or a
// *ParseError describing the farthest failure observed. maxInput <= 0
// selects DefaultMaxInput.
func Parse(ctx context.Context, g *grammar.Grammar, source string, maxInput int) (match.Match, error) {
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	if len(source) > maxInput {
		return match.Match{}, errs.Wrapf(errs.ErrMatchFailed, "input length %d exceeds guard %d", len(source), maxInput)
	}
	if err := ctx.Err(); err != nil {
		return match.Match{}, err
	}

	parseID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"parse_id": parseID, "entry": g.EntryName(), "input_len": len(source)})
	log.Debug("kip: parse starting")

	if _, err := g.Resolve(g.EntryName()); err != nil {
		return match.Match{}, err
	}

	e := &state{source: source, g: g, memo: make(map[ruleKey]*memoEntry), log: log}
	r := e.matchRule(g.EntryName(), 0)

	if !r.ok {
		log.WithField("position", e.farthest.Position).Debug("kip: parse failed")
		return match.Match{}, &ParseError{Failure: e.farthest}
	}
	if r.m.Span.End != len(source) {
		trailing := match.Failure{Position: r.m.Span.End}
		e.updateFarthest(trailing)
		log.WithField("position", e.farthest.Position).Debug("kip: parse left trailing input")
		return match.Match{}, &ParseError{Failure: e.farthest}
	}
	log.WithField("position", r.m.Span.End).Debug("kip: parse succeeded")
	return r.m, nil
}

func (e *state) updateFarthest(f match.Failure) {
	e.farthest = match.Merge(e.farthest, f)
}

// matchRule resolves the memoized result of invoking rule name at pos,
// applying the grow-the-seed protocol: the first invocation seeds the memo
// slot with FAIL, evaluates the rule's body, and if the result's end
// position exceeds the current seed's, replaces the seed and evaluates
// again — repeating until the end position stops growing. A recursive
// re-entry into the same (name, pos) while this is in progress reads the
// current seed directly instead of recursing, and marks the slot as one
// that actually needs more than one evaluation.
//
// Only rule invocations go through this memo table. Every other clause
// kind is evaluated by eval on every visit with no memo entry of its own,
// so a sequence or choice nested in a growing rule's body always sees that
// rule's latest seed instead of a stale cached result from before the seed
// grew.
func (e *state) matchRule(name string, pos int) outcome {
	key := ruleKey{name: name, pos: pos}
	if entry, exists := e.memo[key]; exists {
		if entry.state == inProgress {
			entry.recursed = true
		}
		return entry.value
	}

	body, err := e.g.Resolve(name)
	if err != nil {
		return outcome{ok: false, f: match.Failure{Position: pos}}
	}

	entry := &memoEntry{state: inProgress, value: outcome{ok: false, f: match.Failure{Position: pos}}}
	e.memo[key] = entry

	for {
		r := e.eval(body, pos)
		grew := r.ok && (!entry.value.ok || r.m.Span.End > entry.value.m.Span.End)
		if grew {
			entry.value = r
		} else if !r.ok && !entry.value.ok {
			entry.value = r
		}
		// A rule that was never re-entered while growing cannot produce a
		// longer match by re-evaluating again; stop as soon as growth
		// stalls either way.
		if !entry.recursed || !grew {
			break
		}
	}
	entry.state = done
	if !entry.value.ok {
		e.updateFarthest(entry.value.f)
	}
	return entry.value
}

// eval evaluates clause c at pos: a Reference dispatches through the
// memoized, grow-the-seed matchRule; every other clause kind is computed
// fresh by evalOnce, unmemoized.
func (e *state) eval(c clause.Clause, pos int) outcome {
	if c.Kind == clause.KindReference {
		r := e.matchRule(c.Name, pos)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})
	}
	return e.evalOnce(c, pos)
}

func fail(pos int, expect clause.Clause, committed bool) outcome {
	return outcome{ok: false, f: match.Failure{Position: pos, Expected: []clause.Clause{expect}, Committed: committed}}
}

func ok(m match.Match) outcome { return outcome{ok: true, m: m} }

// evalOnce computes a single evaluation of clause c at pos, given whatever
// seed values its own sub-clauses currently hold in the memo table. It
// never itself loops for left recursion; that is matchRule's job.
func (e *state) evalOnce(c clause.Clause, pos int) outcome {
	switch c.Kind {
	case clause.KindEmpty:
		return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: pos}})

	case clause.KindAny:
		if pos+c.N <= len(e.source) {
			return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: pos + c.N}})
		}
		return fail(pos, c, false)

	case clause.KindValue:
		end := pos + len(c.S)
		if end <= len(e.source) && e.source[pos:end] == c.S {
			return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: end}})
		}
		return fail(pos, c, false)

	case clause.KindRange:
		if pos < len(e.source) {
			item := e.source[pos : pos+1]
			if item >= c.Lo && item <= c.Hi {
				return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: pos + 1}})
			}
		}
		return fail(pos, c, false)

	case clause.KindSequence:
		return e.evalSequence(c, pos)

	case clause.KindChoice:
		return e.evalChoice(c, pos)

	case clause.KindRepeat:
		return e.evalRepeat(c, pos)

	case clause.KindNot:
		r := e.eval(c.Sub(), pos)
		if r.ok {
			return fail(pos, c, false)
		}
		return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: pos}})

	case clause.KindAnd:
		r := e.eval(c.Sub(), pos)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: pos}, Children: []match.Match{r.m}})

	case clause.KindEntail:
		r := e.eval(c.Sub(), pos)
		if !r.ok {
			return outcome{ok: false, f: match.Failure{Position: r.f.Position, Expected: r.f.Expected, Committed: true}}
		}
		return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})

	case clause.KindCapture:
		r := e.eval(c.Sub(), pos)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})

	case clause.KindTransform:
		r := e.eval(c.Sub(), pos)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})

	case clause.KindRule:
		r := e.eval(c.Sub(), pos)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})

	default:
		panic("engine: unhandled clause kind " + c.Kind.String())
	}
}

func (e *state) evalSequence(c clause.Clause, pos int) outcome {
	cur := pos
	children := make([]match.Match, 0, len(c.Children))
	for _, child := range c.Children {
		r := e.eval(child, cur)
		if !r.ok {
			return outcome{ok: false, f: r.f}
		}
		children = append(children, r.m)
		cur = r.m.Span.End
	}
	return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: cur}, Children: children})
}

// evalChoice implements ordered choice: the first alternative that
// succeeds wins outright, even if a later alternative would consume more
// input. A committed (Entail-sourced) failure from one alternative is
// propagated immediately without trying the remaining alternatives.
func (e *state) evalChoice(c clause.Clause, pos int) outcome {
	var farthest match.Failure
	haveFarthest := false
	for _, child := range c.Children {
		r := e.eval(child, pos)
		if r.ok {
			return ok(match.Match{Clause: c, Span: r.m.Span, Children: []match.Match{r.m}})
		}
		if !haveFarthest {
			farthest, haveFarthest = r.f, true
		} else {
			farthest = match.Merge(farthest, r.f)
		}
		if r.f.Committed {
			return outcome{ok: false, f: farthest}
		}
	}
	return outcome{ok: false, f: farthest}
}

// evalRepeat implements greedy, non-backtracking one-or-more repetition: it
// commits to each successful iteration and never revisits it. A body match
// that does not advance the position is allowed exactly once, after which
// repetition halts to avoid looping forever on a nullable body.
func (e *state) evalRepeat(c clause.Clause, pos int) outcome {
	body := c.Sub()
	cur := pos
	var children []match.Match
	for {
		r := e.eval(body, cur)
		if !r.ok {
			if len(children) == 0 {
				return outcome{ok: false, f: r.f}
			}
			break
		}
		children = append(children, r.m)
		next := r.m.Span.End
		if next == cur {
			cur = next
			break
		}
		cur = next
	}
	return ok(match.Match{Clause: c, Span: match.Span{Start: pos, End: cur}, Children: children})
}
