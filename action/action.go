// Package action resolves the captures and transform actions attached to an
// already-completed match.Match tree. It is a separate, later pass from
// package engine: the engine only ever asks "does this input match this
// clause", and action only ever asks "given that it did, what value does it
// carry" — the two concerns spec.md's design notes keep apart.
package action

import (
	"github.com/kip-lang/kip/clause"
	"github.com/kip-lang/kip/errs"
	"github.com/kip-lang/kip/match"
)

// Scope binds capture names to the values bound to them at the point a
// Transform action runs, i.e. the captures made within its own sub-clause.
type Scope map[string]any

// Host evaluates a Transform's action Token against the Scope captured for
// it. The core never interprets Token itself — it is opaque payload handed
// to whichever Host the caller supplies, per the "external collaborator"
// boundary spec.md draws around action evaluation.
type Host interface {
	Eval(action clause.Token, scope Scope) (any, error)
}

// result is what evaluating a single Match node produces: zero or more
// positional results (as bootpeg's Match.results) and zero or more named
// captures visible to a Transform directly wrapping this node (as
// bootpeg's Match.captures). Both are bottom-up, structural properties of
// the completed tree.
type result struct {
	values   []any
	captures Scope
}

func empty() result { return result{} }

// Evaluate walks m bottom-up, running host for every Transform it finds,
// and returns the resulting positional values (mirroring bootpeg's
// Match.results). The outermost node's own captures are not returned.
func Evaluate(m match.Match, source string, host Host) ([]any, error) {
	r, err := evalNode(m, source, host)
	if err != nil {
		return nil, err
	}
	return r.values, nil
}

// Run is the convenience entry point for a whole parse: it evaluates m and
// collapses its results to the single value a caller expects a parse to
// produce. With no Transform anywhere in the tree, it falls back to the
// matched text, mirroring Capture's non-variadic fallback.
func Run(m match.Match, source string, host Host) (any, error) {
	values, err := Evaluate(m, source, host)
	if err != nil {
		return nil, err
	}
	switch len(values) {
	case 0:
		return m.Text(source), nil
	case 1:
		return values[0], nil
	default:
		return nil, errs.Wrapf(errs.ErrCaptureArity, "top-level match produced %d results, expected 0 or 1", len(values))
	}
}

func evalNode(m match.Match, source string, host Host) (result, error) {
	switch m.Clause.Kind {
	case clause.KindEmpty, clause.KindAny, clause.KindValue, clause.KindRange:
		return empty(), nil

	case clause.KindNot:
		// Not never records a matched child (see match.Match), so there is
		// nothing to evaluate.
		return empty(), nil

	case clause.KindAnd:
		// And never advances position, but the engine still records its
		// matched child in Children, and captures made inside it stay
		// visible to the enclosing scope.
		return evalNode(m.Children[0], source, host)

	case clause.KindReference, clause.KindRule:
		child, err := evalNode(m.Children[0], source, host)
		if err != nil {
			return result{}, err
		}
		// A bare reference forwards the referenced rule's results (e.g. a
		// value its own top-level Transform produced) but never its
		// internal capture names — those are only visible where the
		// reference is itself wrapped in a Capture.
		return result{values: child.values}, nil

	case clause.KindEntail:
		return evalNode(m.Children[0], source, host)

	case clause.KindSequence:
		return evalJoin(m.Children, source, host)

	case clause.KindRepeat:
		return evalJoin(m.Children, source, host)

	case clause.KindChoice:
		// Only the winning alternative was recorded.
		return evalNode(m.Children[0], source, host)

	case clause.KindCapture:
		child, err := evalNode(m.Children[0], source, host)
		if err != nil {
			return result{}, err
		}
		value, err := bindCapture(m, child.values, source)
		if err != nil {
			return result{}, err
		}
		return result{captures: Scope{m.Clause.Name: value}}, nil

	case clause.KindTransform:
		child, err := evalNode(m.Children[0], source, host)
		if err != nil {
			return result{}, err
		}
		scope := child.captures
		if scope == nil {
			scope = Scope{}
		}
		value, err := host.Eval(m.Clause.Action, scope)
		if err != nil {
			return result{}, errs.Wrapf(errs.ErrAction, "transform at position %d: %v", m.Span.Start, err)
		}
		return result{values: []any{value}}, nil

	default:
		panic("action: unhandled clause kind " + m.Clause.Kind.String())
	}
}

// bindCapture implements Capture's arity rule: a non-variadic capture whose
// child produced no positional result binds the matched text; exactly one
// result binds that result; more than one is an arity error. A variadic
// capture always binds the full (possibly empty) result slice.
func bindCapture(m match.Match, values []any, source string) (any, error) {
	if m.Clause.Variadic {
		return append([]any{}, values...), nil
	}
	switch len(values) {
	case 0:
		return m.Children[0].Text(source), nil
	case 1:
		return values[0], nil
	default:
		return nil, errs.Wrapf(errs.ErrCaptureArity, "capture %q at position %d bound %d results, expected exactly 1", m.Clause.Name, m.Span.Start, len(values))
	}
}

// evalJoin threads Sequence/Repeat's left-to-right accumulation: results
// concatenate positionally and captures merge by name, later children
// overriding earlier ones on a name collision (mirroring dict(pairs) over
// bootpeg's flattened capture tuple).
func evalJoin(children []match.Match, source string, host Host) (result, error) {
	acc := result{}
	for _, child := range children {
		r, err := evalNode(child, source, host)
		if err != nil {
			return result{}, err
		}
		acc.values = append(acc.values, r.values...)
		if len(r.captures) > 0 {
			if acc.captures == nil {
				acc.captures = Scope{}
			}
			for k, v := range r.captures {
				acc.captures[k] = v
			}
		}
	}
	return acc, nil
}
